package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
	controller "leadcatcher/controllers"
	"leadcatcher/metrics"
	"leadcatcher/middleware"
	"leadcatcher/ratelimit"
	"leadcatcher/realtime"
	"leadcatcher/services"
	"leadcatcher/utils"
)

// Dependencies is everything the HTTP layer needs from main.
type Dependencies struct {
	DB          *gorm.DB
	Hub         *realtime.Hub
	Limiter     *ratelimit.Limiter
	Mailer      utils.Mailer
	ResetTokens *utils.ResetTokenIssuer

	// SessionStorage may be nil for in-memory sessions
	SessionStorage fiber.Storage
	SessionTTL     time.Duration
	SecureCookies  bool

	CORSOrigins []string
	AccessLog   bool
}

// NewApp creates the Fiber app with JSON error rendering. trustProxy makes
// c.IP() read X-Forwarded-For.
func NewApp(trustProxy bool) *fiber.App {
	cfg := fiber.Config{
		AppName:      "leadcatcher",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		BodyLimit:    1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return utils.ErrorResponse(c, err)
		},
	}
	if trustProxy {
		cfg.ProxyHeader = fiber.HeaderXForwardedFor
		cfg.EnableIPValidation = true
	}
	return fiber.New(cfg)
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
		}))
	}
	app.Use(metrics.RecordHTTPStats())
	app.Use(middleware.CORS(deps.CORSOrigins))

	identity := services.NewIdentityService(deps.DB, deps.ResetTokens, deps.Mailer, utils.NewLogger("AUTH"))
	sessions := middleware.NewSessions(deps.SessionStorage, deps.SessionTTL, deps.SecureCookies, identity)

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	SetupAuthRoutes(api, identity, sessions)
	SetupAPIRoutes(api, deps, identity, sessions)
	SetupPublicRoutes(api, deps)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "The requested resource was not found",
		})
	})
}

func SetupAuthRoutes(api fiber.Router, identity *services.IdentityService, sessions *middleware.Sessions) {
	authController := controller.NewAuthController(identity, sessions, utils.NewLogger("AUTH"))

	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Post("/forgot-password", authController.ForgotPassword)
	auth.Post("/reset-password", authController.ResetPassword)
	auth.Post("/logout", sessions.Protected(), authController.Logout)

	api.Get("/user", sessions.Protected(), authController.CurrentUser)
}

func SetupAPIRoutes(api fiber.Router, deps Dependencies, identity *services.IdentityService, sessions *middleware.Sessions) {
	protected := sessions.Protected()

	teamController := controller.NewTeamController(identity, utils.NewLogger("TEAM"))
	team := api.Group("/team", protected)
	team.Get("/", teamController.ListTeam)
	team.Post("/", teamController.Invite)

	widgetController := controller.NewWidgetController(
		services.NewWidgetService(deps.DB, utils.NewLogger("WIDGET")),
		utils.NewLogger("WIDGET"),
	)
	widgets := api.Group("/widgets", protected)
	widgets.Get("/", widgetController.GetWidgets)
	widgets.Post("/", widgetController.CreateWidget)
	widgets.Get("/:id", widgetController.GetWidget)
	widgets.Put("/:id", widgetController.UpdateWidget)
	widgets.Delete("/:id", widgetController.DeleteWidget)

	leadController := controller.NewLeadController(
		services.NewLeadService(deps.DB, deps.Hub, utils.NewLogger("LEAD")),
		services.NewNoteService(deps.DB, utils.NewLogger("NOTE")),
		utils.NewLogger("LEAD"),
	)
	leads := api.Group("/leads", protected)
	leads.Get("/", leadController.GetLeads)
	leads.Get("/:id", leadController.GetLead)
	leads.Put("/:id", leadController.UpdateLead)
	leads.Get("/:id/notes", leadController.GetNotes)
	leads.Post("/:id/notes", leadController.AddNote)

	dashboardController := controller.NewDashboardController(services.NewStatsService(deps.DB), utils.NewLogger("DASHBOARD"))
	api.Get("/dashboard/stats", protected, dashboardController.GetStats)

	realtimeController := controller.NewRealtimeController(deps.Hub, utils.NewLogger("REALTIME"))
	api.Get("/realtime", protected, realtimeController.Upgrade, realtimeController.Stream())
}

func SetupPublicRoutes(api fiber.Router, deps Dependencies) {
	publicController := controller.NewPublicController(
		services.NewWidgetService(deps.DB, utils.NewLogger("PUBLIC")),
		services.NewIntakeService(deps.DB, deps.Limiter, deps.Hub, utils.NewLogger("INTAKE")),
		utils.NewLogger("PUBLIC"),
	)

	public := api.Group("/public", middleware.PublicCORS())
	public.Get("/widgets/:id", publicController.GetWidget)
	public.Post("/leads", publicController.SubmitLead)
}
