package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/services"
	"leadcatcher/utils"
)

type AuthController struct {
	Identity *services.IdentityService
	Sessions *middleware.Sessions
	Logger   *logrus.Entry
}

func NewAuthController(identity *services.IdentityService, sessions *middleware.Sessions, logger *logrus.Entry) *AuthController {
	return &AuthController{
		Identity: identity,
		Sessions: sessions,
		Logger:   logger,
	}
}

func invalidBody() error {
	return utils.NewValidationError("", "Invalid request body")
}

// Register creates an agency with its owner and logs the owner in
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	user, err := ac.Identity.Register(c.UserContext(), input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	if err := ac.Sessions.Login(c, user); err != nil {
		return utils.ErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	user, err := ac.Identity.Login(c.UserContext(), input)
	if err != nil {
		if utils.KindOf(err) == utils.KindUnauthorized {
			utils.LogEvent("login_failed", map[string]interface{}{
				"ip": c.IP(),
			})
		}
		return utils.ErrorResponse(c, err)
	}
	if err := ac.Sessions.Login(c, user); err != nil {
		return utils.ErrorResponse(c, err)
	}

	ac.Logger.WithField("user_id", user.ID).Info("User logged in")
	return c.JSON(user)
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Sessions.Logout(c); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(utils.SuccessResponse())
}

// CurrentUser returns the session's user
func (ac *AuthController) CurrentUser(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return utils.ErrorResponse(c, utils.NewUnauthorizedError("Unauthorized"))
	}
	return c.JSON(user)
}

func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var input services.ForgotPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	message, err := ac.Identity.RequestPasswordReset(c.UserContext(), input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": message})
}

func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	var input services.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	if err := ac.Identity.ResetPassword(c.UserContext(), input); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}
