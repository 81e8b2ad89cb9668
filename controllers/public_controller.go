package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/services"
	"leadcatcher/utils"
)

// PublicController serves the unauthenticated embed endpoints.
type PublicController struct {
	Widgets *services.WidgetService
	Intake  *services.IntakeService
	Logger  *logrus.Entry
}

func NewPublicController(widgets *services.WidgetService, intake *services.IntakeService, logger *logrus.Entry) *PublicController {
	return &PublicController{
		Widgets: widgets,
		Intake:  intake,
		Logger:  logger,
	}
}

func (pc *PublicController) GetWidget(c *fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "Widget")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	widget, err := pc.Widgets.GetPublic(c.UserContext(), id)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(widget)
}

// SubmitLead answers 201 for honeypot hits too, so bots cannot tell them apart.
func (pc *PublicController) SubmitLead(c *fiber.Ctx) error {
	var input services.Submission
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	if _, err := pc.Intake.Submit(c.UserContext(), c.IP(), input); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse())
}
