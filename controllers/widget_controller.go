package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/services"
	"leadcatcher/utils"
)

type WidgetController struct {
	Widgets *services.WidgetService
	Logger  *logrus.Entry
}

func NewWidgetController(widgets *services.WidgetService, logger *logrus.Entry) *WidgetController {
	return &WidgetController{
		Widgets: widgets,
		Logger:  logger,
	}
}

func (wc *WidgetController) GetWidgets(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	widgets, err := wc.Widgets.List(c.UserContext(), actor)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(widgets)
}

func (wc *WidgetController) GetWidget(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Widget")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	widget, err := wc.Widgets.Get(c.UserContext(), actor, id)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(widget)
}

func (wc *WidgetController) CreateWidget(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var input services.WidgetInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	widget, err := wc.Widgets.Create(c.UserContext(), actor, input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(widget)
}

// UpdateWidget applies a partial update
func (wc *WidgetController) UpdateWidget(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Widget")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var input services.WidgetUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	widget, err := wc.Widgets.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(widget)
}

func (wc *WidgetController) DeleteWidget(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Widget")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	if err := wc.Widgets.Delete(c.UserContext(), actor, id); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(utils.SuccessResponse())
}
