package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/services"
	"leadcatcher/utils"
)

type TeamController struct {
	Identity *services.IdentityService
	Logger   *logrus.Entry
}

func NewTeamController(identity *services.IdentityService, logger *logrus.Entry) *TeamController {
	return &TeamController{
		Identity: identity,
		Logger:   logger,
	}
}

func (tc *TeamController) ListTeam(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	team, err := tc.Identity.ListTeam(c.UserContext(), actor)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(team)
}

// Invite adds a rep to the caller's agency
func (tc *TeamController) Invite(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var input services.InviteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	user, err := tc.Identity.Invite(c.UserContext(), actor, input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}
