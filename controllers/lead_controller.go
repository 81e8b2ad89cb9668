package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/services"
	"leadcatcher/utils"
)

type LeadController struct {
	Leads  *services.LeadService
	Notes  *services.NoteService
	Logger *logrus.Entry
}

func NewLeadController(leads *services.LeadService, notes *services.NoteService, logger *logrus.Entry) *LeadController {
	return &LeadController{
		Leads:  leads,
		Notes:  notes,
		Logger: logger,
	}
}

// GetLeads lists leads with optional status and search filters
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var filter services.LeadFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, utils.NewValidationError("", "Invalid query parameters"))
	}

	leads, err := lc.Leads.List(c.UserContext(), actor, filter)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(leads)
}

// GetLead returns a lead with its notes, newest note first
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Lead")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	lead, err := lc.Leads.Get(c.UserContext(), actor, id)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(lead)
}

func (lc *LeadController) UpdateLead(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Lead")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var input services.LeadUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	lead, err := lc.Leads.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(lead)
}

func (lc *LeadController) AddNote(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Lead")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	var input services.NoteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, invalidBody())
	}

	note, err := lc.Notes.Create(c.UserContext(), actor, id, input)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (lc *LeadController) GetNotes(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	id, err := utils.ParseID(c.Params("id"), "Lead")
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	notes, err := lc.Notes.List(c.UserContext(), actor, id)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(notes)
}
