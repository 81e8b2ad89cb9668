package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"leadcatcher/middleware"
	"leadcatcher/services"
	"leadcatcher/utils"
)

type DashboardController struct {
	Stats  *services.StatsService
	Logger *logrus.Entry
}

func NewDashboardController(stats *services.StatsService, logger *logrus.Entry) *DashboardController {
	return &DashboardController{
		Stats:  stats,
		Logger: logger,
	}
}

// GetStats returns lead totals for the dashboard. ?days is echoed back.
func (dc *DashboardController) GetStats(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}

	stats, err := dc.Stats.Stats(c.UserContext(), actor, c.QueryInt("days", 30))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return c.JSON(stats)
}
