package services

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"leadcatcher/models"
)

const (
	recentLeadCount   = 5
	defaultWindowDays = 30
)

type DashboardStats struct {
	TotalLeads    int64                       `json:"totalLeads"`
	LeadsByStatus map[models.LeadStatus]int64 `json:"leadsByStatus"`
	LeadsByWidget map[string]int64            `json:"leadsByWidget"`
	RecentLeads   []models.Lead               `json:"recentLeads"`
	WindowDays    int                         `json:"windowDays"`
}

// StatsService computes dashboard aggregates on every request.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Stats aggregates one scan of the leads visible to the actor, so the totals
// always agree with each other. days is reported back but does not filter.
func (s *StatsService) Stats(ctx context.Context, actor Actor, days int) (*DashboardStats, error) {
	if days <= 0 {
		days = defaultWindowDays
	}

	var leads []models.Lead
	if err := s.db.WithContext(ctx).
		Scopes(leadScope(actor)).
		Order("created_at DESC, id DESC").
		Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}

	stats := &DashboardStats{
		TotalLeads:    int64(len(leads)),
		LeadsByStatus: make(map[models.LeadStatus]int64, len(models.LeadStatuses)),
		LeadsByWidget: map[string]int64{},
		RecentLeads:   []models.Lead{},
		WindowDays:    days,
	}
	for _, status := range models.LeadStatuses {
		stats.LeadsByStatus[status] = 0
	}

	for i, lead := range leads {
		stats.LeadsByStatus[lead.Status]++
		stats.LeadsByWidget[strconv.FormatUint(uint64(lead.WidgetID), 10)]++
		if i < recentLeadCount {
			stats.RecentLeads = append(stats.RecentLeads, lead)
		}
	}
	return stats, nil
}
