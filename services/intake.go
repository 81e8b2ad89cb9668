package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leadcatcher/metrics"
	"leadcatcher/models"
	"leadcatcher/ratelimit"
	"leadcatcher/realtime"
	"leadcatcher/utils"
)

// Submission is a visitor's form post. Honeypot is a hidden input that only bots fill in.
type Submission struct {
	WidgetID      uint                   `json:"widgetId" validate:"required"`
	FormResponses map[string]interface{} `json:"formResponses" validate:"required"`
	Honeypot      string                 `json:"_hp"`
}

// IntakeService turns public submissions into leads.
type IntakeService struct {
	db       *gorm.DB
	limiter  *ratelimit.Limiter
	notifier realtime.Notifier
	log      *logrus.Entry
}

func NewIntakeService(db *gorm.DB, limiter *ratelimit.Limiter, notifier realtime.Notifier, log *logrus.Entry) *IntakeService {
	return &IntakeService{db: db, limiter: limiter, notifier: notifier, log: log}
}

// Submit checks the honeypot before the rate limit, so bot traffic neither
// creates leads nor uses up a visitor's allowance. It returns the created lead,
// or nil when the submission was silently discarded.
func (s *IntakeService) Submit(ctx context.Context, clientIP string, sub Submission) (*models.Lead, error) {
	if err := utils.ValidateStruct(sub); err != nil {
		metrics.SubmissionsRejected.WithLabelValues(metrics.ReasonInvalid).Inc()
		return nil, err
	}

	if sub.Honeypot != "" {
		metrics.SubmissionsRejected.WithLabelValues(metrics.ReasonHoneypot).Inc()
		s.log.WithFields(logrus.Fields{
			"ip":        clientIP,
			"widget_id": sub.WidgetID,
		}).Info("Honeypot triggered, submission discarded")
		return nil, nil
	}

	allowed, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if !allowed {
		metrics.SubmissionsRejected.WithLabelValues(metrics.ReasonRateLimited).Inc()
		utils.LogEvent("submission_rate_limited", map[string]interface{}{
			"ip":        clientIP,
			"widget_id": sub.WidgetID,
		})
		return nil, utils.NewTooManyRequestsError("Too many requests")
	}

	var widget models.Widget
	err = s.db.WithContext(ctx).Select("id", "agency_id").First(&widget, sub.WidgetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.SubmissionsRejected.WithLabelValues(metrics.ReasonUnknownForm).Inc()
		return nil, utils.NewNotFoundError("Widget not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find widget: %w", err)
	}

	responses := sub.FormResponses
	lead := models.Lead{
		AgencyID:      widget.AgencyID,
		WidgetID:      widget.ID,
		Name:          contactValue(responses, "name", "Name"),
		Email:         contactValue(responses, "email", "Email"),
		Phone:         contactValue(responses, "phone", "Phone"),
		FormResponses: responses,
		Status:        models.StatusNew,
	}
	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	metrics.LeadsCaptured.Inc()
	s.log.WithFields(logrus.Fields{
		"lead_id":   lead.ID,
		"widget_id": widget.ID,
		"agency_id": widget.AgencyID,
	}).Info("Lead captured")

	s.notifier.Publish(lead.AgencyID, realtime.EventLeadNew, lead)
	s.notifier.Publish(lead.AgencyID, realtime.EventStatsUpdate, nil)
	return &lead, nil
}

// contactValue returns the first non-empty string stored under one of keys.
// Non-string values are ignored.
func contactValue(responses map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		if v, ok := responses[key].(string); ok && v != "" {
			return &v
		}
	}
	return nil
}
