package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leadcatcher/models"
	"leadcatcher/realtime"
	"leadcatcher/utils"
)

// LeadFilter narrows a lead listing. An empty or "all" status means any status.
type LeadFilter struct {
	Status string `query:"status"`
	Search string `query:"search"`
}

// LeadView is a lead enriched with display names resolved at read time.
type LeadView struct {
	models.Lead
	WidgetName   *string `json:"widgetName"`
	AssigneeName *string `json:"assigneeName"`
}

type LeadDetail struct {
	models.Lead
	Notes []models.Note `json:"notes"`
}

type LeadUpdate struct {
	Status     *models.LeadStatus `json:"status"`
	AssignedTo Optional[uint]     `json:"assignedTo"`
}

type LeadService struct {
	db       *gorm.DB
	notifier realtime.Notifier
	log      *logrus.Entry
}

func NewLeadService(db *gorm.DB, notifier realtime.Notifier, log *logrus.Entry) *LeadService {
	return &LeadService{db: db, notifier: notifier, log: log}
}

// leadScope restricts a query to the actor's agency, and to assigned leads for reps.
func leadScope(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("agency_id = ?", actor.AgencyID)
		if !actor.IsOwner() {
			db = db.Where("assigned_to = ?", actor.UserID)
		}
		return db
	}
}

func (s *LeadService) List(ctx context.Context, actor Actor, filter LeadFilter) ([]LeadView, error) {
	query := s.db.WithContext(ctx).Model(&models.Lead{}).Scopes(leadScope(actor))

	status := strings.TrimSpace(filter.Status)
	if status != "" && status != "all" {
		if !models.LeadStatus(status).Valid() {
			return nil, utils.NewValidationError("status", "Unknown lead status "+status)
		}
		query = query.Where("status = ?", status)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	var leads []models.Lead
	if err := query.Order("created_at DESC, id DESC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return s.enrich(ctx, leads)
}

// enrich resolves widget and assignee names with one query each.
func (s *LeadService) enrich(ctx context.Context, leads []models.Lead) ([]LeadView, error) {
	views := make([]LeadView, 0, len(leads))
	if len(leads) == 0 {
		return views, nil
	}

	widgetIDs := make([]uint, 0, len(leads))
	userIDs := make([]uint, 0, len(leads))
	for _, l := range leads {
		widgetIDs = append(widgetIDs, l.WidgetID)
		if l.AssignedTo != nil {
			userIDs = append(userIDs, *l.AssignedTo)
		}
	}

	var widgets []models.Widget
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", widgetIDs).Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("load widget names: %w", err)
	}
	widgetNames := make(map[uint]string, len(widgets))
	for _, w := range widgets {
		widgetNames[w.ID] = w.Name
	}

	userNames := map[uint]string{}
	if len(userIDs) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load assignee names: %w", err)
		}
		for _, u := range users {
			userNames[u.ID] = u.Name
		}
	}

	for _, l := range leads {
		view := LeadView{Lead: l}
		if name, ok := widgetNames[l.WidgetID]; ok {
			view.WidgetName = &name
		}
		if l.AssignedTo != nil {
			if name, ok := userNames[*l.AssignedTo]; ok {
				view.AssigneeName = &name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *LeadService) Get(ctx context.Context, actor Actor, id uint) (*LeadDetail, error) {
	lead, err := loadLead(ctx, s.db, actor, id)
	if err != nil {
		return nil, err
	}

	notes := []models.Note{}
	if err := s.db.WithContext(ctx).
		Where("lead_id = ?", lead.ID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return &LeadDetail{Lead: *lead, Notes: notes}, nil
}

// Update changes status and assignment. Any status may follow any other and
// concurrent updates are last-write-wins.
func (s *LeadService) Update(ctx context.Context, actor Actor, id uint, input LeadUpdate) (*models.Lead, error) {
	lead, err := loadLead(ctx, s.db, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, utils.NewValidationError("status", "Unknown lead status "+string(*input.Status))
		}
		updates["status"] = *input.Status
	}
	if input.AssignedTo.Set {
		if input.AssignedTo.Value == nil {
			updates["assigned_to"] = nil
		} else {
			if err := s.checkAssignee(ctx, actor, *input.AssignedTo.Value); err != nil {
				return nil, err
			}
			updates["assigned_to"] = *input.AssignedTo.Value
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", lead.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update lead: %w", err)
		}
	}

	var updated models.Lead
	if err := s.db.WithContext(ctx).First(&updated, lead.ID).Error; err != nil {
		return nil, fmt.Errorf("reload lead: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"lead_id":   updated.ID,
		"agency_id": updated.AgencyID,
		"actor_id":  actor.UserID,
		"status":    updated.Status,
	}).Info("Lead updated")

	s.notifier.Publish(updated.AgencyID, realtime.EventLeadUpdated, updated)
	s.notifier.Publish(updated.AgencyID, realtime.EventStatsUpdate, nil)
	return &updated, nil
}

func (s *LeadService) checkAssignee(ctx context.Context, actor Actor, userID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND agency_id = ?", userID, actor.AgencyID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check assignee: %w", err)
	}
	if count == 0 {
		return utils.NewValidationError("assignedTo", "Assignee must be a member of your agency")
	}
	return nil
}

// loadLead fetches a lead the actor may act on. Other agencies' leads are
// NotFound; a rep touching a lead not assigned to it is Forbidden.
func loadLead(ctx context.Context, db *gorm.DB, actor Actor, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := db.WithContext(ctx).First(&lead, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	if lead.AgencyID != actor.AgencyID {
		return nil, utils.NewNotFoundError("Lead not found")
	}
	if !actor.IsOwner() && (lead.AssignedTo == nil || *lead.AssignedTo != actor.UserID) {
		return nil, utils.NewForbiddenError("Access denied")
	}
	return &lead, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
