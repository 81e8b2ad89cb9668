package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"leadcatcher/models"
	"leadcatcher/utils"
)

const defaultPrimaryColor = "#000000"

type WidgetInput struct {
	Name         string               `json:"name" validate:"required,max=200"`
	Fields       []models.WidgetField `json:"fields"`
	PrimaryColor string               `json:"primaryColor" validate:"omitempty,hexcolor"`
	HeadingText  *string              `json:"headingText"`
}

// WidgetUpdate is a partial update; nil fields are left untouched.
type WidgetUpdate struct {
	Name         *string               `json:"name" validate:"omitnil,max=200"`
	Fields       *[]models.WidgetField `json:"fields"`
	PrimaryColor *string               `json:"primaryColor" validate:"omitnil,hexcolor"`
	HeadingText  Optional[string]      `json:"headingText"`
}

type WidgetService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewWidgetService(db *gorm.DB, log *logrus.Entry) *WidgetService {
	return &WidgetService{db: db, log: log}
}

func (s *WidgetService) List(ctx context.Context, actor Actor) ([]models.Widget, error) {
	widgets := []models.Widget{}
	if err := s.db.WithContext(ctx).
		Where("agency_id = ?", actor.AgencyID).
		Order("created_at DESC, id DESC").
		Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	return widgets, nil
}

// Get returns NotFound for widgets of other agencies.
func (s *WidgetService) Get(ctx context.Context, actor Actor, id uint) (*models.Widget, error) {
	widget, err := s.GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}
	if widget.AgencyID != actor.AgencyID {
		return nil, utils.NewNotFoundError("Widget not found")
	}
	return widget, nil
}

// GetPublic looks a widget up without a tenant check, for the embed renderer.
func (s *WidgetService) GetPublic(ctx context.Context, id uint) (*models.Widget, error) {
	var widget models.Widget
	err := s.db.WithContext(ctx).First(&widget, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Widget not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find widget: %w", err)
	}
	return &widget, nil
}

func (s *WidgetService) Create(ctx context.Context, actor Actor, input WidgetInput) (*models.Widget, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	fields, err := normalizeFields(input.Fields)
	if err != nil {
		return nil, err
	}

	widget := models.Widget{
		AgencyID:     actor.AgencyID,
		Name:         input.Name,
		Fields:       fields,
		PrimaryColor: input.PrimaryColor,
		HeadingText:  input.HeadingText,
	}
	if widget.PrimaryColor == "" {
		widget.PrimaryColor = defaultPrimaryColor
	}

	if err := s.db.WithContext(ctx).Create(&widget).Error; err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"widget_id": widget.ID,
		"agency_id": actor.AgencyID,
	}).Info("Widget created")
	return &widget, nil
}

func (s *WidgetService) Update(ctx context.Context, actor Actor, id uint, input WidgetUpdate) (*models.Widget, error) {
	widget, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "name is required")
		}
		updates["name"] = name
	}
	if input.Fields != nil {
		fields, err := normalizeFields(*input.Fields)
		if err != nil {
			return nil, err
		}
		updates["fields"] = fields
	}
	if input.PrimaryColor != nil {
		updates["primary_color"] = *input.PrimaryColor
	}
	if input.HeadingText.Set {
		updates["heading_text"] = input.HeadingText.Value
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(widget).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update widget: %w", err)
		}
	}
	return s.Get(ctx, actor, id)
}

// Delete removes the widget only. Its leads stay and keep the dangling widget id.
func (s *WidgetService) Delete(ctx context.Context, actor Actor, id uint) error {
	widget, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(widget).Error; err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"widget_id": id,
		"agency_id": actor.AgencyID,
	}).Info("Widget deleted")
	return nil
}

// normalizeFields trims keys and labels, then checks types, options and key uniqueness.
func normalizeFields(fields []models.WidgetField) (datatypes.JSONSlice[models.WidgetField], error) {
	out := make(datatypes.JSONSlice[models.WidgetField], 0, len(fields))
	seen := make(map[string]bool, len(fields))

	for i, f := range fields {
		path := fmt.Sprintf("fields[%d]", i)
		f.Key = strings.TrimSpace(f.Key)
		f.Label = strings.TrimSpace(f.Label)

		if err := utils.ValidateStruct(f); err != nil {
			var appErr *utils.AppError
			if errors.As(err, &appErr) {
				return nil, utils.NewValidationError(path+"."+appErr.Field, path+": "+appErr.Message)
			}
			return nil, err
		}
		if !f.Type.Valid() {
			return nil, utils.NewValidationError(path+".type", fmt.Sprintf("%s: unknown field type %q", path, f.Type))
		}
		if f.Type.IsChoice() {
			if len(f.Options) == 0 {
				return nil, utils.NewValidationError(path+".options", path+": "+string(f.Type)+" fields need at least one option")
			}
		} else {
			f.Options = nil
		}
		if seen[f.Key] {
			return nil, utils.NewValidationError(path+".key", fmt.Sprintf("%s: duplicate field key %q", path, f.Key))
		}
		seen[f.Key] = true
		out = append(out, f)
	}
	return out, nil
}
