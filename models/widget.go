package models

import (
	"time"

	"gorm.io/datatypes"
)

// FieldType is the input kind of a widget field. The set is closed.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldEmail      FieldType = "email"
	FieldPhone      FieldType = "phone"
	FieldTextarea   FieldType = "textarea"
	FieldDropdown   FieldType = "dropdown"
	FieldRadio      FieldType = "radio"
	FieldCheckbox   FieldType = "checkbox"
	FieldDate       FieldType = "date"
	FieldNumber     FieldType = "number"
	FieldFileUpload FieldType = "file_upload"
)

// FieldTypes lists every recognised field type in builder order.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldDropdown,
	FieldRadio, FieldCheckbox, FieldDate, FieldNumber, FieldFileUpload,
}

// Valid reports whether t is one of FieldTypes.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// IsChoice reports whether the field picks from a fixed option list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldDropdown, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// WidgetField is one entry of a widget's ordered field list
type WidgetField struct {
	Key      string    `json:"key" validate:"required,max=64"`
	Label    string    `json:"label" validate:"required,max=200"`
	Type     FieldType `json:"type" validate:"required"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty" validate:"omitempty,dive,required,max=200"`
}

// Widget is an embeddable lead-capture form definition
type Widget struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	AgencyID uint `gorm:"not null;index" json:"agencyId"`

	Name         string                           `gorm:"not null" json:"name"`
	Fields       datatypes.JSONSlice[WidgetField] `gorm:"not null" json:"fields"`
	PrimaryColor string                           `gorm:"default:'#000000'" json:"primaryColor"`
	HeadingText  *string                          `json:"headingText"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
