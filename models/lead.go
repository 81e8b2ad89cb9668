package models

import (
	"time"

	"gorm.io/datatypes"
)

// LeadStatus is a flat enum; any status may follow any other.
type LeadStatus string

const (
	StatusNew        LeadStatus = "new"
	StatusContacted  LeadStatus = "contacted"
	StatusQualified  LeadStatus = "qualified"
	StatusConverted  LeadStatus = "converted"
	StatusClosedLost LeadStatus = "closed_lost"
)

// LeadStatuses lists every status in pipeline order.
var LeadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusClosedLost,
}

// Valid reports whether s is one of LeadStatuses.
func (s LeadStatus) Valid() bool {
	for _, st := range LeadStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Lead represents a captured form submission.
// WidgetID is deliberately not a foreign key: deleting a widget keeps its leads.
type Lead struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	AgencyID uint `gorm:"not null;index" json:"agencyId"`
	WidgetID uint `gorm:"not null;index" json:"widgetId"`

	// Contact details lifted out of FormResponses for filtering
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`

	FormResponses datatypes.JSONMap `gorm:"not null" json:"formResponses"`

	Status     LeadStatus `gorm:"type:varchar(32);not null;default:'new';index" json:"status"`
	AssignedTo *uint      `gorm:"index" json:"assignedTo"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
