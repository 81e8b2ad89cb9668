package models

import "time"

// Agency is the tenant. Every other record is scoped to exactly one agency.
type Agency struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
