package models

import "time"

// Note is an append-only annotation on a lead
type Note struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	LeadID   uint   `gorm:"not null;index" json:"leadId"`
	AuthorID uint   `gorm:"not null" json:"authorId"`
	Content  string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"createdAt"`
}
