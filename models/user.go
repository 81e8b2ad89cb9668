package models

import (
	"time"
)

// Role is the tenant role of a user.
type Role string

const (
	RoleOwner Role = "owner"
	RoleRep   Role = "rep"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleRep
}

// User represents a team member of an agency
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password;not null" json:"-"`

	// Profile information
	Name string `gorm:"not null" json:"name"`

	// Tenant membership
	Role     Role `gorm:"type:varchar(16);not null;default:'owner'" json:"role"`
	AgencyID uint `gorm:"not null;index" json:"agencyId"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsOwner reports whether the user has full access within its agency.
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}
