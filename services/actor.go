// Package services holds the tenant-scoped business operations. Every
// operation on tenant data takes an explicit Actor.
package services

import (
	"leadcatcher/models"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   uint
	AgencyID uint
	Role     models.Role
}

func ActorFromUser(u *models.User) Actor {
	return Actor{UserID: u.ID, AgencyID: u.AgencyID, Role: u.Role}
}

func (a Actor) IsOwner() bool {
	return a.Role == models.RoleOwner
}
