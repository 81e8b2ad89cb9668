package models

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Agency{},
		&User{},
		&Widget{},
		&Lead{},
		&Note{},
	)
}

// SeedDemoData populates an empty database with a demo agency, an owner, a rep,
// one widget and two leads. passwordHash is used for both demo users.
// It does nothing when any user already exists.
func SeedDemoData(db *gorm.DB, passwordHash string) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		agency := Agency{Name: "Demo Agency"}
		if err := tx.Create(&agency).Error; err != nil {
			return fmt.Errorf("create agency: %w", err)
		}

		owner := User{
			Email:        "demo@leadcatcher.com",
			PasswordHash: passwordHash,
			Name:         "Jane Doe",
			Role:         RoleOwner,
			AgencyID:     agency.ID,
		}
		rep := User{
			Email:        "rep@leadcatcher.com",
			PasswordHash: passwordHash,
			Name:         "John Smith",
			Role:         RoleRep,
			AgencyID:     agency.ID,
		}
		for _, u := range []*User{&owner, &rep} {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
		}

		heading := "Get in touch with us"
		widget := Widget{
			AgencyID: agency.ID,
			Name:     "Contact Us Form",
			Fields: []WidgetField{
				{Key: "name", Label: "Full Name", Type: FieldText, Required: true},
				{Key: "email", Label: "Email Address", Type: FieldEmail, Required: true},
				{Key: "message", Label: "Message", Type: FieldTextarea, Required: true},
			},
			PrimaryColor: "#0f172a",
			HeadingText:  &heading,
		}
		if err := tx.Create(&widget).Error; err != nil {
			return fmt.Errorf("create widget: %w", err)
		}

		leads := []Lead{
			{
				AgencyID: agency.ID,
				WidgetID: widget.ID,
				Name:     strPtr("Alice Johnson"),
				Email:    strPtr("alice@example.com"),
				FormResponses: map[string]interface{}{
					"name":    "Alice Johnson",
					"email":   "alice@example.com",
					"message": "Interested in your services.",
				},
				Status: StatusNew,
			},
			{
				AgencyID: agency.ID,
				WidgetID: widget.ID,
				Name:     strPtr("Bob Williams"),
				Email:    strPtr("bob@example.com"),
				FormResponses: map[string]interface{}{
					"name":    "Bob Williams",
					"email":   "bob@example.com",
					"message": "Can you send pricing?",
				},
				Status:     StatusContacted,
				AssignedTo: &rep.ID,
			},
		}
		return tx.Create(&leads).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func strPtr(s string) *string {
	return &s
}
