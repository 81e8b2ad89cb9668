// Package testutil provides the database, fixtures and fakes shared by tests.
package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"leadcatcher/models"
	"leadcatcher/utils"
)

// Password is the plaintext password of every fixture user.
const Password = "password123"

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps SQLite from reporting locked tables
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Logger discards everything below panic level.
func Logger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// Tenant is an agency with one owner and one rep.
type Tenant struct {
	Agency models.Agency
	Owner  models.User
	Rep    models.User
}

// CreateTenant inserts an agency named name with users owner@<name>.test and rep@<name>.test.
func CreateTenant(t testing.TB, db *gorm.DB, name string) Tenant {
	t.Helper()

	hash, err := utils.HashPassword(Password)
	require.NoError(t, err)

	tenant := Tenant{Agency: models.Agency{Name: name}}
	require.NoError(t, db.Create(&tenant.Agency).Error)

	tenant.Owner = models.User{
		Email:        "owner@" + name + ".test",
		PasswordHash: hash,
		Name:         name + " Owner",
		Role:         models.RoleOwner,
		AgencyID:     tenant.Agency.ID,
	}
	require.NoError(t, db.Create(&tenant.Owner).Error)

	tenant.Rep = models.User{
		Email:        "rep@" + name + ".test",
		PasswordHash: hash,
		Name:         name + " Rep",
		Role:         models.RoleRep,
		AgencyID:     tenant.Agency.ID,
	}
	require.NoError(t, db.Create(&tenant.Rep).Error)
	return tenant
}

// CreateWidget inserts a contact form owned by agencyID.
func CreateWidget(t testing.TB, db *gorm.DB, agencyID uint, name string) models.Widget {
	t.Helper()
	w := models.Widget{
		AgencyID: agencyID,
		Name:     name,
		Fields: []models.WidgetField{
			{Key: "name", Label: "Name", Type: models.FieldText, Required: true},
			{Key: "email", Label: "Email", Type: models.FieldEmail, Required: true},
		},
		PrimaryColor: "#000000",
	}
	require.NoError(t, db.Create(&w).Error)
	return w
}

// CreateLead inserts a lead for widget w.
func CreateLead(t testing.TB, db *gorm.DB, w models.Widget, name string, status models.LeadStatus, assignedTo *uint) models.Lead {
	t.Helper()
	lead := models.Lead{
		AgencyID:      w.AgencyID,
		WidgetID:      w.ID,
		Name:          &name,
		FormResponses: map[string]interface{}{"name": name},
		Status:        status,
		AssignedTo:    assignedTo,
	}
	require.NoError(t, db.Create(&lead).Error)
	return lead
}

// Event is one call recorded by RecordingNotifier.
type Event struct {
	AgencyID uint
	Name     string
	Payload  interface{}
}

type RecordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *RecordingNotifier) Publish(agencyID uint, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{AgencyID: agencyID, Name: event, Payload: payload})
}

func (n *RecordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// Names lists the recorded event names in order.
func (n *RecordingNotifier) Names() []string {
	var names []string
	for _, e := range n.Events() {
		names = append(names, e.Name)
	}
	return names
}

type SentMail struct {
	To    string
	Token string
}

// FakeMailer records reset mails and fails with Err when set.
type FakeMailer struct {
	mu   sync.Mutex
	sent []SentMail
	Err  error
}

func (m *FakeMailer) SendPasswordResetEmail(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{To: to, Token: token})
	return nil
}

func (m *FakeMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}
