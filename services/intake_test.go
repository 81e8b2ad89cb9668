package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadcatcher/models"
	"leadcatcher/ratelimit"
	"leadcatcher/realtime"
	"leadcatcher/testutil"
	"leadcatcher/utils"
)

type intakeFixture struct {
	svc      *IntakeService
	notifier *testutil.RecordingNotifier
	tenant   testutil.Tenant
	form     models.Widget
	now      time.Time
}

func newIntakeFixture(t *testing.T) *intakeFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &intakeFixture{
		notifier: &testutil.RecordingNotifier{},
		tenant:   testutil.CreateTenant(t, db, "acme"),
		now:      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.form = testutil.CreateWidget(t, db, f.tenant.Agency.ID, "Contact")

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), 10, time.Hour).
		WithClock(func() time.Time { return f.now })
	f.svc = NewIntakeService(db, limiter, f.notifier, testutil.Logger())
	return f
}

func (f *intakeFixture) countLeads(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.svc.db.Model(&models.Lead{}).Count(&n).Error)
	return n
}

func TestSubmitCreatesLead(t *testing.T) {
	f := newIntakeFixture(t)

	lead, err := f.svc.Submit(context.Background(), "10.0.0.1", Submission{
		WidgetID: f.form.ID,
		FormResponses: map[string]interface{}{
			"Name":    "Dana",
			"email":   "dana@example.com",
			"phone":   5551234,
			"message": "hello",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, lead)

	assert.Equal(t, f.tenant.Agency.ID, lead.AgencyID)
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.Nil(t, lead.AssignedTo)
	require.NotNil(t, lead.Name)
	require.NotNil(t, lead.Email)
	assert.Equal(t, "Dana", *lead.Name)
	assert.Equal(t, "dana@example.com", *lead.Email)
	assert.Nil(t, lead.Phone, "non-string values are not lifted")
	assert.Equal(t, "hello", lead.FormResponses["message"])

	assert.Equal(t, []string{realtime.EventLeadNew, realtime.EventStatsUpdate}, f.notifier.Names())
}

func TestSubmitHoneypot(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		lead, err := f.svc.Submit(ctx, "10.0.0.1", Submission{
			WidgetID:      f.form.ID,
			FormResponses: map[string]interface{}{"name": "bot"},
			Honeypot:      "http://spam.example",
		})
		require.NoError(t, err)
		assert.Nil(t, lead)
	}
	assert.Zero(t, f.countLeads(t))
	assert.Empty(t, f.notifier.Events())

	// bot traffic did not use up the allowance
	lead, err := f.svc.Submit(ctx, "10.0.0.1", Submission{WidgetID: f.form.ID, FormResponses: map[string]interface{}{}})
	require.NoError(t, err)
	assert.NotNil(t, lead)
}

func TestSubmitRateLimitBoundary(t *testing.T) {
	f := newIntakeFixture(t)
	ctx := context.Background()
	sub := Submission{WidgetID: f.form.ID, FormResponses: map[string]interface{}{"name": "x"}}

	for i := 0; i < 10; i++ {
		_, err := f.svc.Submit(ctx, "10.0.0.1", sub)
		require.NoError(t, err, "submission %d", i+1)
		f.now = f.now.Add(time.Second)
	}

	_, err := f.svc.Submit(ctx, "10.0.0.1", sub)
	assert.Equal(t, utils.KindTooManyRequests, utils.KindOf(err))
	assert.Equal(t, int64(10), f.countLeads(t))

	// another client is unaffected
	_, err = f.svc.Submit(ctx, "10.0.0.2", sub)
	assert.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.svc.Submit(ctx, "10.0.0.1", sub)
	assert.NoError(t, err)
}

func TestSubmitUnknownWidget(t *testing.T) {
	f := newIntakeFixture(t)

	_, err := f.svc.Submit(context.Background(), "10.0.0.1", Submission{WidgetID: 4242, FormResponses: map[string]interface{}{}})
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
	assert.Zero(t, f.countLeads(t))
	assert.Empty(t, f.notifier.Events())
}

func TestSubmitValidation(t *testing.T) {
	f := newIntakeFixture(t)

	_, err := f.svc.Submit(context.Background(), "10.0.0.1", Submission{FormResponses: map[string]interface{}{}})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = f.svc.Submit(context.Background(), "10.0.0.1", Submission{WidgetID: f.form.ID})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}
