package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"leadcatcher/models"
	"leadcatcher/realtime"
	"leadcatcher/testutil"
	"leadcatcher/utils"
)

type leadFixture struct {
	db       *gorm.DB
	svc      *LeadService
	notifier *testutil.RecordingNotifier
	acme     testutil.Tenant
	globex   testutil.Tenant
	form     models.Widget
	assigned models.Lead
	open     models.Lead
	foreign  models.Lead
}

func newLeadFixture(t *testing.T) *leadFixture {
	t.Helper()
	db := testutil.NewDB(t)
	notifier := &testutil.RecordingNotifier{}
	f := &leadFixture{
		db:       db,
		svc:      NewLeadService(db, notifier, testutil.Logger()),
		notifier: notifier,
		acme:     testutil.CreateTenant(t, db, "acme"),
		globex:   testutil.CreateTenant(t, db, "globex"),
	}
	f.form = testutil.CreateWidget(t, db, f.acme.Agency.ID, "Acme contact")
	f.assigned = testutil.CreateLead(t, db, f.form, "Alice Johnson", models.StatusContacted, &f.acme.Rep.ID)
	f.open = testutil.CreateLead(t, db, f.form, "Bob Williams", models.StatusNew, nil)

	globexForm := testutil.CreateWidget(t, db, f.globex.Agency.ID, "Globex contact")
	f.foreign = testutil.CreateLead(t, db, globexForm, "Carol", models.StatusNew, nil)
	return f
}

func leadIDs(views []LeadView) []uint {
	ids := make([]uint, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestLeadListTenantIsolation(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	acmeLeads, err := f.svc.List(ctx, ActorFromUser(&f.acme.Owner), LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.open.ID, f.assigned.ID}, leadIDs(acmeLeads), "newest first")

	globexLeads, err := f.svc.List(ctx, ActorFromUser(&f.globex.Owner), LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.foreign.ID}, leadIDs(globexLeads))

	for _, actor := range []Actor{ActorFromUser(&f.globex.Owner), ActorFromUser(&f.globex.Rep)} {
		_, err = f.svc.Get(ctx, actor, f.assigned.ID)
		assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

		_, err = f.svc.Update(ctx, actor, f.assigned.ID, LeadUpdate{Status: statusPtr(models.StatusClosedLost)})
		assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
	}
	assert.Empty(t, f.notifier.Events())
}

func TestLeadListRepScoping(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()
	rep := ActorFromUser(&f.acme.Rep)

	views, err := f.svc.List(ctx, rep, LeadFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.assigned.ID}, leadIDs(views))

	_, err = f.svc.Get(ctx, rep, f.open.ID)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	detail, err := f.svc.Get(ctx, rep, f.assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, f.assigned.ID, detail.ID)
	assert.Empty(t, detail.Notes)
}

func TestLeadListEnrichmentAndFilters(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()
	owner := ActorFromUser(&f.acme.Owner)

	views, err := f.svc.List(ctx, owner, LeadFilter{Status: "contacted"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].WidgetName)
	require.NotNil(t, views[0].AssigneeName)
	assert.Equal(t, "Acme contact", *views[0].WidgetName)
	assert.Equal(t, f.acme.Rep.Name, *views[0].AssigneeName)

	views, err = f.svc.List(ctx, owner, LeadFilter{Search: "BOB"})
	require.NoError(t, err)
	assert.Equal(t, []uint{f.open.ID}, leadIDs(views))
	assert.Nil(t, views[0].AssigneeName)

	views, err = f.svc.List(ctx, owner, LeadFilter{Status: "all", Search: "%"})
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = f.svc.List(ctx, owner, LeadFilter{Status: "won"})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestLeadViewJSON(t *testing.T) {
	f := newLeadFixture(t)
	views, err := f.svc.List(context.Background(), ActorFromUser(&f.acme.Rep), LeadFilter{})
	require.NoError(t, err)

	raw, err := json.Marshal(views[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Alice Johnson", decoded["name"])
	assert.Equal(t, "contacted", decoded["status"])
	assert.Equal(t, "Acme contact", decoded["widgetName"])
	assert.Contains(t, decoded, "formResponses")
}

func TestLeadStatusTransitionsAreFree(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()
	owner := ActorFromUser(&f.acme.Owner)

	sequence := []models.LeadStatus{
		models.StatusConverted, models.StatusNew, models.StatusClosedLost,
		models.StatusQualified, models.StatusContacted, models.StatusNew,
	}
	for _, status := range sequence {
		lead, err := f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{Status: statusPtr(status)})
		require.NoError(t, err)
		assert.Equal(t, status, lead.Status)
	}

	_, err := f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{Status: statusPtr("won")})
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestLeadUpdateEmitsEvents(t *testing.T) {
	f := newLeadFixture(t)
	_, err := f.svc.Update(context.Background(), ActorFromUser(&f.acme.Rep), f.assigned.ID,
		LeadUpdate{Status: statusPtr(models.StatusQualified)})
	require.NoError(t, err)

	assert.Equal(t, []string{realtime.EventLeadUpdated, realtime.EventStatsUpdate}, f.notifier.Names())
	for _, e := range f.notifier.Events() {
		assert.Equal(t, f.acme.Agency.ID, e.AgencyID)
	}
}

func TestLeadAssignment(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()
	owner := ActorFromUser(&f.acme.Owner)

	lead, err := f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{AssignedTo: Some(f.acme.Rep.ID)})
	require.NoError(t, err)
	require.NotNil(t, lead.AssignedTo)
	assert.Equal(t, f.acme.Rep.ID, *lead.AssignedTo)

	// a status-only update leaves the assignee alone
	lead, err = f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{Status: statusPtr(models.StatusQualified)})
	require.NoError(t, err)
	require.NotNil(t, lead.AssignedTo)

	lead, err = f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{AssignedTo: Null[uint]()})
	require.NoError(t, err)
	assert.Nil(t, lead.AssignedTo)

	_, err = f.svc.Update(ctx, owner, f.open.ID, LeadUpdate{AssignedTo: Some(f.globex.Rep.ID)})
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Equal(t, "assignedTo", appErr.Field)
}

func TestLeadUpdateDecodesNullAssignee(t *testing.T) {
	var update LeadUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"assignedTo": null}`), &update))
	assert.True(t, update.AssignedTo.Set)
	assert.Nil(t, update.AssignedTo.Value)
	assert.Nil(t, update.Status)

	update = LeadUpdate{}
	require.NoError(t, json.Unmarshal([]byte(`{"status": "converted"}`), &update))
	assert.False(t, update.AssignedTo.Set)
	require.NotNil(t, update.Status)
	assert.Equal(t, models.StatusConverted, *update.Status)
}

func statusPtr(s models.LeadStatus) *models.LeadStatus {
	return &s
}
