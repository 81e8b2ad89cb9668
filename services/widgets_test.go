package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadcatcher/models"
	"leadcatcher/testutil"
	"leadcatcher/utils"
)

func contactFields() []models.WidgetField {
	return []models.WidgetField{
		{Key: "name", Label: "Name", Type: models.FieldText, Required: true},
		{Key: "budget", Label: "Budget", Type: models.FieldDropdown, Options: []string{"<1k", "1k-5k"}},
	}
}

func TestWidgetCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewWidgetService(db, testutil.Logger())
	ctx := context.Background()
	acme := testutil.CreateTenant(t, db, "acme")
	actor := ActorFromUser(&acme.Owner)

	created, err := svc.Create(ctx, actor, WidgetInput{Name: " Contact ", Fields: contactFields()})
	require.NoError(t, err)
	assert.Equal(t, "Contact", created.Name)
	assert.Equal(t, "#000000", created.PrimaryColor)
	assert.Nil(t, created.HeadingText)
	assert.Len(t, created.Fields, 2)

	heading := "Say hi"
	updated, err := svc.Update(ctx, actor, created.ID, WidgetUpdate{
		PrimaryColor: utils.Pointer("#ff0000"),
		HeadingText:  Some(heading),
	})
	require.NoError(t, err)
	assert.Equal(t, "Contact", updated.Name)
	assert.Equal(t, "#ff0000", updated.PrimaryColor)
	require.NotNil(t, updated.HeadingText)
	assert.Equal(t, heading, *updated.HeadingText)
	assert.Len(t, updated.Fields, 2)

	cleared, err := svc.Update(ctx, actor, created.ID, WidgetUpdate{HeadingText: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.HeadingText)

	second, err := svc.Create(ctx, actor, WidgetInput{Name: "Second", PrimaryColor: "#0f172a"})
	require.NoError(t, err)

	list, err := svc.List(ctx, actor)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	require.NoError(t, svc.Delete(ctx, actor, created.ID))
	_, err = svc.Get(ctx, actor, created.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestWidgetTenantIsolation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewWidgetService(db, testutil.Logger())
	ctx := context.Background()
	acme := testutil.CreateTenant(t, db, "acme")
	globex := testutil.CreateTenant(t, db, "globex")
	w := testutil.CreateWidget(t, db, acme.Agency.ID, "Acme form")
	intruder := ActorFromUser(&globex.Owner)

	_, err := svc.Get(ctx, intruder, w.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	_, err = svc.Update(ctx, intruder, w.ID, WidgetUpdate{Name: utils.Pointer("Hijacked")})
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	err = svc.Delete(ctx, intruder, w.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	list, err := svc.List(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the public lookup has no tenant
	public, err := svc.GetPublic(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme form", public.Name)
}

func TestWidgetFieldValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewWidgetService(db, testutil.Logger())
	acme := testutil.CreateTenant(t, db, "acme")
	actor := ActorFromUser(&acme.Owner)

	tests := []struct {
		name  string
		input WidgetInput
		field string
	}{
		{"missing name", WidgetInput{Name: " "}, "name"},
		{"bad colour", WidgetInput{Name: "W", PrimaryColor: "red"}, "primaryColor"},
		{"unknown type", WidgetInput{Name: "W", Fields: []models.WidgetField{{Key: "a", Label: "A", Type: "slider"}}}, "fields[0].type"},
		{"missing label", WidgetInput{Name: "W", Fields: []models.WidgetField{{Key: "a", Type: models.FieldText}}}, "fields[0].label"},
		{"choice without options", WidgetInput{Name: "W", Fields: []models.WidgetField{{Key: "a", Label: "A", Type: models.FieldRadio}}}, "fields[0].options"},
		{"duplicate key", WidgetInput{Name: "W", Fields: []models.WidgetField{
			{Key: "a", Label: "A", Type: models.FieldText},
			{Key: "a", Label: "B", Type: models.FieldEmail},
		}}, "fields[1].key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), actor, tt.input)
			require.Error(t, err)
			appErr, ok := err.(*utils.AppError)
			require.True(t, ok)
			assert.Equal(t, utils.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestWidgetDeleteKeepsLeads(t *testing.T) {
	db := testutil.NewDB(t)
	widgets := NewWidgetService(db, testutil.Logger())
	leads := NewLeadService(db, &testutil.RecordingNotifier{}, testutil.Logger())
	ctx := context.Background()
	acme := testutil.CreateTenant(t, db, "acme")
	owner := ActorFromUser(&acme.Owner)

	w := testutil.CreateWidget(t, db, acme.Agency.ID, "Doomed")
	lead := testutil.CreateLead(t, db, w, "Orphan", models.StatusNew, nil)

	require.NoError(t, widgets.Delete(ctx, owner, w.ID))

	list, err := leads.List(ctx, owner, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lead.ID, list[0].ID)
	assert.Equal(t, w.ID, list[0].WidgetID)
	assert.Nil(t, list[0].WidgetName)
}
