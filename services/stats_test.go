package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadcatcher/models"
	"leadcatcher/testutil"
)

func TestStatsConsistency(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(db)
	acme := testutil.CreateTenant(t, db, "acme")
	globex := testutil.CreateTenant(t, db, "globex")

	formA := testutil.CreateWidget(t, db, acme.Agency.ID, "A")
	formB := testutil.CreateWidget(t, db, acme.Agency.ID, "B")
	other := testutil.CreateWidget(t, db, globex.Agency.ID, "G")

	statuses := []models.LeadStatus{
		models.StatusNew, models.StatusNew, models.StatusContacted,
		models.StatusConverted, models.StatusClosedLost, models.StatusNew, models.StatusQualified,
	}
	var last models.Lead
	for i, status := range statuses {
		form := formA
		if i%3 == 0 {
			form = formB
		}
		last = testutil.CreateLead(t, db, form, fmt.Sprintf("lead-%d", i), status, nil)
	}
	testutil.CreateLead(t, db, other, "foreign", models.StatusNew, nil)

	stats, err := svc.Stats(context.Background(), ActorFromUser(&acme.Owner), 0)
	require.NoError(t, err)

	assert.Equal(t, int64(len(statuses)), stats.TotalLeads)
	assert.Equal(t, 30, stats.WindowDays)

	var byStatus, byWidget int64
	for _, status := range models.LeadStatuses {
		n, ok := stats.LeadsByStatus[status]
		assert.True(t, ok, "bucket %s present", status)
		byStatus += n
	}
	for _, n := range stats.LeadsByWidget {
		byWidget += n
	}
	assert.Equal(t, stats.TotalLeads, byStatus)
	assert.Equal(t, stats.TotalLeads, byWidget)
	assert.Equal(t, int64(3), stats.LeadsByStatus[models.StatusNew])
	assert.Equal(t, int64(3), stats.LeadsByWidget[strconv.Itoa(int(formB.ID))])

	require.Len(t, stats.RecentLeads, 5)
	assert.Equal(t, last.ID, stats.RecentLeads[0].ID)
	for _, l := range stats.RecentLeads {
		assert.Equal(t, acme.Agency.ID, l.AgencyID)
	}
}

func TestStatsEmptyTenantAndRepScope(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStatsService(db)
	acme := testutil.CreateTenant(t, db, "acme")

	stats, err := svc.Stats(context.Background(), ActorFromUser(&acme.Owner), 7)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalLeads)
	assert.Len(t, stats.LeadsByStatus, len(models.LeadStatuses))
	assert.Empty(t, stats.LeadsByWidget)
	assert.NotNil(t, stats.RecentLeads)
	assert.Equal(t, 7, stats.WindowDays)

	form := testutil.CreateWidget(t, db, acme.Agency.ID, "A")
	testutil.CreateLead(t, db, form, "mine", models.StatusNew, &acme.Rep.ID)
	testutil.CreateLead(t, db, form, "not mine", models.StatusNew, nil)

	stats, err = svc.Stats(context.Background(), ActorFromUser(&acme.Rep), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalLeads)
	require.Len(t, stats.RecentLeads, 1)
	assert.Equal(t, "mine", *stats.RecentLeads[0].Name)
}
