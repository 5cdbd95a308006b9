package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/repository"
	"github.com/nurpe/payments-service/internal/testdb"
)

func TestReportRepository_ListPaidJobsWindow(t *testing.T) {
	database := testdb.Open(t)
	repo := repository.NewReportRepository(database)
	ctx := context.Background()

	client := testdb.CreateProfile(t, database, model.ProfileRoleClient)
	contractor := testdb.CreateProfile(t, database, model.ProfileRoleContractor)
	contract := testdb.CreateContract(t, database, client.ID, contractor.ID)

	from := time.Date(2022, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC)

	inside := testdb.CreatePaidJob(t, database, contract.ID, 300, from)
	onUpperBound := testdb.CreatePaidJob(t, database, contract.ID, 400, to)
	testdb.CreatePaidJob(t, database, contract.ID, 500, from.Add(-time.Second))
	testdb.CreatePaidJob(t, database, contract.ID, 700, to.Add(time.Second))
	testdb.CreateJob(t, database, contract.ID, 600)

	rows, err := repo.ListPaidJobs(ctx, model.PaymentWindow{From: from, To: to, ToExclusive: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, inside.ID, rows[0].ID)
	assert.Equal(t, int64(300), rows[0].Price)
	assert.Equal(t, client.ID, rows[0].ClientID)
	assert.Equal(t, contractor.ID, rows[0].ContractorID)

	rows, err = repo.ListPaidJobs(ctx, model.PaymentWindow{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inside.ID, rows[0].ID)
	assert.Equal(t, onUpperBound.ID, rows[1].ID)
}

func TestReportRepository_ListProfilesByIDs(t *testing.T) {
	database := testdb.Open(t)
	repo := repository.NewReportRepository(database)
	ctx := context.Background()

	a := testdb.CreateProfile(t, database, model.ProfileRoleClient)
	b := testdb.CreateProfile(t, database, model.ProfileRoleContractor)
	testdb.CreateProfile(t, database, model.ProfileRoleContractor)

	profiles, err := repo.ListProfilesByIDs(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	profiles, err = repo.ListProfilesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}
