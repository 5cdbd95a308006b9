// Package testdb opens throwaway sqlite ledgers and seeds them with
// profiles, contracts and jobs for tests.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nurpe/payments-service/internal/db"
	"github.com/nurpe/payments-service/internal/model"
)

// DefaultBalance matches the balance every seeded profile starts with.
const DefaultBalance int64 = 1150

// Open returns a migrated in-memory database private to the test. The pool is
// pinned to one connection so the in-memory schema is shared by every query.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	database, err := db.Open(sqlite.Open("file::memory:?_foreign_keys=on"), false)
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

type ProfileOption func(*model.Profile)

func WithProfession(profession string) ProfileOption {
	return func(p *model.Profile) { p.Profession = profession }
}

func WithBalance(balance int64) ProfileOption {
	return func(p *model.Profile) { p.Balance = balance }
}

func CreateProfile(t testing.TB, database *gorm.DB, role model.ProfileRole, opts ...ProfileOption) model.Profile {
	t.Helper()

	profile := model.Profile{
		FirstName:  fmt.Sprintf("Harry %s", role),
		LastName:   fmt.Sprintf("Potter %s", role),
		Profession: "Programmer",
		Balance:    DefaultBalance,
		Role:       role,
	}
	for _, opt := range opts {
		opt(&profile)
	}
	require.NoError(t, database.Create(&profile).Error)
	return profile
}

func CreateContract(t testing.TB, database *gorm.DB, clientID, contractorID int64) model.Contract {
	t.Helper()

	contract := model.Contract{
		Terms:        "bla bla bla",
		Status:       model.ContractStatusInProgress,
		ClientID:     clientID,
		ContractorID: contractorID,
	}
	require.NoError(t, database.Create(&contract).Error)
	return contract
}

func CreateJob(t testing.TB, database *gorm.DB, contractID, price int64) model.Job {
	t.Helper()

	job := model.Job{
		Description: "work",
		Price:       price,
		ContractID:  contractID,
	}
	require.NoError(t, database.Create(&job).Error)
	return job
}

func CreatePaidJob(t testing.TB, database *gorm.DB, contractID, price int64, paidAt time.Time) model.Job {
	t.Helper()

	at := paidAt.UTC()
	job := model.Job{
		Description: "work",
		Price:       price,
		Paid:        true,
		PaidAt:      &at,
		ContractID:  contractID,
	}
	require.NoError(t, database.Create(&job).Error)
	return job
}

func ReloadProfile(t testing.TB, database *gorm.DB, id int64) model.Profile {
	t.Helper()

	var profile model.Profile
	require.NoError(t, database.First(&profile, id).Error)
	return profile
}

func ReloadJob(t testing.TB, database *gorm.DB, id int64) model.Job {
	t.Helper()

	var job model.Job
	require.NoError(t, database.First(&job, id).Error)
	return job
}
