package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"plotlines.app/internal/ports"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), Config())
	require.NoError(t, err)

	// every pooled connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = RunMigrations(db)
	require.NoError(t, err)

	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func createSubscriber(t *testing.T, db *gorm.DB, email, station, author string, active, confirmed bool) *ports.SubscriberData {
	sub := &ports.SubscriberData{
		Email:       email,
		City:        "Boulder",
		State:       "CO",
		StationCode: station,
		AuthorKey:   author,
		Active:      active,
	}
	if confirmed {
		confirmedAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
		sub.ConfirmedAt = &confirmedAt
	}
	require.NoError(t, NewSubscriberRepositoryAdapter(db).Save(context.Background(), sub))
	return sub
}
