package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteritime/internal/model"
)

func TestJournalRepository_EarliestAndSum(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")
	other := createUser(t, db, "b@example.com")

	first := model.JournalEntry{UserID: owner.ID, Date: "2025-12-06", Title: "morning", TotalFocusMinutes: 25}
	second := model.JournalEntry{UserID: owner.ID, Date: "2025-12-06", Title: "evening", TotalFocusMinutes: 50}
	foreign := model.JournalEntry{UserID: other.ID, Date: "2025-12-06", TotalFocusMinutes: 100}
	for _, e := range []*model.JournalEntry{&first, &second, &foreign} {
		require.NoError(t, repo.Create(ctx, e))
	}

	earliest, err := repo.Earliest(ctx, owner.ID, "2025-12-06")
	require.NoError(t, err)
	assert.Equal(t, first.ID, earliest.ID)

	total, err := repo.SumFocusMinutes(ctx, owner.ID, "2025-12-06")
	require.NoError(t, err)
	assert.Equal(t, 75, total)

	total, err = repo.SumFocusMinutes(ctx, owner.ID, "2025-12-07")
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = repo.Earliest(ctx, owner.ID, "2025-12-07")
	assert.True(t, IsNotFound(err))
}

func TestJournalRepository_ListByDateRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")

	for _, date := range []string{"2025-12-01", "2025-12-05", "2025-12-06", "2025-12-10"} {
		require.NoError(t, repo.Create(ctx, &model.JournalEntry{UserID: owner.ID, Date: date}))
	}

	entries, err := repo.ListByDateRange(ctx, owner.ID, "2025-12-05", "2025-12-06")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "2025-12-06", entries[0].Date)
	assert.Equal(t, "2025-12-05", entries[1].Date)
}

func TestJournalRepository_UpdateVersionedRejectsStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")
	entry := model.JournalEntry{UserID: owner.ID, Date: "2025-12-06"}
	require.NoError(t, repo.Create(ctx, &entry))

	stale := entry
	entry.TotalFocusMinutes = 25
	require.NoError(t, repo.UpdateVersioned(ctx, &entry))

	stale.TotalFocusMinutes = 50
	assert.ErrorIs(t, repo.UpdateVersioned(ctx, &stale), ErrStaleVersion)

	stored, err := repo.FindByID(ctx, owner.ID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.TotalFocusMinutes)
}
