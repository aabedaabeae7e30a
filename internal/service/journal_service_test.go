package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

var journalDay = time.Date(2025, 12, 6, 14, 30, 0, 0, time.UTC)

func TestJournalService_AddFocusMinutesAccumulates(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	entry, err := s.AddFocusMinutes(ctx, owner.ID, journalDay, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, entry.TotalFocusMinutes)
	assert.Equal(t, "2025-12-06", entry.Date)

	again, err := s.AddFocusMinutes(ctx, owner.ID, journalDay, 25)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID)
	assert.Equal(t, 50, again.TotalFocusMinutes)

	entries, err := s.ListByDate(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJournalService_AddFocusMinutesTargetsEarliestEntry(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	first, err := s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay, Title: "morning", TotalFocusMinutes: 10})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay, Title: "evening", TotalFocusMinutes: 5})
	require.NoError(t, err)

	entry, err := s.AddFocusMinutes(ctx, owner.ID, journalDay, 30)
	require.NoError(t, err)

	assert.Equal(t, first.ID, entry.ID)
	assert.Equal(t, 40, entry.TotalFocusMinutes)
}

func TestJournalService_AddFocusMinutesRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	s := f.journalService(journalDay)

	for _, minutes := range []int{0, -5} {
		_, err := s.AddFocusMinutes(context.Background(), owner.ID, journalDay, minutes)
		assert.ErrorIs(t, err, ErrValidation)
	}

	total, err := s.TotalFocusMinutes(context.Background(), owner.ID, journalDay)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestJournalService_TotalFocusMinutesSumsAllEntries(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	other := f.user(t, "b@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	total, err := s.TotalFocusMinutes(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Zero(t, total)

	for _, minutes := range []int{10, 20, 0} {
		_, err := s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay, TotalFocusMinutes: minutes})
		require.NoError(t, err)
	}
	_, err = s.CreateEntry(ctx, other.ID, JournalDraft{Date: journalDay, TotalFocusMinutes: 99})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay.AddDate(0, 0, 1), TotalFocusMinutes: 7})
	require.NoError(t, err)

	total, err = s.TotalFocusMinutes(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Equal(t, 30, total)
}

func TestJournalService_GetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	first, err := s.GetOrCreate(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Zero(t, first.TotalFocusMinutes)
	assert.Empty(t, first.Title)

	second, err := s.GetOrCreate(ctx, owner.ID, journalDay.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestJournalService_UpsertEvaluation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	entry, err := s.UpsertEvaluation(ctx, owner.ID, journalDay, "  good day ")
	require.NoError(t, err)
	assert.Equal(t, "good day", entry.Evaluation)

	evaluation, err := s.Evaluation(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, evaluation.ID)
	assert.Equal(t, "good day", evaluation.Evaluation)

	cleared, err := s.UpsertEvaluation(ctx, owner.ID, journalDay, "")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, cleared.ID)
	assert.Empty(t, cleared.Evaluation)
}

func TestJournalService_EvaluationPrefersEntryWithText(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	_, err := s.Evaluation(ctx, owner.ID, journalDay)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay})
	require.NoError(t, err)
	rated, err := s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay, Evaluation: "calm"})
	require.NoError(t, err)

	evaluation, err := s.Evaluation(ctx, owner.ID, journalDay)
	require.NoError(t, err)
	assert.Equal(t, rated.ID, evaluation.ID)
}

func TestJournalService_CreateAndUpdateEntry(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	intruder := f.user(t, "b@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	_, err := s.CreateEntry(ctx, owner.ID, JournalDraft{TotalFocusMinutes: -1})
	assert.ErrorIs(t, err, ErrValidation)

	entry, err := s.CreateEntry(ctx, owner.ID, JournalDraft{Title: "walk", Mood: "happy"})
	require.NoError(t, err)
	assert.Equal(t, "2025-12-06", entry.Date)

	updated, err := s.UpdateEntry(ctx, owner.ID, entry.ID, JournalPatch{
		Content: strPtr(" park "),
		Mood:    strPtr(""),
		Version: &entry.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "walk", updated.Title)
	assert.Equal(t, "park", updated.Content)
	assert.Empty(t, updated.Mood)
	assert.Equal(t, int64(2), updated.Version)

	stale := int64(1)
	_, err = s.UpdateEntry(ctx, owner.ID, entry.ID, JournalPatch{Title: strPtr("x"), Version: &stale})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateEntry(ctx, intruder.ID, entry.ID, JournalPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := s.DeleteEntry(ctx, intruder.ID, entry.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteEntry(ctx, owner.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestJournalService_ListByDateRange(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	s := f.journalService(journalDay)

	for offset := -2; offset <= 2; offset++ {
		_, err := s.CreateEntry(ctx, owner.ID, JournalDraft{Date: journalDay.AddDate(0, 0, offset)})
		require.NoError(t, err)
	}

	entries, err := s.ListByDateRange(ctx, owner.ID, journalDay.AddDate(0, 0, -1), journalDay)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = s.ListByDateRange(ctx, owner.ID, journalDay, journalDay.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrValidation)
}

// racingJournalStore fails the first staleWrites versioned updates as if a
// concurrent writer added minutes first.
type racingJournalStore struct {
	repository.JournalRepository

	mu          sync.Mutex
	entry       *model.JournalEntry
	staleWrites int
	writes      int
}

func (s *racingJournalStore) Earliest(context.Context, uint, string) (*model.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *s.entry
	return &e, nil
}

func (s *racingJournalStore) UpdateVersioned(_ context.Context, entry *model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.staleWrites > 0 {
		s.staleWrites--
		s.entry.TotalFocusMinutes += 5
		s.entry.Version++
		return repository.ErrStaleVersion
	}
	entry.Version++
	s.entry = entry
	return nil
}

func TestJournalService_AddFocusMinutesRetries(t *testing.T) {
	store := &racingJournalStore{
		entry:       &model.JournalEntry{ID: 1, UserID: 1, Date: "2025-12-06", TotalFocusMinutes: 10, Version: 1},
		staleWrites: 1,
	}
	s := NewJournalService(store, zap.NewNop())
	s.retry.delay = 0

	entry, err := s.AddFocusMinutes(context.Background(), 1, journalDay, 25)

	require.NoError(t, err)
	assert.Equal(t, 40, entry.TotalFocusMinutes)
	assert.Equal(t, 2, store.writes)
}

func TestJournalService_AddFocusMinutesConflict(t *testing.T) {
	store := &racingJournalStore{
		entry:       &model.JournalEntry{ID: 1, UserID: 1, Date: "2025-12-06", Version: 1},
		staleWrites: MaxWriteAttempts,
	}
	s := NewJournalService(store, zap.NewNop())
	s.retry.delay = 0

	_, err := s.AddFocusMinutes(context.Background(), 1, journalDay, 25)

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, MaxWriteAttempts, store.writes)
}
