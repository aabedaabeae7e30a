package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

// JournalStore is the persistence the journal service needs.
type JournalStore interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	FindByID(ctx context.Context, userID, id uint) (*model.JournalEntry, error)
	Earliest(ctx context.Context, userID uint, date string) (*model.JournalEntry, error)
	ListByDate(ctx context.Context, userID uint, date string) ([]model.JournalEntry, error)
	ListByUser(ctx context.Context, userID uint) ([]model.JournalEntry, error)
	ListByDateRange(ctx context.Context, userID uint, from, to string) ([]model.JournalEntry, error)
	SumFocusMinutes(ctx context.Context, userID uint, date string) (int, error)
	UpdateVersioned(ctx context.Context, entry *model.JournalEntry) error
	Delete(ctx context.Context, userID, id uint) (bool, error)
}

// JournalDraft is the content of a new entry. A zero Date means today.
type JournalDraft struct {
	Date              time.Time
	Title             string
	Content           string
	ImageURLs         string
	Weather           string
	Mood              string
	Activity          string
	VoiceNoteURL      string
	Evaluation        string
	TotalFocusMinutes int
}

// JournalPatch is a sparse entry update. Text fields are trimmed and an
// empty result clears the field; nil leaves it unchanged.
type JournalPatch struct {
	Date              *time.Time
	Title             *string
	Content           *string
	ImageURLs         *string
	Weather           *string
	Mood              *string
	Activity          *string
	VoiceNoteURL      *string
	Evaluation        *string
	TotalFocusMinutes *int
	Version           *int64
}

// JournalService keeps the daily journal and the focus-minute tally fed by
// the pomodoro timer.
type JournalService struct {
	entries JournalStore
	logger  *zap.Logger
	retry   retrier
	now     func() time.Time
}

func NewJournalService(entries JournalStore, logger *zap.Logger) *JournalService {
	return &JournalService{
		entries: entries,
		logger:  logger,
		retry:   newRetrier(logger),
		now:     time.Now,
	}
}

// Today is the current calendar date in the server's location.
func (s *JournalService) Today() time.Time {
	return s.now()
}

func (s *JournalService) CreateEntry(ctx context.Context, owner uint, draft JournalDraft) (*model.JournalEntry, error) {
	if draft.TotalFocusMinutes < 0 {
		return nil, validationf("focus minutes cannot be negative")
	}
	date := draft.Date
	if date.IsZero() {
		date = s.now()
	}
	entry := model.JournalEntry{
		UserID:            owner,
		Date:              model.DateKey(date),
		Title:             strings.TrimSpace(draft.Title),
		Content:           strings.TrimSpace(draft.Content),
		ImageURLs:         strings.TrimSpace(draft.ImageURLs),
		Weather:           strings.TrimSpace(draft.Weather),
		Mood:              strings.TrimSpace(draft.Mood),
		Activity:          strings.TrimSpace(draft.Activity),
		VoiceNoteURL:      strings.TrimSpace(draft.VoiceNoteURL),
		Evaluation:        strings.TrimSpace(draft.Evaluation),
		TotalFocusMinutes: draft.TotalFocusMinutes,
	}
	if err := s.entries.Create(ctx, &entry); err != nil {
		return nil, storeErr("create journal entry", err)
	}
	return &entry, nil
}

func (s *JournalService) GetEntry(ctx context.Context, owner, id uint) (*model.JournalEntry, error) {
	entry, err := s.entries.FindByID(ctx, owner, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get journal entry %d", id), err)
	}
	return entry, nil
}

func (s *JournalService) ListEntries(ctx context.Context, owner uint) ([]model.JournalEntry, error) {
	entries, err := s.entries.ListByUser(ctx, owner)
	return entries, storeErr("list journal entries", err)
}

// ListByDate returns the day's entries, earliest first.
func (s *JournalService) ListByDate(ctx context.Context, owner uint, date time.Time) ([]model.JournalEntry, error) {
	entries, err := s.entries.ListByDate(ctx, owner, model.DateKey(date))
	return entries, storeErr("list journal entries by date", err)
}

func (s *JournalService) ListByDateRange(ctx context.Context, owner uint, from, to time.Time) ([]model.JournalEntry, error) {
	fromKey, toKey := model.DateKey(from), model.DateKey(to)
	if fromKey > toKey {
		return nil, validationf("start date %s is after end date %s", fromKey, toKey)
	}
	entries, err := s.entries.ListByDateRange(ctx, owner, fromKey, toKey)
	return entries, storeErr("list journal entries by range", err)
}

// UpdateEntry merges patch into the owner's entry under the optimistic
// version check, retrying on concurrent writes.
func (s *JournalService) UpdateEntry(ctx context.Context, owner, id uint, patch JournalPatch) (*model.JournalEntry, error) {
	if patch.TotalFocusMinutes != nil && *patch.TotalFocusMinutes < 0 {
		return nil, validationf("focus minutes cannot be negative")
	}

	var updated *model.JournalEntry
	err := s.retry.run(ctx, "journal_entry", func(ctx context.Context) error {
		entry, err := s.entries.FindByID(ctx, owner, id)
		if err != nil {
			return storeErr(fmt.Sprintf("update journal entry %d", id), err)
		}
		if patch.Version != nil && *patch.Version != entry.Version {
			return fmt.Errorf("update journal entry %d: %w: version %d is stale, current is %d",
				id, ErrConflict, *patch.Version, entry.Version)
		}
		applyJournalPatch(entry, patch)
		if err := s.save(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, s.conflict(fmt.Sprintf("update journal entry %d", id), err)
	}
	return updated, nil
}

func applyJournalPatch(e *model.JournalEntry, p JournalPatch) {
	setText := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setText(&e.Title, p.Title)
	setText(&e.Content, p.Content)
	setText(&e.ImageURLs, p.ImageURLs)
	setText(&e.Weather, p.Weather)
	setText(&e.Mood, p.Mood)
	setText(&e.Activity, p.Activity)
	setText(&e.VoiceNoteURL, p.VoiceNoteURL)
	setText(&e.Evaluation, p.Evaluation)
	if p.Date != nil {
		e.Date = model.DateKey(*p.Date)
	}
	if p.TotalFocusMinutes != nil {
		e.TotalFocusMinutes = *p.TotalFocusMinutes
	}
}

func (s *JournalService) DeleteEntry(ctx context.Context, owner, id uint) (bool, error) {
	deleted, err := s.entries.Delete(ctx, owner, id)
	if err != nil {
		return false, storeErr(fmt.Sprintf("delete journal entry %d", id), err)
	}
	return deleted, nil
}

// GetOrCreate returns the earliest entry of the day, creating an empty one
// with zero focus minutes when the day has none.
func (s *JournalService) GetOrCreate(ctx context.Context, owner uint, date time.Time) (*model.JournalEntry, error) {
	key := model.DateKey(date)
	entry, err := s.entries.Earliest(ctx, owner, key)
	switch {
	case err == nil:
		return entry, nil
	case repository.IsNotFound(err):
		entry = &model.JournalEntry{UserID: owner, Date: key}
		if err := s.entries.Create(ctx, entry); err != nil {
			return nil, storeErr("create journal entry", err)
		}
		return entry, nil
	default:
		return nil, storeErr("find journal entry", err)
	}
}

// AddFocusMinutes adds minutes to the earliest entry of the day, or creates
// an entry carrying only the date and the minutes.
func (s *JournalService) AddFocusMinutes(ctx context.Context, owner uint, date time.Time, minutes int) (*model.JournalEntry, error) {
	if minutes <= 0 {
		return nil, validationf("focus minutes must be positive, got %d", minutes)
	}
	key := model.DateKey(date)

	var result *model.JournalEntry
	err := s.retry.run(ctx, "journal_entry", func(ctx context.Context) error {
		entry, err := s.entries.Earliest(ctx, owner, key)
		if repository.IsNotFound(err) {
			// Two first calls of a day can both land here and create one entry
			// each. TotalFocusMinutes sums every entry of the day and later
			// calls accumulate onto the earliest one.
			entry = &model.JournalEntry{UserID: owner, Date: key, TotalFocusMinutes: minutes}
			if err := s.entries.Create(ctx, entry); err != nil {
				return storeErr("create journal entry", err)
			}
			result = entry
			return nil
		}
		if err != nil {
			return storeErr("find journal entry", err)
		}
		entry.TotalFocusMinutes += minutes
		if err := s.save(ctx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, s.conflict("add focus minutes", err)
	}
	s.logger.Debug("focus minutes added",
		zap.Uint("user_id", owner),
		zap.String("date", key),
		zap.Int("minutes", minutes),
		zap.Int("total", result.TotalFocusMinutes),
	)
	return result, nil
}

// TotalFocusMinutes sums the minutes of every entry of the day.
func (s *JournalService) TotalFocusMinutes(ctx context.Context, owner uint, date time.Time) (int, error) {
	total, err := s.entries.SumFocusMinutes(ctx, owner, model.DateKey(date))
	if err != nil {
		return 0, storeErr("total focus minutes", err)
	}
	return total, nil
}

// UpsertEvaluation overwrites the evaluation of the day's earliest entry,
// creating the entry if needed. An empty text clears the evaluation.
func (s *JournalService) UpsertEvaluation(ctx context.Context, owner uint, date time.Time, text string) (*model.JournalEntry, error) {
	var result *model.JournalEntry
	err := s.retry.run(ctx, "journal_entry", func(ctx context.Context) error {
		entry, err := s.GetOrCreate(ctx, owner, date)
		if err != nil {
			return err
		}
		entry.Evaluation = strings.TrimSpace(text)
		if err := s.save(ctx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, s.conflict("upsert evaluation", err)
	}
	return result, nil
}

// Evaluation returns the first entry of the day that has an evaluation, or
// the earliest entry when none has one.
func (s *JournalService) Evaluation(ctx context.Context, owner uint, date time.Time) (*model.JournalEntry, error) {
	entries, err := s.entries.ListByDate(ctx, owner, model.DateKey(date))
	if err != nil {
		return nil, storeErr("find evaluation", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("evaluation for %s: %w", model.DateKey(date), ErrNotFound)
	}
	for i := range entries {
		if entries[i].Evaluation != "" {
			return &entries[i], nil
		}
	}
	return &entries[0], nil
}

// save writes entry, passing a stale version through untouched for retrier.
func (s *JournalService) save(ctx context.Context, entry *model.JournalEntry) error {
	err := s.entries.UpdateVersioned(ctx, entry)
	if err == nil || errors.Is(err, repository.ErrStaleVersion) {
		return err
	}
	return storeErr("update journal entry", err)
}

func (s *JournalService) conflict(op string, err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return err
}
