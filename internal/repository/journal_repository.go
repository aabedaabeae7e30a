package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"asteritime/internal/model"
)

// JournalRepository handles CRUD for journal entries.
type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(ctx context.Context, entry *model.JournalEntry) error {
	if entry.Version == 0 {
		entry.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create journal entry: %w", err)
	}
	return nil
}

func (r *JournalRepository) FindByID(ctx context.Context, userID, id uint) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByDate returns the owner's entries for date, earliest created first.
func (r *JournalRepository) ListByDate(ctx context.Context, userID uint, date string) ([]model.JournalEntry, error) {
	entries := []model.JournalEntry{}
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries by date: %w", err)
	}
	return entries, nil
}

// Earliest returns the first created entry of the day, or gorm.ErrRecordNotFound.
func (r *JournalRepository) Earliest(ctx context.Context, userID uint, date string) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC, id ASC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByUser returns all of the owner's entries, newest date first.
func (r *JournalRepository) ListByUser(ctx context.Context, userID uint) ([]model.JournalEntry, error) {
	entries := []model.JournalEntry{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date DESC, created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// ListByDateRange returns entries with from <= date <= to, newest date first.
func (r *JournalRepository) ListByDateRange(ctx context.Context, userID uint, from, to string) ([]model.JournalEntry, error) {
	entries := []model.JournalEntry{}
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("date DESC, created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list journal entries by range: %w", err)
	}
	return entries, nil
}

// SumFocusMinutes adds up total_focus_minutes over every entry of the day.
func (r *JournalRepository) SumFocusMinutes(ctx context.Context, userID uint, date string) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Select("COALESCE(SUM(total_focus_minutes), 0)").
		Where("user_id = ? AND date = ?", userID, date).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum focus minutes: %w", err)
	}
	return int(total), nil
}

// UpdateVersioned writes entry if the stored row still has entry.Version.
func (r *JournalRepository) UpdateVersioned(ctx context.Context, entry *model.JournalEntry) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("id = ? AND user_id = ? AND version = ?", entry.ID, entry.UserID, entry.Version).
		Updates(map[string]interface{}{
			"date":                entry.Date,
			"title":               entry.Title,
			"content":             entry.Content,
			"image_urls":          entry.ImageURLs,
			"weather":             entry.Weather,
			"mood":                entry.Mood,
			"activity":            entry.Activity,
			"voice_note_url":      entry.VoiceNoteURL,
			"total_focus_minutes": entry.TotalFocusMinutes,
			"evaluation":          entry.Evaluation,
			"version":             entry.Version + 1,
			"updated_at":          now,
		})
	if res.Error != nil {
		return fmt.Errorf("update journal entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	entry.Version++
	entry.UpdatedAt = now
	return nil
}

// Delete removes an entry of the owner. It reports false when nothing matched.
func (r *JournalRepository) Delete(ctx context.Context, userID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.JournalEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("delete journal entry: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
