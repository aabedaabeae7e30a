package model

import "time"

// DateLayout is the storage and wire format of a journal date.
const DateLayout = "2006-01-02"

// DateKey converts t to the calendar date it falls on in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// JournalEntry is one journal page. A user may have several per day.
type JournalEntry struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index:idx_journal_owner_date,priority:1" json:"-"`
	Date              string    `gorm:"type:varchar(10);not null;index:idx_journal_owner_date,priority:2" json:"date"`
	Title             string    `gorm:"size:255" json:"title,omitempty"`
	Content           string    `gorm:"type:text" json:"contentText,omitempty"`
	ImageURLs         string    `gorm:"column:image_urls;type:text" json:"imageUrls,omitempty"`
	Weather           string    `gorm:"size:50" json:"weather,omitempty"`
	Mood              string    `gorm:"size:50" json:"mood,omitempty"`
	Activity          string    `gorm:"size:100" json:"activity,omitempty"`
	VoiceNoteURL      string    `gorm:"column:voice_note_url;size:500" json:"voiceNoteUrl,omitempty"`
	TotalFocusMinutes int       `gorm:"not null" json:"totalFocusMinutes"`
	Evaluation        string    `gorm:"type:text" json:"evaluation,omitempty"`
	Version           int64     `gorm:"not null" json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
