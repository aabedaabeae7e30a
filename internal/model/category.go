package model

import "time"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_category_name,unique" json:"-"`
	Name      string    `gorm:"not null;size:191;index:idx_user_category_name,unique" json:"name"`
	Version   int64     `gorm:"not null" json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the GORM default ("categories").
func (Category) TableName() string { return "task_categories" }
