package model

import "time"

// RecurrenceRule is a free-form frequency expression such as "1/day".
type RecurrenceRule struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              uint      `gorm:"not null;index:idx_user_rule_expr,unique" json:"-"`
	FrequencyExpression string    `gorm:"not null;size:191;index:idx_user_rule_expr,unique" json:"frequencyExpression"`
	Version             int64     `gorm:"not null" json:"version"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (RecurrenceRule) TableName() string { return "task_recurrence_rules" }
