package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"asteritime/internal/model"
)

// RecurrenceRuleRepository manages task recurrence rules.
type RecurrenceRuleRepository struct {
	db *gorm.DB
}

func NewRecurrenceRuleRepository(db *gorm.DB) *RecurrenceRuleRepository {
	return &RecurrenceRuleRepository{db: db}
}

func (r *RecurrenceRuleRepository) Create(ctx context.Context, rule *model.RecurrenceRule) error {
	if rule.Version == 0 {
		rule.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create recurrence rule: %w", err)
	}
	return nil
}

func (r *RecurrenceRuleRepository) ListByUser(ctx context.Context, userID uint) ([]model.RecurrenceRule, error) {
	rules := []model.RecurrenceRule{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RecurrenceRuleRepository) FindByID(ctx context.Context, userID, id uint) (*model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RecurrenceRuleRepository) FindByExpression(ctx context.Context, userID uint, expr string) (*model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	if err := r.db.WithContext(ctx).Where("user_id = ? AND frequency_expression = ?", userID, expr).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// Delete removes the rule and clears it from the owner's tasks.
func (r *RecurrenceRuleRepository) Delete(ctx context.Context, userID, id uint) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearTaskReference(tx, userID, "recurrence_rule_id", id); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&model.RecurrenceRule{})
		if res.Error != nil {
			return fmt.Errorf("delete recurrence rule: %w", res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
