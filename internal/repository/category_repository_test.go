package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteritime/internal/model"
)

func TestCategoryRepository_DuplicateNamePerOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")
	other := createUser(t, db, "b@example.com")

	require.NoError(t, repo.Create(ctx, &model.Category{UserID: owner.ID, Name: "work"}))
	require.NoError(t, repo.Create(ctx, &model.Category{UserID: other.ID, Name: "work"}))

	err := repo.Create(ctx, &model.Category{UserID: owner.ID, Name: "work"})
	assert.True(t, IsDuplicate(err))
}

func TestCategoryRepository_DeleteClearsTaskReferences(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")

	category := model.Category{UserID: owner.ID, Name: "work"}
	require.NoError(t, categories.Create(ctx, &category))
	task := model.Task{UserID: owner.ID, Title: "x", Quadrant: 1, Status: model.StatusTodo, CategoryID: &category.ID}
	require.NoError(t, tasks.Create(ctx, &task))

	deleted, err := categories.Delete(ctx, owner.ID, category.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	stored, err := tasks.FindByID(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)
	assert.Equal(t, int64(2), stored.Version)

	_, err = categories.FindByID(ctx, owner.ID, category.ID)
	assert.True(t, IsNotFound(err))
}

func TestCategoryRepository_DeleteForeignIsNoop(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")
	other := createUser(t, db, "b@example.com")
	category := model.Category{UserID: owner.ID, Name: "work"}
	require.NoError(t, categories.Create(ctx, &category))

	deleted, err := categories.Delete(ctx, other.ID, category.ID)

	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = categories.FindByID(ctx, owner.ID, category.ID)
	assert.NoError(t, err)
}

func TestRecurrenceRuleRepository_DeleteClearsTaskReferences(t *testing.T) {
	db := newTestDB(t)
	rules := NewRecurrenceRuleRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()
	owner := createUser(t, db, "a@example.com")

	rule := model.RecurrenceRule{UserID: owner.ID, FrequencyExpression: "0 9 * * MON"}
	require.NoError(t, rules.Create(ctx, &rule))
	task := model.Task{UserID: owner.ID, Title: "x", Quadrant: 2, Status: model.StatusTodo, RecurrenceRuleID: &rule.ID}
	require.NoError(t, tasks.Create(ctx, &task))

	deleted, err := rules.Delete(ctx, owner.ID, rule.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	stored, err := tasks.FindByID(ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RecurrenceRuleID)
}

func TestUserRepository_SetTelegramChatMovesLink(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	first := createUser(t, db, "a@example.com")
	second := createUser(t, db, "b@example.com")
	chatID := int64(4242)

	require.NoError(t, users.SetTelegramChat(ctx, first.ID, &chatID))
	require.NoError(t, users.SetTelegramChat(ctx, second.ID, &chatID))

	linked, err := users.FindByTelegramChatID(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, linked.ID)

	withChat, err := users.ListWithTelegram(ctx)
	require.NoError(t, err)
	require.Len(t, withChat, 1)
	assert.Equal(t, second.ID, withChat[0].ID)

	require.NoError(t, users.SetTelegramChat(ctx, second.ID, nil))
	_, err = users.FindByTelegramChatID(ctx, chatID)
	assert.True(t, IsNotFound(err))
}

func TestUserRepository_SetTelegramChatUnknownUser(t *testing.T) {
	db := newTestDB(t)
	chatID := int64(1)

	err := NewUserRepository(db).SetTelegramChat(context.Background(), 999, &chatID)

	assert.True(t, IsNotFound(err))
}
