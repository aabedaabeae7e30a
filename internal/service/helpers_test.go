package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

type fixture struct {
	db         *gorm.DB
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	rules      *repository.RecurrenceRuleRepository
	tasks      *repository.TaskRepository
	journal    *repository.JournalRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &fixture{
		db:         db,
		users:      repository.NewUserRepository(db),
		categories: repository.NewCategoryRepository(db),
		rules:      repository.NewRecurrenceRuleRepository(db),
		tasks:      repository.NewTaskRepository(db),
		journal:    repository.NewJournalRepository(db),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Username: email, Email: email, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) taskService(now time.Time) *TaskService {
	s := NewTaskService(f.tasks, f.categories, f.rules, zap.NewNop())
	s.retry.delay = 0
	s.now = func() time.Time { return now }
	return s
}

func (f *fixture) journalService(now time.Time) *JournalService {
	s := NewJournalService(f.journal, zap.NewNop())
	s.retry.delay = 0
	s.now = func() time.Time { return now }
	return s
}
