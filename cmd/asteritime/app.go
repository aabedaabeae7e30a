package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asteritime/internal/auth"
	"asteritime/internal/config"
	"asteritime/internal/repository"
	"asteritime/internal/service"
)

// app holds everything the subcommands share.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *gorm.DB

	users      *service.UserService
	tasks      *service.TaskService
	categories *service.CategoryService
	rules      *service.RecurrenceRuleService
	journal    *service.JournalService
	reminders  *service.ReminderService
	tokens     *auth.TokenManager

	redis *redis.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ruleRepo := repository.NewRecurrenceRuleRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	journalRepo := repository.NewJournalRepository(db)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		users:      service.NewUserService(userRepo, logger),
		tasks:      service.NewTaskService(taskRepo, categoryRepo, ruleRepo, logger),
		categories: service.NewCategoryService(categoryRepo),
		rules:      service.NewRecurrenceRuleService(ruleRepo),
		journal:    service.NewJournalService(journalRepo, logger),
		reminders:  service.NewReminderService(taskRepo, categoryRepo, journalRepo),
		tokens:     auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration),
	}, nil
}

// revoker uses Redis when REDIS_ADDR is set, otherwise an in-process store.
func (a *app) revoker(ctx context.Context) (auth.Revoker, error) {
	if a.cfg.RedisAddr == "" {
		a.logger.Warn("REDIS_ADDR not set, token revocation is kept in memory")
		return auth.NewMemoryRevoker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	a.redis = client
	return auth.NewRedisRevoker(client), nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
