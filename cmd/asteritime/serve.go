package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"asteritime/internal/api"
	"asteritime/internal/auth"
	"asteritime/internal/bot"
	"asteritime/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API, the report scheduler and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	revoker, err := a.revoker(ctx)
	if err != nil {
		return err
	}
	server := api.NewServer(api.Deps{
		Users:      a.users,
		Tasks:      a.tasks,
		Categories: a.categories,
		Rules:      a.rules,
		Journal:    a.journal,
		Tokens:     a.tokens,
		Revoker:    revoker,
		Logger:     a.logger,
	})
	httpServer := &http.Server{
		Addr:              ":" + a.cfg.ServerPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.TelegramToken != "" {
		if err := startBot(ctx, a, revoker); err != nil {
			return err
		}
	} else {
		a.logger.Info("TELEGRAM_TOKEN not set, bot and daily reports disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}

// startBot runs the bot polling loop and the report schedule until ctx ends.
func startBot(ctx context.Context, a *app, revoker auth.Revoker) error {
	telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Deps{
		Users:     a.users,
		Tasks:     a.tasks,
		Journal:   a.journal,
		Reminders: a.reminders,
		Tokens:    a.tokens,
		Revoker:   revoker,
		Logger:    a.logger,
		Location:  time.Local,
	})
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(time.Local, a.logger)
	if interval := a.cfg.ReportInterval(); interval > 0 {
		_, err = scheduler.ScheduleInterval(interval, "daily_report", telegramBot.SendDailyReports)
	} else {
		_, err = scheduler.ScheduleDaily(a.cfg.ReportTime, "daily_report", telegramBot.SendDailyReports)
	}
	if err != nil {
		return fmt.Errorf("schedule reports: %w", err)
	}
	scheduler.Start()

	go func() {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("bot stopped with error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()
	return nil
}
