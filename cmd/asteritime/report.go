package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"asteritime/internal/bot"
)

func reportCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's summary for today, or send it to every linked chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			if email != "" {
				user, err := a.users.ByEmail(ctx, email)
				if err != nil {
					return err
				}
				text, err := a.reminders.DailySummary(ctx, *user, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			if a.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required to send reports")
			}
			revoker, err := a.revoker(ctx)
			if err != nil {
				return err
			}
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
				return err
			}
			if err := telegramBot.SendDailyReports(ctx); err != nil {
				return fmt.Errorf("send reports: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "print the summary of this user instead of sending it")
	return cmd
}
