package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"asteritime/internal/model"
	"asteritime/internal/repository"
	"asteritime/internal/service"
)

var activeStatuses = []model.TaskStatus{model.StatusDoing, model.StatusTodo}

func listByStatus(status model.TaskStatus) repository.TaskFilter {
	return repository.TaskFilter{Status: &status}
}

// handleTasks lists DOING and TODO tasks with buttons that move them along
// the lifecycle.
func (b *Bot) handleTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, ok, err := b.linkedUser(ctx, msg.Chat.ID)
	if !ok {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton

	for _, status := range activeStatuses {
		tasks, err := b.tasks.ListTasks(ctx, user.ID, listByStatus(status))
		if err != nil {
			return b.sendError(chatID, err)
		}
		if len(tasks) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", status))
		for _, task := range tasks {
			builder.WriteString(fmt.Sprintf("• <b>#%d</b> Q%d %s\n", task.ID, task.Quadrant, escape(task.Title)))
			buttons = append(buttons, taskButtons(task))
		}
		builder.WriteByte('\n')
	}

	if len(buttons) == 0 {
		return b.sendText(chatID, "Nothing in progress or to do.")
	}

	msg := tgbotapi.NewMessage(chatID, "📋 <b>Tasks</b>\n\n"+strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	label := shortTitle(task.Title, 20)
	if task.Status == model.StatusTodo {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("▶️ #%d · %s", task.ID, label), fmt.Sprintf("%s%d", cbStartPrefix, task.ID)),
		)
	}
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, label), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
	)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack", zap.Error(err))
	}

	var (
		prefix string
		target model.TaskStatus
	)
	switch {
	case strings.HasPrefix(cb.Data, cbStartPrefix):
		prefix, target = cbStartPrefix, model.StatusDoing
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		prefix, target = cbDonePrefix, model.StatusDone
	default:
		return nil
	}
	taskID, err := parseTaskID(cb.Data, prefix)
	if err != nil {
		return nil
	}
	return b.moveTask(ctx, cb.Message.Chat.ID, taskID, target)
}

// moveTask changes the task status through the task service so the
// lifecycle rules and derived timestamps apply.
func (b *Bot) moveTask(ctx context.Context, chatID int64, taskID uint, target model.TaskStatus) error {
	user, ok, err := b.linkedUser(ctx, chatID)
	if !ok {
		return err
	}

	task, err := b.tasks.UpdateTask(ctx, user.ID, taskID, service.TaskPatch{Status: &target})
	if err != nil {
		return b.sendError(chatID, err)
	}
	b.logger.Info("task moved from chat",
		zap.Uint("user_id", user.ID),
		zap.Uint("task_id", task.ID),
		zap.String("status", string(task.Status)),
	)

	info := fmt.Sprintf("▶️ «%s» is in progress.", escape(task.Title))
	if task.Status == model.StatusDone {
		info = fmt.Sprintf("✅ «%s» is done.", escape(task.Title))
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
