package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

var quadrantTitles = map[int]string{
	1: "🔥 <b>Urgent &amp; important</b>",
	2: "🎯 <b>Important, not urgent</b>",
	3: "📨 <b>Urgent, not important</b>",
	4: "🧺 <b>Neither</b>",
}

var statusIcons = map[model.TaskStatus]string{
	model.StatusTodo:   "⬜",
	model.StatusDoing:  "🔄",
	model.StatusDone:   "✅",
	model.StatusDelay:  "⏳",
	model.StatusCancel: "✖️",
}

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	journalRepo  *repository.JournalRepository
}

func NewReminderService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, journalRepo *repository.JournalRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo, categoryRepo: categoryRepo, journalRepo: journalRepo}
}

// DailySummary lists the tasks planned for the day of now together with
// every task in progress, grouped by quadrant, followed by the day's focus
// minutes and evaluation.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := dayStart.UTC()
	to := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC()

	planned, err := s.taskRepo.List(ctx, user.ID, repository.TaskFilter{PlannedFrom: &from, PlannedTo: &to})
	if err != nil {
		return "", storeErr("daily summary", err)
	}
	doing, err := s.taskRepo.ListByStatus(ctx, user.ID, model.StatusDoing)
	if err != nil {
		return "", storeErr("daily summary", err)
	}
	tasks := mergeTasks(planned, doing)

	categories, err := s.categoryRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", storeErr("daily summary", err)
	}
	catNames := make(map[uint]string)
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	dateKey := model.DateKey(now)
	minutes, err := s.journalRepo.SumFocusMinutes(ctx, user.ID, dateKey)
	if err != nil {
		return "", storeErr("daily summary", err)
	}
	entries, err := s.journalRepo.ListByDate(ctx, user.ID, dateKey)
	if err != nil {
		return "", storeErr("daily summary", err)
	}

	return renderSummary(user, now, tasks, catNames, minutes, entries), nil
}

func renderSummary(user model.User, now time.Time, tasks []model.Task, catNames map[uint]string, minutes int, entries []model.JournalEntry) string {
	byQuadrant := make(map[int][]model.Task)
	for _, task := range tasks {
		byQuadrant[task.Quadrant] = append(byQuadrant[task.Quadrant], task)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Daily report for %s</b>\n", html.EscapeString(user.Username)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(tasks) == 0 {
		builder.WriteString("— nothing planned for today\n")
	}
	for q := model.MinQuadrant; q <= model.MaxQuadrant; q++ {
		group := byQuadrant[q]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return plannedBefore(group[i], group[j])
		})
		builder.WriteString(quadrantTitles[q])
		builder.WriteByte('\n')
		for _, task := range group {
			builder.WriteString(formatTask(task, catNames, now.Location()))
		}
		builder.WriteByte('\n')
	}

	builder.WriteString(fmt.Sprintf("⏱ Focus time: %d min\n", minutes))
	for _, entry := range entries {
		if entry.Evaluation != "" {
			builder.WriteString(fmt.Sprintf("📝 %s\n", html.EscapeString(entry.Evaluation)))
			break
		}
	}

	return strings.TrimSpace(builder.String())
}

// mergeTasks concatenates lists dropping repeated ids.
func mergeTasks(lists ...[]model.Task) []model.Task {
	seen := make(map[uint]bool)
	var out []model.Task
	for _, list := range lists {
		for _, task := range list {
			if seen[task.ID] {
				continue
			}
			seen[task.ID] = true
			out = append(out, task)
		}
	}
	return out
}

func plannedBefore(a, b model.Task) bool {
	switch {
	case a.PlannedStart == nil && b.PlannedStart == nil:
		return a.CreatedAt.Before(b.CreatedAt)
	case a.PlannedStart == nil:
		return false
	case b.PlannedStart == nil:
		return true
	default:
		return a.PlannedStart.Before(*b.PlannedStart)
	}
}

func formatTask(task model.Task, catNames map[uint]string, loc *time.Location) string {
	var sb strings.Builder

	icon, ok := statusIcons[task.Status]
	if !ok {
		icon = "•"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.CategoryID != nil {
		if name := strings.TrimSpace(catNames[*task.CategoryID]); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}

	if task.PlannedStart != nil {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", task.PlannedStart.In(loc).Format("15:04")))
		if task.PlannedEnd != nil {
			sb.WriteString(fmt.Sprintf("–%s", task.PlannedEnd.In(loc).Format("15:04")))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}
