package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asteritime/internal/model"
)

func TestReminderService_DailySummary(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	ctx := context.Background()
	tasks := f.taskService(journalDay)
	journal := f.journalService(journalDay)
	reminders := NewReminderService(f.tasks, f.categories, f.journal)

	work := model.Category{UserID: owner.ID, Name: "Work"}
	require.NoError(t, f.categories.Create(ctx, &work))

	morning := time.Date(2025, 12, 6, 9, 0, 0, 0, time.UTC)
	tomorrow := morning.AddDate(0, 0, 1)
	drafts := []TaskDraft{
		{Title: "Write <report>", Quadrant: 1, Status: model.StatusTodo, CategoryID: &work.ID, PlannedStart: &morning},
		{Title: "Ongoing", Quadrant: 2, Status: model.StatusDoing},
		{Title: "Tomorrow", Quadrant: 3, Status: model.StatusTodo, PlannedStart: &tomorrow},
	}
	for _, d := range drafts {
		_, err := tasks.CreateTask(ctx, owner.ID, d)
		require.NoError(t, err)
	}
	_, err := journal.AddFocusMinutes(ctx, owner.ID, journalDay, 45)
	require.NoError(t, err)
	_, err = journal.UpsertEvaluation(ctx, owner.ID, journalDay, "productive")
	require.NoError(t, err)

	text, err := reminders.DailySummary(ctx, *owner, journalDay)
	require.NoError(t, err)

	assert.Contains(t, text, "Write &lt;report&gt;")
	assert.Contains(t, text, "<i>(Work)</i>")
	assert.Contains(t, text, "09:00")
	assert.Contains(t, text, "Ongoing")
	assert.NotContains(t, text, "Tomorrow")
	assert.Contains(t, text, "Focus time: 45 min")
	assert.Contains(t, text, "productive")
	assert.Less(t, strings.Index(text, "Urgent &amp; important"), strings.Index(text, "Important, not urgent"))
}

func TestReminderService_EmptyDay(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@example.com")
	reminders := NewReminderService(f.tasks, f.categories, f.journal)

	text, err := reminders.DailySummary(context.Background(), *owner, journalDay)

	require.NoError(t, err)
	assert.Contains(t, text, "nothing planned for today")
	assert.Contains(t, text, "Focus time: 0 min")
}

func TestMergeTasksDropsDuplicates(t *testing.T) {
	a := model.Task{ID: 1}
	b := model.Task{ID: 2}

	merged := mergeTasks([]model.Task{a, b}, []model.Task{b})

	assert.Len(t, merged, 2)
}
