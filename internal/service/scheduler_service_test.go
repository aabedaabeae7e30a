package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"21:00", "0 0 21 * * *", false},
		{" 07:30 ", "0 30 7 * * *", false},
		{"0:05", "0 5 0 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spec, err := buildDailySpec(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func TestSchedulerService_Schedule(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	job := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("21:00", "report", job)
	require.NoError(t, err)
	_, err = s.ScheduleInterval(2*time.Hour, "report", job)
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)

	_, err = s.ScheduleInterval(0, "report", job)
	assert.Error(t, err)
	_, err = s.ScheduleDaily("25:00", "report", job)
	assert.Error(t, err)
}

func TestSchedulerService_WrapBoundsJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zap.NewNop())
	var deadline time.Time
	var ok bool

	s.wrap("daily summary", func(ctx context.Context) error {
		deadline, ok = ctx.Deadline()
		return nil
	})()

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(JobTimeout), deadline, 5*time.Second)
}
