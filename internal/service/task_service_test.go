// internal/service/task_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/clarity/internal/models"
)

func TestTaskService_CreateTask(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()
	h.CreateScheduledTask(owner, "Standup", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z")

	tests := []struct {
		name       string
		input      TaskInput
		wantErr    func(error) bool
		wantStatus models.Status
		wantEnd    string
	}{
		{
			name:       "start plus duration is scheduled",
			input:      TaskInput{Title: "Write report", Start: ptr(h.Time("2026-03-02T10:00:00Z")), Duration: 45},
			wantStatus: models.StatusScheduled,
			wantEnd:    "2026-03-02T10:45:00Z",
		},
		{
			name:       "no start stays pending",
			input:      TaskInput{Title: "Someday", Duration: 30},
			wantStatus: models.StatusPending,
		},
		{
			name:    "missing title",
			input:   TaskInput{Duration: 30},
			wantErr: models.IsValidation,
		},
		{
			name:    "non-positive duration",
			input:   TaskInput{Title: "Zero", Start: ptr(h.Time("2026-03-02T12:00:00Z"))},
			wantErr: models.IsValidation,
		},
		{
			name:    "end before start",
			input:   TaskInput{Title: "Backwards", Start: ptr(h.Time("2026-03-02T12:00:00Z")), End: ptr(h.Time("2026-03-02T11:00:00Z"))},
			wantErr: models.IsValidation,
		},
		{
			name:       "seconds are truncated to the minute",
			input:      TaskInput{Title: "Trimmed", Start: ptr(h.Time("2026-03-02T12:00:30Z")), End: ptr(h.Time("2026-03-02T12:26:10Z"))},
			wantStatus: models.StatusScheduled,
			wantEnd:    "2026-03-02T12:26:00Z",
		},
		{
			name:    "sub-minute interval",
			input:   TaskInput{Title: "Blink", Start: ptr(h.Time("2026-03-02T13:00:00Z")), End: ptr(h.Time("2026-03-02T13:00:20Z"))},
			wantErr: models.IsValidation,
		},
		{
			name:    "duration overflowing time.Duration",
			input:   TaskInput{Title: "Forever", Start: ptr(h.Time("2026-03-02T13:00:00Z")), Duration: 153722867280913},
			wantErr: models.IsValidation,
		},
		{
			name:    "overlaps an active task",
			input:   TaskInput{Title: "Clash", Start: ptr(h.Time("2026-03-02T09:30:00Z")), Duration: 60},
			wantErr: models.IsConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := svc.CreateTask(ctx, owner, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, task.ID)
			assert.Equal(t, tt.wantStatus, task.Status)
			assert.Equal(t, models.CreatedByManual, task.CreatedBy)
			assert.Equal(t, models.CategoryWork, task.Category)
			assert.Equal(t, models.PriorityMedium, task.Priority)
			if tt.wantEnd != "" {
				require.NotNil(t, task.End)
				assert.True(t, h.Time(tt.wantEnd).Equal(*task.End))
				assert.Equal(t, time.Duration(task.Duration)*time.Minute, task.End.Sub(*task.Start))
			}
		})
	}
}

func TestTaskService_ConflictNamesBlockingTask(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	owner := uuid.New()
	h.CreateScheduledTask(owner, "Gym", "2026-03-02T18:00:00Z", "2026-03-02T19:00:00Z")

	_, err := svc.CreateTask(context.Background(), owner, TaskInput{
		Title:    "Dinner",
		Start:    ptr(h.Time("2026-03-02T18:30:00Z")),
		Duration: 60,
	})
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Gym", conflict.Blocking.Title)
}

func TestTaskService_ListTasks(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()

	late := h.CreateScheduledTask(owner, "Late", "2026-03-02T15:00:00Z", "2026-03-02T16:00:00Z")
	early := h.CreateScheduledTask(owner, "Early", "2026-03-02T08:00:00Z", "2026-03-02T09:00:00Z")
	skipped := h.CreateScheduledTask(owner, "Skipped", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	h.CreateScheduledTask(uuid.New(), "Someone else", "2026-03-02T12:00:00Z", "2026-03-02T13:00:00Z")
	_, err := svc.UpdateTask(ctx, owner, skipped.ID, models.TaskPatch{Status: ptr(models.StatusSkipped)})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, owner, TaskInput{Title: "Unscheduled", Duration: 20})
	require.NoError(t, err)

	tasks, err := svc.ListTasks(ctx, owner, h.Time("2026-03-02T00:00:00Z"), h.Time("2026-03-03T00:00:00Z"), false)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, early.ID, tasks[0].ID)
	assert.Equal(t, late.ID, tasks[1].ID)

	tasks, err = svc.ListTasks(ctx, owner, h.Time("2026-03-02T00:00:00Z"), h.Time("2026-03-03T00:00:00Z"), true)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Unscheduled", tasks[2].Title)

	_, err = svc.ListTasks(ctx, owner, h.Time("2026-03-03T00:00:00Z"), h.Time("2026-03-02T00:00:00Z"), false)
	assert.True(t, models.IsValidation(err))
}

func TestTaskService_UpdateTask(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()

	meeting := h.CreateScheduledTask(owner, "Meeting", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z")
	h.CreateScheduledTask(owner, "Lunch", "2026-03-02T12:00:00Z", "2026-03-02T13:00:00Z")

	t.Run("move recomputes duration and counts a reschedule", func(t *testing.T) {
		updated, err := svc.UpdateTask(ctx, owner, meeting.ID, models.TaskPatch{
			Start: ptr(h.Time("2026-03-02T10:00:00Z")),
			End:   ptr(h.Time("2026-03-02T11:30:00Z")),
		})
		require.NoError(t, err)
		assert.Equal(t, 90, updated.Duration)
		assert.Equal(t, 1, updated.RescheduleCount)
		assert.Equal(t, models.StatusScheduled, updated.Status)
	})

	t.Run("resize within its own slot is not a conflict", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, owner, meeting.ID, models.TaskPatch{
			Start: ptr(h.Time("2026-03-02T10:00:00Z")),
			End:   ptr(h.Time("2026-03-02T11:00:00Z")),
		})
		require.NoError(t, err)
	})

	t.Run("sub-minute resize names the minimum", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, owner, meeting.ID, models.TaskPatch{
			Start: ptr(h.Time("2026-03-02T10:00:00Z")),
			End:   ptr(h.Time("2026-03-02T10:00:20Z")),
		})
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "interval must span at least one minute", ve.Message)
	})

	t.Run("move onto another task conflicts", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, owner, meeting.ID, models.TaskPatch{
			Start: ptr(h.Time("2026-03-02T12:30:00Z")),
			End:   ptr(h.Time("2026-03-02T13:30:00Z")),
		})
		assert.True(t, models.IsConflict(err))

		stored, err := h.Store().GetByID(ctx, owner, meeting.ID)
		require.NoError(t, err)
		assert.True(t, h.Time("2026-03-02T10:00:00Z").Equal(*stored.Start))
	})

	t.Run("other owners cannot see the task", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, uuid.New(), meeting.ID, models.TaskPatch{Title: ptr("Mine now")})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.UpdateTask(ctx, owner, meeting.ID, models.TaskPatch{Status: ptr(models.Status("archived"))})
		assert.True(t, models.IsValidation(err))
	})
}

func TestTaskService_CompletionLearnsDuration(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()

	task := h.CreateScheduledTask(owner, "Deep work", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z")

	_, err := svc.UpdateTask(ctx, owner, task.ID, models.TaskPatch{
		Status:         ptr(models.StatusCompleted),
		ActualDuration: ptr(100),
	})
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, owner)
	require.NoError(t, err)
	// 0.3*100 + 0.7*60 = 72
	assert.Equal(t, 72, profile.CategoryDurations[models.CategoryWork])
	assert.Equal(t, 1, profile.TotalTasksCompleted)

	// Completing again does not count twice.
	_, err = svc.UpdateTask(ctx, owner, task.ID, models.TaskPatch{
		Status:         ptr(models.StatusCompleted),
		ActualDuration: ptr(100),
	})
	require.NoError(t, err)
	profile, err = svc.GetProfile(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalTasksCompleted)
}

func TestTaskService_DeleteTask(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()
	task := h.CreateScheduledTask(owner, "Dentist", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z")

	assert.ErrorIs(t, svc.DeleteTask(ctx, uuid.New(), task.ID), models.ErrNotFound)
	require.NoError(t, svc.DeleteTask(ctx, owner, task.ID))
	assert.ErrorIs(t, svc.DeleteTask(ctx, owner, task.ID), models.ErrNotFound)
}

func TestTaskService_UpdateProfile(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewTaskService(h.Store(), quietLogger())
	ctx := context.Background()
	owner := uuid.New()

	profile, err := svc.UpdateProfile(ctx, owner, ProfileUpdate{
		Timezone:          ptr("America/New_York"),
		WorkHours:         &models.ClockWindow{Start: "08:00", End: "16:30"},
		CategoryDurations: map[models.Category]int{models.CategoryHealth: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", profile.Timezone)
	assert.Equal(t, "08:00", profile.WorkHours.Start)
	assert.Equal(t, 40, profile.CategoryDurations[models.CategoryHealth])
	assert.Equal(t, 120, profile.CategoryDurations[models.CategoryLearning])

	_, err = svc.UpdateProfile(ctx, owner, ProfileUpdate{Timezone: ptr("Mars/Olympus")})
	assert.True(t, models.IsValidation(err))

	_, err = svc.UpdateProfile(ctx, owner, ProfileUpdate{SleepWindow: &models.ClockWindow{Start: "late", End: "07:00"}})
	assert.True(t, models.IsValidation(err))
}
