package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/clarity/internal/models"
)

func TestFirstFitTrace(t *testing.T) {
	owner := uuid.New()
	tasks := []models.Task{
		activeTask(t, owner, "Review", "2026-03-02T11:00:00Z", "2026-03-02T12:00:00Z"),
		activeTask(t, owner, "Standup", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z"),
	}

	tests := []struct {
		name      string
		from      string
		minutes   int
		want      string
		wantFound bool
	}{
		// 9:00-8:00 = 60 < 90, cursor 10:00; 11:00-10:00 = 60 < 90, cursor 12:00; list exhausted.
		{"90 minutes from 8:00 lands after the last task", "2026-03-02T08:00:00Z", 90, "2026-03-02T12:00:00Z", false},
		// 9:00-8:00 = 60 >= 60.
		{"exact gap before the first task", "2026-03-02T08:00:00Z", 60, "2026-03-02T08:00:00Z", true},
		// 9:00-9:30 < 0, cursor 10:00; 11:00-10:00 = 60 >= 30.
		{"cursor inside a task", "2026-03-02T09:30:00Z", 30, "2026-03-02T10:00:00Z", true},
		// Both tasks end before the cursor.
		{"after everything", "2026-03-02T13:00:00Z", 45, "2026-03-02T13:00:00Z", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FirstFit(tasks, mustTime(t, tt.from), time.Duration(tt.minutes)*time.Minute)
			assert.Equal(t, mustTime(t, tt.want), got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestFindAlternative(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	store := newMemStore()
	store.tasks = []models.Task{
		activeTask(t, owner, "Standup", "2026-03-02T09:00:00Z", "2026-03-02T10:00:00Z"),
		activeTask(t, owner, "Review", "2026-03-02T11:00:00Z", "2026-03-02T12:00:00Z"),
	}

	t.Run("first fit from 8:00", func(t *testing.T) {
		finder := NewSlotFinder(store, fixedClock(mustTime(t, "2026-03-02T06:00:00Z")), 14)
		got, err := finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T08:00:00Z"), 90, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, mustTime(t, "2026-03-02T12:00:00Z"), got)
	})

	t.Run("past reference is clamped to now", func(t *testing.T) {
		now := mustTime(t, "2026-03-02T10:30:00Z")
		finder := NewSlotFinder(store, fixedClock(now), 14)
		got, err := finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T08:00:00Z"), 30, time.UTC)
		require.NoError(t, err)
		assert.False(t, got.Before(now))
		assert.Equal(t, now, got)
	})

	t.Run("completed tasks free their slot", func(t *testing.T) {
		done := store.tasks[0]
		done.Status = models.StatusCompleted
		s := newMemStore()
		s.tasks = []models.Task{done, store.tasks[1]}

		finder := NewSlotFinder(s, fixedClock(mustTime(t, "2026-03-02T06:00:00Z")), 14)
		got, err := finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T08:00:00Z"), 90, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, mustTime(t, "2026-03-02T08:00:00Z"), got)
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		finder := NewSlotFinder(store, nil, 0)
		_, err := finder.FindAlternative(ctx, owner, time.Now(), 0, time.UTC)
		assert.True(t, models.IsValidation(err))
	})
}

func TestFindAlternativeSpillsIntoNextDay(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	store := newMemStore()
	store.tasks = []models.Task{
		activeTask(t, owner, "Evening", "2026-03-02T20:00:00Z", "2026-03-02T23:30:00Z"),
		activeTask(t, owner, "Late call", "2026-03-03T00:15:00Z", "2026-03-03T01:00:00Z"),
	}
	now := fixedClock(mustTime(t, "2026-03-02T12:00:00Z"))

	// Day one ends with the cursor at 23:30, and 60 minutes would cross
	// midnight. Day two: 00:15-23:30 = 45 < 60, cursor 01:00, room after.
	finder := NewSlotFinder(store, now, 14)
	got, err := finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T20:00:00Z"), 60, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-03T01:00:00Z"), got)

	// A one-day horizon stops at the cursor left by the first day.
	finder = NewSlotFinder(store, now, 1)
	got, err = finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T20:00:00Z"), 60, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-02T23:30:00Z"), got)
}

func TestFindAlternativeUsesUserDay(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 23:00-23:45 IST on 2 March is 17:30-18:15 UTC.
	store := newMemStore()
	store.tasks = []models.Task{
		activeTask(t, owner, "Wind down", "2026-03-02T17:30:00Z", "2026-03-02T18:15:00Z"),
	}
	finder := NewSlotFinder(store, fixedClock(mustTime(t, "2026-03-02T12:00:00Z")), 14)

	got, err := finder.FindAlternative(ctx, owner, mustTime(t, "2026-03-02T17:30:00Z"), 30, loc)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, "2026-03-02T18:15:00Z"), got)
	assert.Equal(t, "11:45 PM", got.In(loc).Format("3:04 PM"))
}

func TestConflictDetector(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	store := newMemStore()
	a := activeTask(t, owner, "A", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	store.tasks = []models.Task{a}
	d := NewConflictDetector(store)

	got, err := d.FindConflict(ctx, owner, mustTime(t, "2026-03-02T10:30:00Z"), mustTime(t, "2026-03-02T11:30:00Z"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Title)

	got, err = d.FindConflict(ctx, owner, mustTime(t, "2026-03-02T11:00:00Z"), mustTime(t, "2026-03-02T12:00:00Z"))
	require.NoError(t, err)
	assert.Nil(t, got, "touching endpoints do not conflict")

	got, err = d.FindConflict(ctx, uuid.New(), mustTime(t, "2026-03-02T10:30:00Z"), mustTime(t, "2026-03-02T11:30:00Z"))
	require.NoError(t, err)
	assert.Nil(t, got, "other owners are invisible")

	store.tasks[0].Status = models.StatusSkipped
	got, err = d.FindConflict(ctx, owner, mustTime(t, "2026-03-02T10:30:00Z"), mustTime(t, "2026-03-02T11:30:00Z"))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = d.FindConflict(ctx, owner, mustTime(t, "2026-03-02T11:00:00Z"), mustTime(t, "2026-03-02T11:00:00Z"))
	assert.True(t, models.IsValidation(err))
}

func TestFirstConflictIsDeterministic(t *testing.T) {
	owner := uuid.New()
	early := activeTask(t, owner, "Early", "2026-03-02T09:00:00Z", "2026-03-02T11:00:00Z")
	x := activeTask(t, owner, "X", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	y := activeTask(t, owner, "Y", "2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z")
	x.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	y.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	start, end := mustTime(t, "2026-03-02T10:15:00Z"), mustTime(t, "2026-03-02T10:45:00Z")
	for _, order := range [][]models.Task{{y, x, early}, {early, x, y}, {x, early, y}} {
		got := FirstConflict(order, start, end)
		require.NotNil(t, got)
		assert.Equal(t, "Early", got.Title)
	}
	for _, order := range [][]models.Task{{y, x}, {x, y}} {
		got := FirstConflict(order, start, end)
		require.NotNil(t, got)
		assert.Equal(t, "X", got.Title)
	}
}

func TestUserLocksAreReleased(t *testing.T) {
	l := newUserLocks()
	owner := uuid.New()

	unlock := l.Lock(owner)
	done := make(chan struct{})
	go func() {
		release := l.Lock(owner)
		release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-done
	assert.Equal(t, 0, l.size())
}
