package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/clarity/internal/models"
)

const DefaultHorizonDays = 14

// SlotFinder searches an owner's timeline for the earliest free gap.
type SlotFinder struct {
	tasks       TaskStore
	now         func() time.Time
	horizonDays int
}

func NewSlotFinder(tasks TaskStore, now func() time.Time, horizonDays int) *SlotFinder {
	if now == nil {
		now = time.Now
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &SlotFinder{tasks: tasks, now: now, horizonDays: horizonDays}
}

// FindAlternative returns the start of the first gap of durationMinutes at or
// after ref, never earlier than now. Days are cut in loc. When the candidate
// runs past midnight the walk continues with the next day's tasks, for at
// most the configured horizon.
func (f *SlotFinder) FindAlternative(ctx context.Context, ownerID uuid.UUID, ref time.Time, durationMinutes int, loc *time.Location) (time.Time, error) {
	if durationMinutes <= 0 {
		return time.Time{}, models.NewValidationError("duration", "duration must be positive")
	}
	if loc == nil {
		loc = time.UTC
	}
	dur := time.Duration(durationMinutes) * time.Minute

	freeFrom := ref.UTC()
	if now := f.now().UTC(); freeFrom.Before(now) {
		freeFrom = now
	}

	dayStart := startOfDay(freeFrom, loc)
	for i := 0; i < f.horizonDays; i++ {
		dayEnd := nextDay(dayStart, loc)

		tasks, err := f.tasks.FindByOwnerAndDay(ctx, ownerID, dayStart, dayEnd)
		if err != nil {
			return time.Time{}, fmt.Errorf("find alternative slot: %w", err)
		}

		var found bool
		freeFrom, found = FirstFit(activeOnly(tasks), freeFrom, dur)
		if found || !freeFrom.Add(dur).After(dayEnd) {
			return freeFrom, nil
		}

		dayStart = dayEnd
		if !freeFrom.Before(dayEnd) {
			dayStart = startOfDay(freeFrom, loc)
		}
	}
	return freeFrom, nil
}

// FirstFit walks tasks in start order with a cursor at from. It reports the
// cursor and true as soon as the gap before a task is at least dur; otherwise
// it returns the cursor after the last task and false.
func FirstFit(tasks []models.Task, from time.Time, dur time.Duration) (time.Time, bool) {
	sorted := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.HasInterval() {
			sorted = append(sorted, t)
		}
	}
	sortByStart(sorted)

	freeFrom := from
	for _, t := range sorted {
		if t.Start.Sub(freeFrom) >= dur {
			return freeFrom, true
		}
		if t.End.After(freeFrom) {
			freeFrom = *t.End
		}
	}
	return freeFrom, false
}

func activeOnly(tasks []models.Task) []models.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if t.IsActive() {
			out = append(out, t)
		}
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UTC()
}

func nextDay(dayStart time.Time, loc *time.Location) time.Time {
	local := dayStart.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc).UTC()
}
