package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/clarity/internal/models"
)

// ConflictDetector finds the task blocking a candidate interval.
type ConflictDetector struct {
	tasks TaskStore
}

func NewConflictDetector(tasks TaskStore) *ConflictDetector {
	return &ConflictDetector{tasks: tasks}
}

// FindConflict returns the earliest active task of the owner that strictly
// overlaps [start, end), or nil.
func (d *ConflictDetector) FindConflict(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (*models.Task, error) {
	if !start.Before(end) {
		return nil, models.NewValidationError("end", "end must be after start")
	}
	tasks, err := d.tasks.FindOverlapping(ctx, ownerID, start, end, models.InactiveStatuses...)
	if err != nil {
		return nil, fmt.Errorf("find conflict: %w", err)
	}
	return FirstConflict(tasks, start, end), nil
}

// FirstConflict is the in-memory form of FindConflict. Ties are broken by
// start, then id, whatever order tasks arrive in.
func FirstConflict(tasks []models.Task, start, end time.Time) *models.Task {
	var first *models.Task
	for i := range tasks {
		t := &tasks[i]
		if !t.IsActive() || !t.Overlaps(start, end) {
			continue
		}
		if first == nil || before(*t, *first) {
			first = t
		}
	}
	if first == nil {
		return nil
	}
	found := *first
	return &found
}

func before(a, b models.Task) bool {
	if !a.Start.Equal(*b.Start) {
		return a.Start.Before(*b.Start)
	}
	return a.ID.String() < b.ID.String()
}

func sortByStart(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return before(tasks[i], tasks[j]) })
}
