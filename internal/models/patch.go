package models

import (
	"strings"
	"time"
)

// TaskPatch carries a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title          *string
	Description    *string
	Category       *Category
	Priority       *Priority
	Status         *Status
	Start          *time.Time
	End            *time.Time
	DueDate        *time.Time
	IsFixed        *bool
	ActualDuration *int
}

// Apply mutates t and validates the result. A drag or resize (start and end
// together) recomputes the duration and counts as a reschedule when the task
// already had an interval.
func (p TaskPatch) Apply(t *Task) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return NewValidationError("title", "title is required")
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		due := p.DueDate.UTC()
		t.DueDate = &due
	}
	if p.IsFixed != nil {
		t.IsFixed = *p.IsFixed
	}
	if p.ActualDuration != nil {
		if *p.ActualDuration <= 0 || *p.ActualDuration > MaxDurationMinutes {
			return NewValidationError("actualDuration", "actual duration must be between 1 and %d minutes", MaxDurationMinutes)
		}
		actual := *p.ActualDuration
		t.ActualDuration = &actual
	}

	if (p.Start == nil) != (p.End == nil) {
		return NewValidationError("end", "start and end must be provided together")
	}
	if p.Start != nil {
		moved := t.HasInterval() && (!t.Start.Equal(*p.Start) || !t.End.Equal(*p.End))
		if err := t.SetInterval(*p.Start, *p.End); err != nil {
			return err
		}
		if moved {
			t.RescheduleCount++
		}
		t.Status = StatusScheduled
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t.Validate()
}

// Moves reports whether the patch assigns a new interval.
func (p TaskPatch) Moves() bool {
	return p.Start != nil && p.End != nil
}
