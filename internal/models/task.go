package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCompleted, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the task no longer occupies the timeline.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// ParseStatus accepts any casing of the four known states.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", NewValidationError("status", "unknown status %q", raw)
	}
	return s, nil
}

// InactiveStatuses are excluded from conflict checks and slot searches.
var InactiveStatuses = []Status{StatusCompleted, StatusSkipped}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryLearning Category = "learning"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryLearning:
		return true
	default:
		return false
	}
}

// ParseCategory is case-insensitive and defaults an empty value to work.
func ParseCategory(raw string) (Category, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return CategoryWork, nil
	}
	c := Category(raw)
	if !c.IsValid() {
		return "", NewValidationError("category", "unknown category %q", raw)
	}
	return c, nil
}

type CreatedBy string

const (
	CreatedByManual CreatedBy = "manual"
	CreatedByAI     CreatedBy = "ai"
)

// Task is a scheduled or schedulable unit of work owned by one user.
type Task struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         uuid.UUID  `json:"userId"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        Category   `json:"category"`
	Priority        Priority   `json:"priority"`
	Date            *time.Time `json:"date,omitempty"`
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
	Duration        int        `json:"duration"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	IsFixed         bool       `json:"isFixed"`
	Status          Status     `json:"status"`
	CreatedBy       CreatedBy  `json:"createdBy"`
	OriginalCommand string     `json:"originalCommand,omitempty"`
	RescheduleCount int        `json:"rescheduleCount"`
	ActualDuration  *int       `json:"actualDuration,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// HasInterval reports whether both start and end are assigned.
func (t Task) HasInterval() bool {
	return t.Start != nil && t.End != nil
}

// IsActive reports whether the task occupies its interval on the timeline.
func (t Task) IsActive() bool {
	return t.HasInterval() && !t.Status.IsTerminal()
}

// Overlaps is the strict overlap test: touching endpoints do not overlap.
func (t Task) Overlaps(start, end time.Time) bool {
	if !t.HasInterval() {
		return false
	}
	return t.Start.Before(end) && t.End.After(start)
}

// SetInterval moves the task and recomputes its duration from the new interval.
// Both instants are truncated to the minute so the duration is exact.
func (t *Task) SetInterval(start, end time.Time) error {
	if err := CheckInterval(start, end); err != nil {
		return err
	}
	start, end = start.UTC().Truncate(time.Minute), end.UTC().Truncate(time.Minute)
	t.Start = &start
	t.End = &end
	t.Duration = DurationMinutes(start, end)
	return nil
}

// Validate checks the invariants a task must hold before it is written.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "title is required")
	}
	if err := CheckDuration(t.Duration); err != nil {
		return err
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", "unknown category %q", t.Category)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "unknown priority %d", int(t.Priority))
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", "unknown status %q", t.Status)
	}
	if (t.Start == nil) != (t.End == nil) {
		return NewValidationError("end", "start and end must be set together")
	}
	if t.HasInterval() && !t.Start.Before(*t.End) {
		return NewValidationError("end", "end must be after start")
	}
	if t.HasInterval() && t.End.Sub(*t.Start) != time.Duration(t.Duration)*time.Minute {
		return NewValidationError("duration", "duration %d does not match the interval %s", t.Duration, t.End.Sub(*t.Start))
	}
	if t.Status == StatusScheduled && !t.HasInterval() {
		return NewValidationError("start", "scheduled tasks need a start and end")
	}
	return nil
}

// MaxDurationMinutes bounds a single task to one week.
const MaxDurationMinutes = 7 * 24 * 60

// DurationMinutes is the interval length in whole minutes.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// CheckDuration rejects durations outside (0, MaxDurationMinutes].
func CheckDuration(minutes int) error {
	if minutes <= 0 {
		return NewValidationError("duration", "duration must be positive")
	}
	if minutes > MaxDurationMinutes {
		return NewValidationError("duration", "duration must be at most %d minutes", MaxDurationMinutes)
	}
	return nil
}

// CheckInterval rejects intervals that are empty, shorter than a minute or
// longer than MaxDurationMinutes. An interval that passes still spans at
// least one minute once both ends are truncated to the minute.
func CheckInterval(start, end time.Time) error {
	if !start.Before(end) {
		return NewValidationError("end", "end must be after start")
	}
	length := end.Sub(start)
	if length < time.Minute {
		return NewValidationError("end", "interval must span at least one minute")
	}
	if length > MaxDurationMinutes*time.Minute {
		return NewValidationError("end", "interval must be at most %d minutes", MaxDurationMinutes)
	}
	return nil
}
