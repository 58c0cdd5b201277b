package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultTimezone = "Asia/Kolkata"

// ClockWindow is a daily HH:MM window such as work hours or the sleep window.
type ClockWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w ClockWindow) Validate(field string) error {
	if _, err := time.Parse("15:04", w.Start); err != nil {
		return NewValidationError(field, "start %q is not HH:MM", w.Start)
	}
	if _, err := time.Parse("15:04", w.End); err != nil {
		return NewValidationError(field, "end %q is not HH:MM", w.End)
	}
	return nil
}

func (w ClockWindow) String() string {
	return fmt.Sprintf("%s to %s", w.Start, w.End)
}

// ProposedTask is a task candidate produced by the interpreter.
type ProposedTask struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Category        Category   `json:"category"`
	Priority        Priority   `json:"priority"`
	Start           *time.Time `json:"startTime,omitempty"`
	End             *time.Time `json:"endTime,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	IsFixed         bool       `json:"isFixed"`
	Date            *time.Time `json:"date,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
}

func (p ProposedTask) HasInterval() bool {
	return p.Start != nil && p.End != nil
}

// ToTask builds the task that committing this proposal writes.
func (p ProposedTask) ToTask(ownerID uuid.UUID, originalCommand string) Task {
	t := Task{
		OwnerID:         ownerID,
		Title:           strings.TrimSpace(p.Title),
		Description:     p.Description,
		Category:        p.Category,
		Priority:        p.Priority,
		Date:            p.Date,
		Duration:        p.DurationMinutes,
		DueDate:         p.DueDate,
		IsFixed:         p.IsFixed,
		Status:          StatusPending,
		CreatedBy:       CreatedByAI,
		OriginalCommand: originalCommand,
	}
	if !t.Category.IsValid() {
		t.Category = CategoryWork
	}
	if !t.Priority.IsValid() {
		t.Priority = PriorityMedium
	}
	if p.HasInterval() {
		start, end := p.Start.UTC(), p.End.UTC()
		t.Start, t.End = &start, &end
		t.Status = StatusScheduled
		if t.Date == nil {
			t.Date = &start
		}
	}
	return t
}

// PendingNegotiation is the single staged task awaiting the user's decision.
type PendingNegotiation struct {
	Task            ProposedTask `json:"task"`
	OriginalCommand string       `json:"originalCommand"`
	ConflictWith    string       `json:"conflictWith"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// Profile is the per-user record holding scheduling preferences and the
// negotiation slot.
type Profile struct {
	ID                  uuid.UUID           `json:"id"`
	Timezone            string              `json:"timezone"`
	WorkHours           ClockWindow         `json:"workHours"`
	SleepWindow         ClockWindow         `json:"sleepTime"`
	CategoryDurations   map[Category]int    `json:"categoryDurations"`
	TotalTasksCompleted int                 `json:"totalTasksCompleted"`
	Pending             *PendingNegotiation `json:"pendingTask,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// DefaultProfile is what a user gets before onboarding.
func DefaultProfile(id uuid.UUID) Profile {
	return Profile{
		ID:          id,
		Timezone:    DefaultTimezone,
		WorkHours:   ClockWindow{Start: "09:00", End: "18:00"},
		SleepWindow: ClockWindow{Start: "23:00", End: "07:00"},
		CategoryDurations: map[Category]int{
			CategoryWork:     60,
			CategoryPersonal: 45,
			CategoryHealth:   90,
			CategoryLearning: 120,
		},
	}
}

// Location resolves the profile timezone, falling back to UTC.
func (p Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (p Profile) Validate() error {
	if _, err := time.LoadLocation(p.Timezone); err != nil || p.Timezone == "" {
		return NewValidationError("timezone", "unknown timezone %q", p.Timezone)
	}
	if err := p.WorkHours.Validate("workHours"); err != nil {
		return err
	}
	if err := p.SleepWindow.Validate("sleepTime"); err != nil {
		return err
	}
	for c, d := range p.CategoryDurations {
		if !c.IsValid() {
			return NewValidationError("categoryDurations", "unknown category %q", c)
		}
		if d <= 0 || d > MaxDurationMinutes {
			return NewValidationError("categoryDurations", "duration for %s must be between 1 and %d minutes", c, MaxDurationMinutes)
		}
	}
	return nil
}

const learningWeight = 0.3

// RecordCompletion folds an observed duration into the category average.
func (p *Profile) RecordCompletion(c Category, actualMinutes int) {
	p.TotalTasksCompleted++
	if actualMinutes <= 0 || !c.IsValid() {
		return
	}
	if p.CategoryDurations == nil {
		p.CategoryDurations = map[Category]int{}
	}
	prev, ok := p.CategoryDurations[c]
	if !ok {
		p.CategoryDurations[c] = actualMinutes
		return
	}
	next := learningWeight*float64(actualMinutes) + (1-learningWeight)*float64(prev)
	p.CategoryDurations[c] = int(next + 0.5)
}
