// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gurkanbulca/clarity/internal/models"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// Store is what the CRUD service needs from persistence.
type Store interface {
	FindOverlapping(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude ...models.Status) ([]models.Task, error)
	ListUnscheduled(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error)
	Create(ctx context.Context, t models.Task) (models.Task, error)
	Update(ctx context.Context, t models.Task) (models.Task, error)
	DeleteByID(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	GetProfile(ctx context.Context, ownerID uuid.UUID) (models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	InOwnerTx(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error
}

// TaskInput is a manual task creation request.
type TaskInput struct {
	Title       string
	Description string
	Category    models.Category
	Priority    models.Priority
	Start       *time.Time
	End         *time.Time
	Duration    int
	DueDate     *time.Time
	IsFixed     bool
}

// ProfileUpdate carries onboarding changes; nil fields are kept.
type ProfileUpdate struct {
	Timezone          *string
	WorkHours         *models.ClockWindow
	SleepWindow       *models.ClockWindow
	CategoryDurations map[models.Category]int
}

// TaskService is the manual CRUD surface over the task store. Writes that
// place a task run in the owner transaction and refuse to overlap an
// active task.
type TaskService struct {
	store  Store
	logger *logrus.Logger
}

func NewTaskService(store Store, logger *logrus.Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

// ListTasks returns tasks overlapping [start, end) except skipped ones.
// With includeUnscheduled the owner's pending tasks without an interval
// are appended.
func (s *TaskService) ListTasks(ctx context.Context, ownerID uuid.UUID, start, end time.Time, includeUnscheduled bool) ([]models.Task, error) {
	if !start.Before(end) {
		return nil, models.NewValidationError("end", "end must be after start")
	}

	tasks, err := s.store.FindOverlapping(ctx, ownerID, start, end, models.StatusSkipped)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if includeUnscheduled {
		unscheduled, err := s.store.ListUnscheduled(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, unscheduled...)
	}
	return tasks, nil
}

// CreateTask adds a manual task. A start turns it into a scheduled task
// ending start+duration, unless an explicit end is given.
func (s *TaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, in TaskInput) (models.Task, error) {
	if err := validateText(in.Title, in.Description); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Duration:    in.Duration,
		DueDate:     utcPtr(in.DueDate),
		IsFixed:     in.IsFixed,
		Status:      models.StatusPending,
		CreatedBy:   models.CreatedByManual,
	}
	if task.Category == "" {
		task.Category = models.CategoryWork
	}
	if task.Priority == 0 {
		task.Priority = models.PriorityMedium
	}

	switch {
	case in.Start != nil && in.End != nil:
		if err := task.SetInterval(*in.Start, *in.End); err != nil {
			return models.Task{}, err
		}
		task.Status = models.StatusScheduled
	case in.Start != nil:
		if err := models.CheckDuration(in.Duration); err != nil {
			return models.Task{}, err
		}
		if err := task.SetInterval(*in.Start, in.Start.Add(time.Duration(in.Duration)*time.Minute)); err != nil {
			return models.Task{}, err
		}
		task.Status = models.StatusScheduled
	case in.End != nil:
		return models.Task{}, models.NewValidationError("start", "start is required when end is given")
	}
	if task.Start != nil {
		date := *task.Start
		task.Date = &date
	}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}

	var created models.Task
	err := s.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		if err := s.guardOverlap(ctx, task); err != nil {
			return err
		}
		var err error
		created, err = s.store.Create(ctx, task)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": ownerID,
		"task_id": created.ID,
	}).Info("task created")
	return created, nil
}

// UpdateTask applies patch to the owner's task. Completing a task with an
// actual duration feeds the category average.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if patch.Title != nil || patch.Description != nil {
		title, description := "x", ""
		if patch.Title != nil {
			title = *patch.Title
		}
		if patch.Description != nil {
			description = *patch.Description
		}
		if err := validateText(title, description); err != nil {
			return models.Task{}, err
		}
	}

	var updated models.Task
	err := s.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		task, err := s.store.GetByID(ctx, ownerID, id)
		if err != nil {
			return err
		}
		wasActive := task.IsActive()
		wasCompleted := task.Status == models.StatusCompleted

		if err := patch.Apply(&task); err != nil {
			return err
		}
		if task.IsActive() && (patch.Moves() || !wasActive) {
			if err := s.guardOverlap(ctx, task); err != nil {
				return err
			}
		}

		updated, err = s.store.Update(ctx, task)
		if err != nil {
			return err
		}

		if !wasCompleted && updated.Status == models.StatusCompleted {
			return s.recordCompletion(ctx, updated)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.store.DeleteByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrNotFound
	}
	return nil
}

func (s *TaskService) GetProfile(ctx context.Context, ownerID uuid.UUID) (models.Profile, error) {
	return s.store.GetProfile(ctx, ownerID)
}

func (s *TaskService) UpdateProfile(ctx context.Context, ownerID uuid.UUID, in ProfileUpdate) (models.Profile, error) {
	var saved models.Profile
	err := s.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		p, err := s.store.GetProfile(ctx, ownerID)
		if err != nil {
			return err
		}
		if in.Timezone != nil {
			p.Timezone = strings.TrimSpace(*in.Timezone)
		}
		if in.WorkHours != nil {
			p.WorkHours = *in.WorkHours
		}
		if in.SleepWindow != nil {
			p.SleepWindow = *in.SleepWindow
		}
		for c, d := range in.CategoryDurations {
			if p.CategoryDurations == nil {
				p.CategoryDurations = map[models.Category]int{}
			}
			p.CategoryDurations[c] = d
		}
		saved, err = s.store.SaveProfile(ctx, p)
		return err
	})
	if err != nil {
		return models.Profile{}, err
	}
	return saved, nil
}

// guardOverlap fails with a ConflictError when task would overlap another
// active task of its owner.
func (s *TaskService) guardOverlap(ctx context.Context, task models.Task) error {
	if !task.IsActive() {
		return nil
	}
	existing, err := s.store.FindOverlapping(ctx, task.OwnerID, *task.Start, *task.End, models.InactiveStatuses...)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	for _, other := range existing {
		if other.ID != task.ID {
			return &models.ConflictError{Blocking: other}
		}
	}
	return nil
}

func (s *TaskService) recordCompletion(ctx context.Context, task models.Task) error {
	if task.ActualDuration == nil {
		return nil
	}
	p, err := s.store.GetProfile(ctx, task.OwnerID)
	if err != nil {
		return err
	}
	p.RecordCompletion(task.Category, *task.ActualDuration)
	if _, err := s.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  task.OwnerID,
		"category": task.Category,
		"average":  p.CategoryDurations[task.Category],
	}).Debug("category average updated")
	return nil
}

func validateText(title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return models.NewValidationError("title", "title too long (max %d characters)", MaxTitleLength)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return models.NewValidationError("description", "description too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// IsNotFound reports whether err means the task does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
