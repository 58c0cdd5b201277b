// internal/repository/task_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/clarity/internal/models"
)

const tasksTable = "tasks"

// taskColumns is the column order shared by selects and inserts.
var taskColumns = []string{
	"id", "owner_id", "title", "description", "category", "priority",
	"date", "start_time", "end_time", "duration", "due_date", "is_fixed",
	"status", "created_by", "original_command", "reschedule_count",
	"actual_duration", "created_at", "updated_at",
}

// taskRow mirrors one row of the tasks table for sqlx scanning.
type taskRow struct {
	ID              uuid.UUID     `db:"id"`
	OwnerID         uuid.UUID     `db:"owner_id"`
	Title           string        `db:"title"`
	Description     string        `db:"description"`
	Category        string        `db:"category"`
	Priority        int           `db:"priority"`
	Date            sql.NullTime  `db:"date"`
	StartTime       sql.NullTime  `db:"start_time"`
	EndTime         sql.NullTime  `db:"end_time"`
	Duration        int           `db:"duration"`
	DueDate         sql.NullTime  `db:"due_date"`
	IsFixed         bool          `db:"is_fixed"`
	Status          string        `db:"status"`
	CreatedBy       string        `db:"created_by"`
	OriginalCommand string        `db:"original_command"`
	RescheduleCount int           `db:"reschedule_count"`
	ActualDuration  sql.NullInt64 `db:"actual_duration"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// toModel converts a scanned row; timestamps come back in UTC.
func (r taskRow) toModel() models.Task {
	t := models.Task{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        models.Category(r.Category),
		Priority:        models.Priority(r.Priority),
		Date:            timePtr(r.Date),
		Start:           timePtr(r.StartTime),
		End:             timePtr(r.EndTime),
		Duration:        r.Duration,
		DueDate:         timePtr(r.DueDate),
		IsFixed:         r.IsFixed,
		Status:          models.Status(r.Status),
		CreatedBy:       models.CreatedBy(r.CreatedBy),
		OriginalCommand: r.OriginalCommand,
		RescheduleCount: r.RescheduleCount,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
	if r.ActualDuration.Valid {
		actual := int(r.ActualDuration.Int64)
		t.ActualDuration = &actual
	}
	return t
}

// TaskRepository reads and writes the tasks table.
type TaskRepository struct {
	*base
}

// selectTasks starts a SELECT over all task columns.
func (r *TaskRepository) selectTasks() *entsql.Selector {
	b := r.builder()
	return b.Select(taskColumns...).From(b.Table(tasksTable))
}

// query runs sel on the connection bound to ctx and converts the rows.
func (r *TaskRepository) query(ctx context.Context, sel *entsql.Selector) ([]models.Task, error) {
	query, args := sel.Query()
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

// FindOverlapping returns the owner's tasks whose interval strictly overlaps
// [start, end), skipping the given statuses, earliest first.
func (r *TaskRepository) FindOverlapping(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude ...models.Status) ([]models.Task, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("owner_id", ownerID),
		entsql.NotNull("start_time"),
		entsql.NotNull("end_time"),
		entsql.LT("start_time", end.UTC()),
		entsql.GT("end_time", start.UTC()),
	}
	// Filter statuses in SQL so callers never see rows they excluded
	if len(exclude) > 0 {
		preds = append(preds, entsql.NotIn("status", statusArgs(exclude)...))
	}

	sel := r.selectTasks().
		Where(entsql.And(preds...)).
		OrderBy("start_time", "id")

	tasks, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find overlapping tasks: %w", err)
	}
	return tasks, nil
}

// FindByOwnerAndDay returns every task with an interval touching
// [dayStart, dayEnd), whatever its status, sorted by start.
func (r *TaskRepository) FindByOwnerAndDay(ctx context.Context, ownerID uuid.UUID, dayStart, dayEnd time.Time) ([]models.Task, error) {
	sel := r.selectTasks().
		Where(entsql.And(
			entsql.EQ("owner_id", ownerID),
			entsql.NotNull("start_time"),
			entsql.NotNull("end_time"),
			entsql.LT("start_time", dayEnd.UTC()),
			entsql.GT("end_time", dayStart.UTC()),
		)).
		OrderBy("start_time", "id")

	tasks, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find tasks by day: %w", err)
	}
	return tasks, nil
}

// ListUnscheduled returns the owner's tasks that have no interval yet.
func (r *TaskRepository) ListUnscheduled(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	sel := r.selectTasks().
		Where(entsql.And(
			entsql.EQ("owner_id", ownerID),
			entsql.IsNull("start_time"),
			entsql.NotIn("status", statusArgs(models.InactiveStatuses)...),
		)).
		OrderBy("created_at", "id")

	tasks, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list unscheduled tasks: %w", err)
	}
	return tasks, nil
}

// GetByID returns models.ErrNotFound when the task is missing or owned by
// someone else.
func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	query, args := r.selectTasks().
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))).
		Query()

	var row taskRow
	if err := sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return row.toModel(), nil
}

// Create assigns an id and timestamps, then inserts the task.
func (r *TaskRepository) Create(ctx context.Context, t models.Task) (models.Task, error) {
	created, err := r.CreateBatch(ctx, []models.Task{t})
	if err != nil {
		return models.Task{}, err
	}
	return created[0], nil
}

// CreateBatch inserts all tasks in a single statement.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []models.Task) ([]models.Task, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	// Every row shares one timestamp
	now := r.timestamp()
	ins := r.builder().Insert(tasksTable).Columns(taskColumns...)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		// Assign ids the caller left empty
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		if t.CreatedBy == "" {
			t.CreatedBy = models.CreatedByManual
		}
		t.CreatedAt, t.UpdatedAt = now, now

		// Reject the whole batch on the first invalid task
		if err := t.Validate(); err != nil {
			return nil, err
		}
		ins.Values(taskValues(t)...)
		out = append(out, t)
	}

	// Insert the batch
	query, args := ins.Query()
	if _, err := r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert tasks: %w", err)
	}
	return out, nil
}

// Update writes every mutable column of t.
func (r *TaskRepository) Update(ctx context.Context, t models.Task) (models.Task, error) {
	// Validate before touching the database
	if err := t.Validate(); err != nil {
		return models.Task{}, err
	}
	t.UpdatedAt = r.timestamp()

	// The owner predicate keeps one user from updating another's task

	query, args := r.builder().Update(tasksTable).
		Set("title", t.Title).
		Set("description", t.Description).
		Set("category", string(t.Category)).
		Set("priority", int(t.Priority)).
		Set("date", nullTime(t.Date)).
		Set("start_time", nullTime(t.Start)).
		Set("end_time", nullTime(t.End)).
		Set("duration", t.Duration).
		Set("due_date", nullTime(t.DueDate)).
		Set("is_fixed", t.IsFixed).
		Set("status", string(t.Status)).
		Set("reschedule_count", t.RescheduleCount).
		Set("actual_duration", nullInt(t.ActualDuration)).
		Set("updated_at", t.UpdatedAt).
		Where(entsql.And(entsql.EQ("id", t.ID), entsql.EQ("owner_id", t.OwnerID))).
		Query()

	// Execute update
	res, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if err := checkRowsAffected(res); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// DeleteByID reports whether a row was removed.
func (r *TaskRepository) DeleteByID(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	query, args := r.builder().Delete(tasksTable).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))).
		Query()

	res, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	return n > 0, nil
}

// taskValues lists t in taskColumns order.
func taskValues(t models.Task) []any {
	return []any{
		t.ID, t.OwnerID, t.Title, t.Description, string(t.Category), int(t.Priority),
		nullTime(t.Date), nullTime(t.Start), nullTime(t.End), t.Duration, nullTime(t.DueDate), t.IsFixed,
		string(t.Status), string(t.CreatedBy), t.OriginalCommand, t.RescheduleCount,
		nullInt(t.ActualDuration), t.CreatedAt, t.UpdatedAt,
	}
}

// checkRowsAffected maps an update that matched nothing to ErrNotFound.
func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func statusArgs(statuses []models.Status) []any {
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return args
}

// nullTime and nullInt turn nil pointers into SQL NULL.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
