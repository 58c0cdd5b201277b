// internal/repository/profile_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/clarity/internal/models"
)

const usersTable = "users"

// userColumns is the select order for profile rows.
var userColumns = []string{
	"id", "timezone", "work_start", "work_end", "sleep_start", "sleep_end",
	"category_durations", "total_tasks_completed", "pending_task",
	"created_at", "updated_at",
}

// userRow mirrors one row of the users table. JSON columns are scanned as
// strings and decoded in toModel.
type userRow struct {
	ID                  uuid.UUID      `db:"id"`
	Timezone            string         `db:"timezone"`
	WorkStart           string         `db:"work_start"`
	WorkEnd             string         `db:"work_end"`
	SleepStart          string         `db:"sleep_start"`
	SleepEnd            string         `db:"sleep_end"`
	CategoryDurations   sql.NullString `db:"category_durations"`
	TotalTasksCompleted int            `db:"total_tasks_completed"`
	PendingTask         sql.NullString `db:"pending_task"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func (r userRow) toModel() (models.Profile, error) {
	p := models.Profile{
		ID:                  r.ID,
		Timezone:            r.Timezone,
		WorkHours:           models.ClockWindow{Start: r.WorkStart, End: r.WorkEnd},
		SleepWindow:         models.ClockWindow{Start: r.SleepStart, End: r.SleepEnd},
		CategoryDurations:   map[models.Category]int{},
		TotalTasksCompleted: r.TotalTasksCompleted,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
	// Category averages
	if r.CategoryDurations.Valid && r.CategoryDurations.String != "" {
		if err := sonic.UnmarshalString(r.CategoryDurations.String, &p.CategoryDurations); err != nil {
			return models.Profile{}, fmt.Errorf("decode category durations: %w", err)
		}
	}
	// Pending negotiation, if any
	if r.PendingTask.Valid && r.PendingTask.String != "" && r.PendingTask.String != "null" {
		var pending models.PendingNegotiation
		if err := sonic.UnmarshalString(r.PendingTask.String, &pending); err != nil {
			return models.Profile{}, fmt.Errorf("decode pending task: %w", err)
		}
		p.Pending = &pending
	}
	return p, nil
}

// ProfileRepository reads and writes the users table.
type ProfileRepository struct {
	*base
}

// defaultProfile applies the configured timezone to the model defaults.
func (r *ProfileRepository) defaultProfile(id uuid.UUID) models.Profile {
	p := models.DefaultProfile(id)
	p.Timezone = r.defaultTimezone
	return p
}

// GetProfile returns the stored profile, or defaults when the owner has
// never been seen.
func (r *ProfileRepository) GetProfile(ctx context.Context, ownerID uuid.UUID) (models.Profile, error) {
	b := r.builder()
	query, args := b.Select(userColumns...).
		From(b.Table(usersTable)).
		Where(entsql.EQ("id", ownerID)).
		Query()

	var row userRow
	if err := sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.defaultProfile(ownerID), nil
		}
		return models.Profile{}, fmt.Errorf("get profile %s: %w", ownerID, err)
	}
	return row.toModel()
}

// SaveProfile writes preferences and learning counters. The pending slot is
// left alone; use SetPending for that.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	// Validate preferences
	if err := p.Validate(); err != nil {
		return models.Profile{}, err
	}
	// First save for this owner inserts the row
	if err := r.ensureProfile(ctx, p.ID); err != nil {
		return models.Profile{}, err
	}

	durations, err := sonic.MarshalString(p.CategoryDurations)
	if err != nil {
		return models.Profile{}, fmt.Errorf("encode category durations: %w", err)
	}
	p.UpdatedAt = r.timestamp()

	query, args := r.builder().Update(usersTable).
		Set("timezone", p.Timezone).
		Set("work_start", p.WorkHours.Start).
		Set("work_end", p.WorkHours.End).
		Set("sleep_start", p.SleepWindow.Start).
		Set("sleep_end", p.SleepWindow.End).
		Set("category_durations", durations).
		Set("total_tasks_completed", p.TotalTasksCompleted).
		Set("updated_at", p.UpdatedAt).
		Where(entsql.EQ("id", p.ID)).
		Query()

	// Execute update
	res, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return models.Profile{}, fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	if err := checkRowsAffected(res); err != nil {
		return models.Profile{}, err
	}
	// Reload so the caller sees stored values, pending slot included
	return r.GetProfile(ctx, p.ID)
}

// SetPending replaces the negotiation slot; nil clears it.
func (r *ProfileRepository) SetPending(ctx context.Context, ownerID uuid.UUID, pending *models.PendingNegotiation) error {
	if err := r.ensureProfile(ctx, ownerID); err != nil {
		return err
	}

	upd := r.builder().Update(usersTable).Set("updated_at", r.timestamp())
	if pending == nil {
		upd.SetNull("pending_task")
	} else {
		encoded, err := sonic.MarshalString(pending)
		if err != nil {
			return fmt.Errorf("encode pending task: %w", err)
		}
		upd.Set("pending_task", encoded)
	}

	query, args := upd.Where(entsql.EQ("id", ownerID)).Query()
	if _, err := r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set pending task for %s: %w", ownerID, err)
	}
	return nil
}

// ensureProfile inserts a default row unless one already exists.
func (r *ProfileRepository) ensureProfile(ctx context.Context, ownerID uuid.UUID) error {
	p := r.defaultProfile(ownerID)
	durations, err := sonic.MarshalString(p.CategoryDurations)
	if err != nil {
		return fmt.Errorf("encode category durations: %w", err)
	}
	now := r.timestamp()

	query, args := r.builder().Insert(usersTable).
		Columns("id", "timezone", "work_start", "work_end", "sleep_start", "sleep_end",
			"category_durations", "total_tasks_completed", "created_at", "updated_at").
		Values(p.ID, p.Timezone, p.WorkHours.Start, p.WorkHours.End, p.SleepWindow.Start, p.SleepWindow.End,
			durations, 0, now, now).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	if _, err := r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure profile %s: %w", ownerID, err)
	}
	return nil
}
