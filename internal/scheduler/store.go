package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/clarity/internal/interpreter"
	"github.com/gurkanbulca/clarity/internal/models"
)

// TaskStore is the query shape the scheduler needs from task persistence.
type TaskStore interface {
	FindOverlapping(ctx context.Context, ownerID uuid.UUID, start, end time.Time, exclude ...models.Status) ([]models.Task, error)
	FindByOwnerAndDay(ctx context.Context, ownerID uuid.UUID, dayStart, dayEnd time.Time) ([]models.Task, error)
	CreateBatch(ctx context.Context, tasks []models.Task) ([]models.Task, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, ownerID uuid.UUID) (models.Profile, error)
	SetPending(ctx context.Context, ownerID uuid.UUID, pending *models.PendingNegotiation) error
}

// Store adds the per-owner transaction that makes check-then-write atomic.
type Store interface {
	TaskStore
	ProfileStore
	InOwnerTx(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error
}

type Interpreter interface {
	Interpret(ctx context.Context, command string, uc interpreter.UserContext) (interpreter.Result, error)
}
