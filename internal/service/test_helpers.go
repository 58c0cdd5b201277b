// internal/service/test_helpers.go
package service

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/clarity/internal/database"
	"github.com/gurkanbulca/clarity/internal/models"
	"github.com/gurkanbulca/clarity/internal/repository"

	_ "github.com/mattn/go-sqlite3"
)

// TestHelpers provides common test utilities
type TestHelpers struct {
	t     *testing.T
	store *repository.Store
}

// NewTestHelpers opens a migrated temp-file SQLite store.
func NewTestHelpers(t *testing.T) *TestHelpers {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Driver:     "sqlite3",
		SQLitePath: filepath.Join(t.TempDir(), "clarity.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	return &TestHelpers{
		t:     t,
		store: repository.NewStore(db),
	}
}

func (h *TestHelpers) Store() *repository.Store {
	return h.store
}

// CreateScheduledTask writes a scheduled work task for owner.
func (h *TestHelpers) CreateScheduledTask(owner uuid.UUID, title, start, end string) models.Task {
	h.t.Helper()
	task := models.Task{
		OwnerID:  owner,
		Title:    title,
		Category: models.CategoryWork,
		Priority: models.PriorityMedium,
		Status:   models.StatusScheduled,
	}
	require.NoError(h.t, task.SetInterval(h.Time(start), h.Time(end)))

	var created models.Task
	err := h.store.InOwnerTx(context.Background(), owner, func(ctx context.Context) error {
		var err error
		created, err = h.store.Create(ctx, task)
		return err
	})
	require.NoError(h.t, err)
	return created
}

func (h *TestHelpers) Time(value string) time.Time {
	h.t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	require.NoError(h.t, err)
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func ptr[T any](v T) *T {
	return &v
}
