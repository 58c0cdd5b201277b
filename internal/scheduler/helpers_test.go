package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/clarity/internal/interpreter"
	"github.com/gurkanbulca/clarity/internal/models"
)

// memStore is an in-memory Store. InOwnerTx does not isolate anything; the
// orchestrator's per-user lock is what serializes the tests that need it.
type memStore struct {
	mu       sync.Mutex
	tasks    []models.Task
	profiles map[uuid.UUID]models.Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[uuid.UUID]models.Profile)}
}

func (s *memStore) InOwnerTx(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) FindOverlapping(_ context.Context, ownerID uuid.UUID, start, end time.Time, exclude ...models.Status) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Task
	for _, t := range s.tasks {
		if t.OwnerID != ownerID || !t.Overlaps(start, end) || excluded(t.Status, exclude) {
			continue
		}
		out = append(out, t)
	}
	sortByStart(out)
	return out, nil
}

func (s *memStore) FindByOwnerAndDay(ctx context.Context, ownerID uuid.UUID, dayStart, dayEnd time.Time) ([]models.Task, error) {
	return s.FindOverlapping(ctx, ownerID, dayStart, dayEnd)
}

func (s *memStore) CreateBatch(_ context.Context, tasks []models.Task) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		t.ID = uuid.New()
		out = append(out, t)
	}
	s.tasks = append(s.tasks, out...)
	return out, nil
}

func (s *memStore) GetProfile(_ context.Context, ownerID uuid.UUID) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[ownerID]; ok {
		return p, nil
	}
	p := models.DefaultProfile(ownerID)
	p.Timezone = "UTC"
	return p, nil
}

func (s *memStore) SetPending(ctx context.Context, ownerID uuid.UUID, pending *models.PendingNegotiation) error {
	p, _ := s.GetProfile(ctx, ownerID)
	p.Pending = pending

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[ownerID] = p
	return nil
}

func (s *memStore) pending(ownerID uuid.UUID) *models.PendingNegotiation {
	p, _ := s.GetProfile(context.Background(), ownerID)
	return p.Pending
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func excluded(status models.Status, exclude []models.Status) bool {
	for _, e := range exclude {
		if status == e {
			return true
		}
	}
	return false
}

// interpretFunc adapts a function to the Interpreter interface.
type interpretFunc func(ctx context.Context, command string, uc interpreter.UserContext) (interpreter.Result, error)

func (f interpretFunc) Interpret(ctx context.Context, command string, uc interpreter.UserContext) (interpreter.Result, error) {
	return f(ctx, command, uc)
}

func returning(intent interpreter.Intent, message string) interpretFunc {
	return func(context.Context, string, interpreter.UserContext) (interpreter.Result, error) {
		return interpreter.Result{Intent: intent, Message: message}, nil
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return out
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func activeTask(t *testing.T, owner uuid.UUID, title, start, end string) models.Task {
	t.Helper()
	task := models.Task{
		ID:       uuid.New(),
		OwnerID:  owner,
		Title:    title,
		Category: models.CategoryWork,
		Priority: models.PriorityMedium,
		Status:   models.StatusScheduled,
	}
	require.NoError(t, task.SetInterval(mustTime(t, start), mustTime(t, end)))
	return task
}

func proposal(t *testing.T, title, start, end string) models.ProposedTask {
	t.Helper()
	s, e := mustTime(t, start), mustTime(t, end)
	return models.ProposedTask{
		Title:           title,
		Category:        models.CategoryWork,
		Priority:        models.PriorityMedium,
		Start:           &s,
		End:             &e,
		DurationMinutes: models.DurationMinutes(s, e),
	}
}

// parsing runs raw model output through interpreter.Parse, as the Gemini
// client does.
func parsing(text string) interpretFunc {
	return func(context.Context, string, interpreter.UserContext) (interpreter.Result, error) {
		return interpreter.Parse(text, time.UTC)
	}
}

// requireExactDuration checks that every task of owner spans exactly its
// duration.
func requireExactDuration(t *testing.T, s *memStore, owner uuid.UUID) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range s.tasks {
		if task.OwnerID != owner || !task.HasInterval() {
			continue
		}
		require.NoError(t, task.Validate(), task.Title)
		require.Equal(t, time.Duration(task.Duration)*time.Minute, task.End.Sub(*task.Start), task.Title)
	}
}
