package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gurkanbulca/clarity/internal/interpreter"
	"github.com/gurkanbulca/clarity/internal/models"
)

const (
	MessageConfirmed        = "Done! I've scheduled it."
	MessageRejected         = "No problem, I've cleared that suggestion."
	MessageNothingToConfirm = "Nothing to confirm."
	MessageScheduled        = "Scheduled."

	MaxCommandLength = 2000

	tracerName = "github.com/gurkanbulca/clarity/internal/scheduler"
)

// Action tells the caller whether the user has to answer a suggestion.
type Action string

const (
	ActionNone     Action = "NONE"
	ActionConflict Action = "CONFLICT"
)

// Command is one natural-language request from a user.
type Command struct {
	Text      string
	LocalTime *time.Time
}

// CommandResult is the response payload for a command.
type CommandResult struct {
	ActionRequired     Action                      `json:"actionRequired"`
	Intent             interpreter.Kind            `json:"intent"`
	Tasks              []models.Task               `json:"tasks,omitempty"`
	ConflictWith       string                      `json:"conflictWith,omitempty"`
	SuggestedStartTime *time.Time                  `json:"suggestedStartTime,omitempty"`
	Message            string                      `json:"message"`
	AIInterpretation   *interpreter.Interpretation `json:"aiInterpretation,omitempty"`
}

type Config struct {
	InterpreterTimeout time.Duration
	DefaultDuration    int
	HorizonDays        int
	Now                func() time.Time
}

// Orchestrator turns interpreted commands into task writes and negotiations.
type Orchestrator struct {
	store       Store
	interpreter Interpreter
	conflicts   *ConflictDetector
	slots       *SlotFinder
	locks       *userLocks
	logger      *logrus.Logger

	now             func() time.Time
	timeout         time.Duration
	defaultDuration int
}

func NewOrchestrator(store Store, interp Interpreter, cfg Config, logger *logrus.Logger) *Orchestrator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InterpreterTimeout <= 0 {
		cfg.InterpreterTimeout = 15 * time.Second
	}
	if models.CheckDuration(cfg.DefaultDuration) != nil {
		cfg.DefaultDuration = 60
	}
	return &Orchestrator{
		store:           store,
		interpreter:     interp,
		conflicts:       NewConflictDetector(store),
		slots:           NewSlotFinder(store, cfg.Now, cfg.HorizonDays),
		locks:           newUserLocks(),
		logger:          logger,
		now:             cfg.Now,
		timeout:         cfg.InterpreterTimeout,
		defaultDuration: cfg.DefaultDuration,
	}
}

// HandleCommand interprets cmd for the owner and acts on the intent.
// Interpreter failures never surface as errors; they become the fallback
// response. Errors returned are validation or store failures.
func (o *Orchestrator) HandleCommand(ctx context.Context, ownerID uuid.UUID, cmd Command) (*CommandResult, error) {
	cmd.Text = strings.TrimSpace(cmd.Text)
	if cmd.Text == "" {
		return nil, models.NewValidationError("command", "command is required")
	}
	if utf8.RuneCountInString(cmd.Text) > MaxCommandLength {
		return nil, models.NewValidationError("command", "command must be at most %d characters", MaxCommandLength)
	}

	profile, err := o.store.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	res := o.interpret(ctx, ownerID, cmd, profile)
	log := o.logger.WithFields(logrus.Fields{
		"user_id": ownerID,
		"intent":  res.Intent.Kind(),
	})

	var result *CommandResult
	switch intent := res.Intent.(type) {
	case interpreter.AddTask:
		result, err = o.addTasks(ctx, ownerID, cmd.Text, profile.Location(), intent, res)
	case interpreter.ConfirmTask:
		result, err = o.confirm(ctx, ownerID)
	case interpreter.RejectTask:
		result, err = o.reject(ctx, ownerID)
	default:
		result = passthrough(res)
	}
	if err != nil {
		log.WithError(err).Error("command failed")
		return nil, err
	}

	log.WithField("action", result.ActionRequired).Info("command handled")
	return result, nil
}

func (o *Orchestrator) interpret(ctx context.Context, ownerID uuid.UUID, cmd Command, profile models.Profile) interpreter.Result {
	uc := interpreter.NewUserContext(profile, o.now())
	uc.ClientTime = cmd.LocalTime

	ictx, span := otel.Tracer(tracerName).Start(ctx, "scheduler.interpret",
		trace.WithAttributes(attribute.String("user_id", ownerID.String())))
	defer span.End()
	ictx, cancel := context.WithTimeout(ictx, o.timeout)
	defer cancel()

	res, err := o.interpreter.Interpret(ictx, cmd.Text, uc)
	if err == nil && res.Intent == nil {
		err = &interpreter.Failure{Stage: interpreter.StageValidate, Err: fmt.Errorf("no intent")}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interpreter failed")
		o.logger.WithFields(logrus.Fields{
			"user_id": ownerID,
			"error":   err,
		}).Warn("interpreter failed, using fallback")
		return interpreter.Fallback()
	}
	span.SetAttributes(attribute.String("intent", string(res.Intent.Kind())))
	span.SetStatus(codes.Ok, "")
	return res
}

// addTasks commits the whole batch, or nothing: the first proposal that
// collides with the timeline or with an earlier proposal of the same batch
// becomes the pending negotiation.
func (o *Orchestrator) addTasks(ctx context.Context, ownerID uuid.UUID, command string, loc *time.Location, intent interpreter.AddTask, res interpreter.Result) (*CommandResult, error) {
	unlock := o.locks.Lock(ownerID)
	defer unlock()

	var result *CommandResult
	err := o.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		profile, err := o.store.GetProfile(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}

		batch := make([]models.Task, 0, len(intent.Tasks))
		for _, proposal := range intent.Tasks {
			proposal = o.complete(proposal, profile)

			if proposal.HasInterval() {
				blocking, err := o.conflicts.FindConflict(ctx, ownerID, *proposal.Start, *proposal.End)
				if err != nil {
					return err
				}
				if blocking == nil {
					blocking = FirstConflict(batch, *proposal.Start, *proposal.End)
				}
				if blocking != nil {
					result, err = o.negotiate(ctx, ownerID, loc, proposal, command, *blocking, &res)
					return err
				}
			}
			batch = append(batch, proposal.ToTask(ownerID, command))
		}

		saved, err := o.store.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("save tasks: %w", err)
		}
		if err := o.store.SetPending(ctx, ownerID, nil); err != nil {
			return fmt.Errorf("clear pending task: %w", err)
		}

		message := res.Message
		if message == "" {
			message = MessageScheduled
		}
		result = &CommandResult{
			ActionRequired: ActionNone,
			Intent:         interpreter.KindAddTask,
			Tasks:          saved,
			Message:        message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// confirm commits the pending negotiation. The slot is re-checked because the
// timeline may have changed since the suggestion was made.
func (o *Orchestrator) confirm(ctx context.Context, ownerID uuid.UUID) (*CommandResult, error) {
	unlock := o.locks.Lock(ownerID)
	defer unlock()

	var result *CommandResult
	err := o.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		profile, err := o.store.GetProfile(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if profile.Pending == nil {
			result = &CommandResult{
				ActionRequired: ActionNone,
				Intent:         interpreter.KindConfirmTask,
				Message:        MessageNothingToConfirm,
			}
			return nil
		}

		pending := *profile.Pending
		proposal := o.complete(pending.Task, profile)
		if proposal.HasInterval() {
			blocking, err := o.conflicts.FindConflict(ctx, ownerID, *proposal.Start, *proposal.End)
			if err != nil {
				return err
			}
			if blocking != nil {
				result, err = o.negotiate(ctx, ownerID, profile.Location(), proposal, pending.OriginalCommand, *blocking, nil)
				return err
			}
		}

		saved, err := o.store.CreateBatch(ctx, []models.Task{proposal.ToTask(ownerID, pending.OriginalCommand)})
		if err != nil {
			return fmt.Errorf("save confirmed task: %w", err)
		}
		if err := o.store.SetPending(ctx, ownerID, nil); err != nil {
			return fmt.Errorf("clear pending task: %w", err)
		}
		result = &CommandResult{
			ActionRequired: ActionNone,
			Intent:         interpreter.KindConfirmTask,
			Tasks:          saved,
			Message:        MessageConfirmed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) reject(ctx context.Context, ownerID uuid.UUID) (*CommandResult, error) {
	unlock := o.locks.Lock(ownerID)
	defer unlock()

	err := o.store.InOwnerTx(ctx, ownerID, func(ctx context.Context) error {
		return o.store.SetPending(ctx, ownerID, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("clear pending task: %w", err)
	}
	return &CommandResult{
		ActionRequired: ActionNone,
		Intent:         interpreter.KindRejectTask,
		Message:        MessageRejected,
	}, nil
}

// negotiate stores proposal, moved to the first free slot, as the owner's
// pending task. It must run inside the owner transaction.
func (o *Orchestrator) negotiate(ctx context.Context, ownerID uuid.UUID, loc *time.Location, proposal models.ProposedTask, command string, blocking models.Task, res *interpreter.Result) (*CommandResult, error) {
	duration := proposal.DurationMinutes
	if models.CheckDuration(duration) != nil {
		duration = o.defaultDuration
	}

	suggested, err := o.slots.FindAlternative(ctx, ownerID, *proposal.Start, duration, loc)
	if err != nil {
		return nil, err
	}
	start := suggested.UTC()
	end := start.Add(time.Duration(duration) * time.Minute)

	moved := proposal
	moved.Start, moved.End = &start, &end
	moved.DurationMinutes = duration

	pending := &models.PendingNegotiation{
		Task:            moved,
		OriginalCommand: command,
		ConflictWith:    blocking.Title,
		CreatedAt:       o.now().UTC(),
	}
	if err := o.store.SetPending(ctx, ownerID, pending); err != nil {
		return nil, fmt.Errorf("save pending task: %w", err)
	}

	o.logger.WithFields(logrus.Fields{
		"user_id":       ownerID,
		"conflict_with": blocking.ID,
		"suggested":     start,
	}).Info("conflict detected, suggestion pending")

	result := &CommandResult{
		ActionRequired:     ActionConflict,
		Intent:             interpreter.KindAddTask,
		ConflictWith:       blocking.Title,
		SuggestedStartTime: &start,
		Message: fmt.Sprintf("You have a conflict with %q. How about moving this to %s?",
			blocking.Title, start.In(loc).Format("3:04 PM")),
	}
	if res != nil {
		wire := res.Interpretation()
		result.AIInterpretation = &wire
	} else {
		result.Intent = interpreter.KindConfirmTask
	}
	return result, nil
}

// complete settles a proposal's duration. An interval fixes it; otherwise a
// missing duration comes from the learned category average or the configured
// default, and a missing end is derived from it.
func (o *Orchestrator) complete(p models.ProposedTask, profile models.Profile) models.ProposedTask {
	if p.HasInterval() {
		p.DurationMinutes = models.DurationMinutes(*p.Start, *p.End)
		return p
	}
	if models.CheckDuration(p.DurationMinutes) != nil {
		p.DurationMinutes = profile.CategoryDurations[p.Category]
		if models.CheckDuration(p.DurationMinutes) != nil {
			p.DurationMinutes = o.defaultDuration
		}
	}
	if p.Start != nil {
		end := p.Start.Add(time.Duration(p.DurationMinutes) * time.Minute)
		p.End = &end
	}
	return p
}

func passthrough(res interpreter.Result) *CommandResult {
	wire := res.Interpretation()
	return &CommandResult{
		ActionRequired:   ActionNone,
		Intent:           wire.Intent,
		Message:          res.Message,
		AIInterpretation: &wire,
	}
}
