package interpreter

import (
	"github.com/gurkanbulca/clarity/internal/models"
)

// Kind names an intent on the wire.
type Kind string

const (
	KindAddTask     Kind = "ADD_TASK"
	KindConfirmTask Kind = "CONFIRM_TASK"
	KindRejectTask  Kind = "REJECT_TASK"
	KindQuery       Kind = "QUERY"
	KindFeedback    Kind = "FEEDBACK"
	KindReschedule  Kind = "RESCHEDULE"
	KindError       Kind = "ERROR"
)

// Intent is the validated meaning of a command. The set of implementations
// is closed: AddTask, ConfirmTask, RejectTask, Query, Feedback, Reschedule
// and Error.
type Intent interface {
	Kind() Kind
	isIntent()
}

// AddTask proposes one or more new tasks.
type AddTask struct {
	Tasks []models.ProposedTask
}

type ConfirmTask struct{}

type RejectTask struct{}

type Query struct{}

// Feedback reports how long a task actually took.
type Feedback struct {
	TaskID         string
	ActualDuration int
}

// Reschedule asks to move existing tasks; the proposals carry the new times.
type Reschedule struct {
	Tasks []models.ProposedTask
}

// Error is the interpreter giving up, either by its own choice or as the
// local fallback after a failure.
type Error struct {
	Reason string
}

func (AddTask) Kind() Kind     { return KindAddTask }
func (ConfirmTask) Kind() Kind { return KindConfirmTask }
func (RejectTask) Kind() Kind  { return KindRejectTask }
func (Query) Kind() Kind       { return KindQuery }
func (Feedback) Kind() Kind    { return KindFeedback }
func (Reschedule) Kind() Kind  { return KindReschedule }
func (Error) Kind() Kind       { return KindError }

func (AddTask) isIntent()     {}
func (ConfirmTask) isIntent() {}
func (RejectTask) isIntent()  {}
func (Query) isIntent()       {}
func (Feedback) isIntent()    {}
func (Reschedule) isIntent()  {}
func (Error) isIntent()       {}

// Result is what a successful interpretation yields.
type Result struct {
	Intent  Intent
	Message string
}

// FeedbackPayload is the wire form of a Feedback intent.
type FeedbackPayload struct {
	TaskID         string `json:"taskId"`
	ActualDuration int    `json:"actualDuration"`
}

// Interpretation is the wire form of a Result, returned to callers for
// intents the scheduler does not act on.
type Interpretation struct {
	Intent          Kind                  `json:"intent"`
	Tasks           []models.ProposedTask `json:"tasks,omitempty"`
	Feedback        *FeedbackPayload      `json:"feedback,omitempty"`
	ResponseMessage string                `json:"responseMessage"`
}

func (r Result) Interpretation() Interpretation {
	out := Interpretation{ResponseMessage: r.Message}
	if r.Intent == nil {
		out.Intent = KindError
		return out
	}
	out.Intent = r.Intent.Kind()
	switch in := r.Intent.(type) {
	case AddTask:
		out.Tasks = in.Tasks
	case Reschedule:
		out.Tasks = in.Tasks
	case Feedback:
		out.Feedback = &FeedbackPayload{TaskID: in.TaskID, ActualDuration: in.ActualDuration}
	}
	return out
}

const FallbackMessage = "I'm having trouble thinking right now. Please try again."

// Fallback is the stable response used whenever interpretation fails.
func Fallback() Result {
	return Result{
		Intent:  Error{Reason: FallbackMessage},
		Message: FallbackMessage,
	}
}
