package schedulerv1

import (
	"time"

	"github.com/google/uuid"

	"github.com/gurkanbulca/clarity/internal/models"
)

// CommandRequest is the natural-language command payload.
type CommandRequest struct {
	Command   string     `json:"command"`
	LocalTime *time.Time `json:"localTime,omitempty"`
}

type ListTasksRequest struct {
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	IncludeUnscheduled bool      `json:"includeUnscheduled,omitempty"`
}

type ListTasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

type CreateTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	Start       *time.Time      `json:"start,omitempty"`
	End         *time.Time      `json:"end,omitempty"`
	Duration    int             `json:"duration,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	IsFixed     bool            `json:"isFixed,omitempty"`
}

// UpdateTaskRequest is a partial update; absent fields are left untouched.
type UpdateTaskRequest struct {
	ID             uuid.UUID        `json:"id"`
	Title          *string          `json:"title,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Priority       *models.Priority `json:"priority,omitempty"`
	Status         *string          `json:"status,omitempty"`
	Start          *time.Time       `json:"start,omitempty"`
	End            *time.Time       `json:"end,omitempty"`
	DueDate        *time.Time       `json:"dueDate,omitempty"`
	IsFixed        *bool            `json:"isFixed,omitempty"`
	ActualDuration *int             `json:"actualDuration,omitempty"`
}

type DeleteTaskRequest struct {
	ID uuid.UUID `json:"id"`
}

type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

type UpdateProfileRequest struct {
	Timezone          *string             `json:"timezone,omitempty"`
	WorkHours         *models.ClockWindow `json:"workHours,omitempty"`
	SleepWindow       *models.ClockWindow `json:"sleepTime,omitempty"`
	CategoryDurations map[string]int      `json:"categoryDurations,omitempty"`
}
