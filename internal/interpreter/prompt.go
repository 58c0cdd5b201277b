package interpreter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gurkanbulca/clarity/internal/models"
)

// UserContext is what the model needs to resolve relative times and guess
// missing durations.
type UserContext struct {
	CurrentTime       time.Time
	ClientTime        *time.Time
	Timezone          string
	SleepWindow       models.ClockWindow
	WorkHours         models.ClockWindow
	CategoryDurations map[models.Category]int
	Pending           *models.PendingNegotiation
}

func NewUserContext(p models.Profile, now time.Time) UserContext {
	return UserContext{
		CurrentTime:       now,
		Timezone:          p.Timezone,
		SleepWindow:       p.SleepWindow,
		WorkHours:         p.WorkHours,
		CategoryDurations: p.CategoryDurations,
		Pending:           p.Pending,
	}
}

func (c UserContext) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BuildPrompt renders the instruction text sent to the model.
func BuildPrompt(command string, uc UserContext) string {
	loc := uc.Location()

	var b strings.Builder
	b.WriteString("You are Clarity, a personal scheduling assistant.\n\n")
	b.WriteString("CURRENT CONTEXT:\n")
	fmt.Fprintf(&b, "- Current Time: %s (%s)\n", uc.CurrentTime.In(loc).Format(time.RFC3339), loc)
	if uc.ClientTime != nil {
		fmt.Fprintf(&b, "- Device Time: %s\n", uc.ClientTime.In(loc).Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Sleep Window: %s\n", uc.SleepWindow)
	fmt.Fprintf(&b, "- Work Hours: %s\n", uc.WorkHours)
	fmt.Fprintf(&b, "- Average Durations (minutes): %s\n", formatDurations(uc.CategoryDurations))
	if uc.Pending != nil {
		p := uc.Pending.Task
		fmt.Fprintf(&b, "- Awaiting the user's answer: %q", p.Title)
		if p.Start != nil {
			fmt.Fprintf(&b, " suggested at %s", p.Start.In(loc).Format("Mon 3:04 PM"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nRULES:\n")
	b.WriteString(`1. intent is one of ADD_TASK, CONFIRM_TASK (user accepts a suggestion: "yes", "ok", "do it"), ` +
		`REJECT_TASK (user declines: "no", "cancel"), RESCHEDULE, QUERY, FEEDBACK.` + "\n")
	b.WriteString(`2. "at 5" means the next 5 o'clock that is still ahead; if no time is given, suggest one inside work hours.` + "\n")
	b.WriteString("3. Estimate a missing duration from the task type and the average durations above.\n")
	b.WriteString("4. category is one of Work, Personal, Health, Learning; priority is High, Medium or Low.\n")
	b.WriteString("5. isFixed is true for meetings and appointments with other people.\n")
	b.WriteString("6. Do not check for conflicts; only propose times.\n")
	b.WriteString("7. All times are ISO 8601 with the user's UTC offset.\n")

	b.WriteString("\nOUTPUT (a single JSON object, no markdown):\n")
	b.WriteString(`{"intent": "ADD_TASK", "tasks": [{"title": "", "description": "", "category": "", "priority": "", ` +
		`"startTime": "", "endTime": "", "durationMinutes": 0, "isFixed": false}], ` +
		`"feedback": {"taskId": "", "actualDuration": 0}, "responseMessage": ""}` + "\n")
	b.WriteString("Include feedback only for FEEDBACK.\n")

	fmt.Fprintf(&b, "\nCOMMAND: %q\n", command)
	return b.String()
}

func formatDurations(durations map[models.Category]int) string {
	if len(durations) == 0 {
		return "none yet"
	}
	keys := make([]string, 0, len(durations))
	for c := range durations {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, durations[models.Category(k)]))
	}
	return strings.Join(parts, ", ")
}
