package interpreter

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gurkanbulca/clarity/internal/models"
)

type rawTask struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Priority        models.Priority `json:"priority"`
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	SuggestedTime   string          `json:"suggestedTime"`
	DurationMinutes float64         `json:"durationMinutes"`
	IsFixed         bool            `json:"isFixed"`
	Date            string          `json:"date"`
	DueDate         string          `json:"dueDate"`
}

type rawFeedback struct {
	TaskID         string  `json:"taskId"`
	ActualDuration float64 `json:"actualDuration"`
}

type rawInterpretation struct {
	Intent          string       `json:"intent"`
	Tasks           []rawTask    `json:"tasks"`
	Feedback        *rawFeedback `json:"feedback"`
	ResponseMessage string       `json:"responseMessage"`
}

// Parse decodes model output and validates it into a Result. Times without
// an offset are read in loc.
func Parse(text string, loc *time.Location) (Result, error) {
	body := stripFences(text)
	if body == "" {
		return Result{}, fail(StageDecode, errors.New("empty response"))
	}

	var raw rawInterpretation
	if err := sonic.UnmarshalString(body, &raw); err != nil {
		return Result{}, fail(StageDecode, err)
	}

	intent, err := raw.validate(loc)
	if err != nil {
		return Result{}, err
	}
	return Result{Intent: intent, Message: strings.TrimSpace(raw.ResponseMessage)}, nil
}

func (r rawInterpretation) validate(loc *time.Location) (Intent, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(r.Intent))) {
	case KindAddTask:
		if len(r.Tasks) == 0 {
			return nil, failf(StageValidate, "ADD_TASK without tasks")
		}
		tasks, err := normalizeTasks(r.Tasks, loc)
		if err != nil {
			return nil, err
		}
		return AddTask{Tasks: tasks}, nil
	case KindReschedule:
		tasks, err := normalizeTasks(r.Tasks, loc)
		if err != nil {
			return nil, err
		}
		return Reschedule{Tasks: tasks}, nil
	case KindFeedback:
		if r.Feedback == nil || strings.TrimSpace(r.Feedback.TaskID) == "" {
			return nil, failf(StageValidate, "FEEDBACK without taskId")
		}
		if r.Feedback.ActualDuration > models.MaxDurationMinutes {
			return nil, failf(StageValidate, "FEEDBACK actualDuration must be at most %d minutes", models.MaxDurationMinutes)
		}
		actual := int(math.Round(r.Feedback.ActualDuration))
		if actual <= 0 {
			return nil, failf(StageValidate, "FEEDBACK actualDuration must be positive")
		}
		return Feedback{TaskID: strings.TrimSpace(r.Feedback.TaskID), ActualDuration: actual}, nil
	case KindConfirmTask:
		return ConfirmTask{}, nil
	case KindRejectTask:
		return RejectTask{}, nil
	case KindQuery:
		return Query{}, nil
	case KindError:
		return Error{Reason: r.ResponseMessage}, nil
	default:
		return nil, failf(StageValidate, "unknown intent %q", r.Intent)
	}
}

func normalizeTasks(raw []rawTask, loc *time.Location) ([]models.ProposedTask, error) {
	tasks := make([]models.ProposedTask, 0, len(raw))
	for i, rt := range raw {
		p, err := rt.normalize(loc)
		if err != nil {
			return nil, failf(StageValidate, "task %d: %w", i, err)
		}
		tasks = append(tasks, p)
	}
	return tasks, nil
}

// normalize fills derived fields. A missing end is left for the scheduler to
// derive from the duration it settles on.
func (rt rawTask) normalize(loc *time.Location) (models.ProposedTask, error) {
	p := models.ProposedTask{
		Title:       strings.TrimSpace(rt.Title),
		Description: strings.TrimSpace(rt.Description),
		Priority:    rt.Priority,
		IsFixed:     rt.IsFixed,
	}
	if p.Title == "" {
		return p, models.NewValidationError("title", "title is required")
	}
	if p.Priority == 0 {
		p.Priority = models.PriorityMedium
	}

	category, err := models.ParseCategory(rt.Category)
	if err != nil {
		return p, err
	}
	p.Category = category

	if rt.DurationMinutes < 0 || rt.DurationMinutes > models.MaxDurationMinutes {
		return p, models.NewValidationError("durationMinutes", "duration must be between 0 and %d minutes", models.MaxDurationMinutes)
	}
	p.DurationMinutes = int(math.Round(rt.DurationMinutes))

	startRaw := rt.StartTime
	if startRaw == "" {
		startRaw = rt.SuggestedTime
	}
	if p.Start, err = parseOptionalInstant("startTime", startRaw, loc); err != nil {
		return p, err
	}
	if p.End, err = parseOptionalInstant("endTime", rt.EndTime, loc); err != nil {
		return p, err
	}
	switch {
	case p.Start == nil && p.End != nil:
		return p, models.NewValidationError("startTime", "endTime given without startTime")
	case p.HasInterval():
		if !p.Start.Before(*p.End) {
			return p, models.NewValidationError("endTime", "endTime must be after startTime")
		}
		if err := models.CheckInterval(*p.Start, *p.End); err != nil {
			return p, err
		}
		start, end := p.Start.Truncate(time.Minute), p.End.Truncate(time.Minute)
		p.Start, p.End = &start, &end
		p.DurationMinutes = models.DurationMinutes(start, end)
	case p.Start != nil:
		start := p.Start.Truncate(time.Minute)
		p.Start = &start
		if p.DurationMinutes > 0 {
			end := start.Add(time.Duration(p.DurationMinutes) * time.Minute)
			p.End = &end
		}
	}

	if p.Date, err = parseOptionalDate("date", rt.Date, loc); err != nil {
		return p, err
	}
	if p.DueDate, err = parseOptionalDate("dueDate", rt.DueDate, loc); err != nil {
		return p, err
	}
	return p, nil
}

var zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseInstant accepts RFC 3339 or a wall-clock timestamp in loc.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}

func parseOptionalInstant(field, value string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseInstant(value, loc)
	if err != nil {
		return nil, models.NewValidationError(field, "%q: %v", value, err)
	}
	return &t, nil
}

func parseOptionalDate(field, value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if d, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		d = d.UTC()
		return &d, nil
	}
	return parseOptionalInstant(field, value, loc)
}

// stripFences removes markdown code fences the model sometimes wraps around
// its JSON.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}
