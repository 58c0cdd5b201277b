package models

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Priority is ordered so that a smaller value is more urgent.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) IsValid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParsePriority accepts the names in any casing as well as "1".."3".
// An empty value defaults to medium.
func ParsePriority(raw string) (Priority, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !Priority(n).IsValid() {
		return 0, NewValidationError("priority", "unknown priority %q", raw)
	}
	return Priority(n), nil
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts both the string and the numeric form.
func (p *Priority) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = PriorityMedium
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return NewValidationError("priority", "invalid priority %s", data)
		}
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
