package model

import (
	"fmt"
	"strings"
	"time"
)

// Day is the weekday label a task is scheduled on.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Weekdays lists the days in display order.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay normalizes a weekday label ("Monday", " monday ") to a Day.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range Weekdays {
		if d == w {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}

// Task is a weekly chore assigned to one user.
type Task struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Day       Day    `json:"day"`
	UserID    int    `json:"userId"`
	Completed bool   `json:"completed"`

	// CompletedAt is set once, when the task is completed.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
