package models

import "time"

// Task status flags.
const (
	FlagTodo      = 0
	FlagCurrent   = 1
	FlagFinished  = 2
	FlagCancelled = 3
)

// ValidFlag reports whether the value is one of the defined status flags.
func ValidFlag(flag int) bool {
	return flag >= FlagTodo && flag <= FlagCancelled
}

// Task represents a single task attached to a list. Mutation rights come from
// the owning list's author/editor set, not from the task's own author.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Flag        int        `json:"flag"`
	Author      string     `json:"author"`
	List        string     `json:"list"`
	CreatedAt   time.Time  `json:"createdAt"`
}
