// Package service defines the backend-agnostic interface for task operations.
package service

// TaskFields is the JSON object submitted when creating a task or subtask.
// Keys follow the remote API: name, description, status, priority, due_date,
// assignees, tags, parent.
type TaskFields map[string]any

// Clone returns a shallow copy of the fields.
func (f TaskFields) Clone() TaskFields {
	out := make(TaskFields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Name returns the name field when it is a string.
func (f TaskFields) Name() string {
	s, _ := f["name"].(string)
	return s
}

// TaskList represents a list in the remote workspace.
type TaskList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task represents a task as returned by the remote API.
type Task struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	ListID string `json:"-"`
	Parent string `json:"parent,omitempty"`
}

// Priority values accepted by the remote API.
const (
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityNormal = 3
	PriorityLow    = 4
)
