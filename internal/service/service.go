// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All remote project-management calls go through this interface.
// The orchestrator never imports a backend package directly.
type Service interface {
	// FindOrCreateList returns the ID of the list named name (case-insensitive,
	// exact match). If none exists, a list with exactly that name is created.
	FindOrCreateList(ctx context.Context, name string) (string, error)

	// CreateTask creates a task in the given list and returns its ID.
	// Fields are sanitized before submission; a missing name is a validation error.
	CreateTask(ctx context.Context, listID string, fields TaskFields) (string, error)

	// CreateChecklist creates a checklist on a task and adds items in order.
	// Item failures are skipped; the checklist ID is returned regardless.
	CreateChecklist(ctx context.Context, taskID, name string, items []string) (string, error)

	// AddChecklistItem adds a single item to an existing checklist.
	AddChecklistItem(ctx context.Context, checklistID, name string) error

	// CreateSubtask creates a task whose parent is parentID, in the parent's list.
	CreateSubtask(ctx context.Context, parentID string, fields TaskFields) (string, error)
}
