// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"demandhook/internal/sanitize"
	"demandhook/internal/service"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = &service.RemoteError{Op: "fake", Status: 500, Text: "injected failure"}

// Checklist is a checklist recorded by FakeService.
type Checklist struct {
	ID     string
	TaskID string
	Name   string
	Items  []string
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu         sync.Mutex
	nextID     int
	lists      []service.TaskList
	tasks      map[string]service.TaskFields // taskID -> sanitized fields
	taskList   map[string]string             // taskID -> listID
	checklists []Checklist
	calls      map[string]int

	// Error injection for testing
	FindOrCreateListErr error
	CreateTaskErr       error
	CreateChecklistErr  error
	ItemErrs            map[string]error // item name -> error
	SubtaskErrs         map[string]error // subtask name -> error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tasks:       make(map[string]service.TaskFields),
		taskList:    make(map[string]string),
		calls:       make(map[string]int),
		ItemErrs:    make(map[string]error),
		SubtaskErrs: make(map[string]error),
	}
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Name: name})
}

// Calls returns how many times method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Lists returns a copy of the known lists.
func (f *FakeService) Lists() []service.TaskList {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.TaskList, len(f.lists))
	copy(out, f.lists)
	return out
}

// Task returns the sanitized fields a task was created with.
func (f *FakeService) Task(id string) (service.TaskFields, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Checklists returns the recorded checklists with their successfully added items.
func (f *FakeService) Checklists() []Checklist {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Checklist, len(f.checklists))
	copy(out, f.checklists)
	return out
}

func (f *FakeService) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

// FindOrCreateList implements service.Service.
func (f *FakeService) FindOrCreateList(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["FindOrCreateList"]++
	if f.FindOrCreateListErr != nil {
		return "", f.FindOrCreateListErr
	}
	for _, l := range f.lists {
		if strings.EqualFold(l.Name, name) {
			return l.ID, nil
		}
	}
	id := f.id("list-")
	f.lists = append(f.lists, service.TaskList{ID: id, Name: name})
	return id, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, listID string, fields service.TaskFields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateTask"]++
	clean, err := sanitize.Task(fields)
	if err != nil {
		return "", err
	}
	if f.CreateTaskErr != nil {
		return "", f.CreateTaskErr
	}
	id := f.id("task-")
	f.tasks[id] = clean
	f.taskList[id] = listID
	return id, nil
}

// CreateChecklist implements service.Service.
func (f *FakeService) CreateChecklist(ctx context.Context, taskID, name string, items []string) (string, error) {
	f.mu.Lock()
	f.calls["CreateChecklist"]++
	if f.CreateChecklistErr != nil {
		f.mu.Unlock()
		return "", f.CreateChecklistErr
	}
	id := f.id("checklist-")
	f.checklists = append(f.checklists, Checklist{ID: id, TaskID: taskID, Name: name})
	f.mu.Unlock()

	for _, item := range items {
		// Item failures are skipped, as in the real client.
		_ = f.AddChecklistItem(ctx, id, item)
	}
	return id, nil
}

// AddChecklistItem implements service.Service.
func (f *FakeService) AddChecklistItem(ctx context.Context, checklistID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddChecklistItem"]++
	if err := f.ItemErrs[name]; err != nil {
		return err
	}
	for i := range f.checklists {
		if f.checklists[i].ID == checklistID {
			f.checklists[i].Items = append(f.checklists[i].Items, name)
			return nil
		}
	}
	return &service.RemoteError{Op: "add checklist item", Status: 404, Text: "checklist not found"}
}

// CreateSubtask implements service.Service.
func (f *FakeService) CreateSubtask(ctx context.Context, parentID string, fields service.TaskFields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateSubtask"]++
	fields = fields.Clone()
	fields["parent"] = parentID
	clean, err := sanitize.Task(fields)
	if err != nil {
		return "", err
	}
	if err := f.SubtaskErrs[clean.Name()]; err != nil {
		return "", err
	}
	listID, ok := f.taskList[parentID]
	if !ok {
		return "", &service.RemoteError{Op: "get task", Status: 404, Text: "parent not found"}
	}
	id := f.id("subtask-")
	f.tasks[id] = clean
	f.taskList[id] = listID
	return id, nil
}
