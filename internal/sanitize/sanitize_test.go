package sanitize

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandhook/internal/service"
)

func TestTask_RequiresName(t *testing.T) {
	for _, raw := range []service.TaskFields{
		{},
		{"name": ""},
		{"name": nil},
		{"description": "sem nome"},
	} {
		_, err := Task(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrValidation), "expected validation error, got %v", err)
	}
}

func TestTask_TruncatesNameByCharacters(t *testing.T) {
	long := strings.Repeat("ç", 300)
	got, err := Task(service.TaskFields{"name": long})
	require.NoError(t, err)
	assert.Equal(t, 255, len([]rune(got.Name())))
}

func TestTask_DueDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"seconds", 1750000000, int64(1750000000000)},
		{"seconds float", float64(1750000000), int64(1750000000000)},
		{"milliseconds", int64(1750000000000), int64(1750000000000)},
		{"json number", json.Number("1750000000"), int64(1750000000000)},
		{"string dropped", "1750000000", nil},
		{"zero dropped", 0, nil},
		{"negative seconds", -5, int64(-5000)},
		{"negative float seconds", float64(-1.5), int64(-1500)},
		{"out of range dropped", float64(1e30), nil},
		{"nan dropped", math.NaN(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Task(service.TaskFields{"name": "x", "due_date": tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got["due_date"])
		})
	}
}

func TestTask_Priority(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{3, int64(3)},
		{"1", int64(1)},
		{float64(4), int64(4)},
		{json.Number("2"), int64(2)},
		{0, nil},
		{5, nil},
		{"normal", nil},
		{"3.0", nil},
		{float64(2.5), nil},
		{true, nil},
	}
	for _, tt := range tests {
		got, err := Task(service.TaskFields{"name": "x", "priority": tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got["priority"], "priority input %#v", tt.in)
	}
}

func TestTask_AssigneesAndTags(t *testing.T) {
	got, err := Task(service.TaskFields{
		"name":      "x",
		"assignees": []any{"200493732", "victor", float64(99908367), nil},
		"tags":      []string{"urgente", "", "cliente"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{200493732, 99908367}, got["assignees"])
	assert.Equal(t, []string{"urgente", "cliente"}, got["tags"])

	got, err = Task(service.TaskFields{"name": "x", "assignees": []string{"ninguem"}, "tags": []any{}})
	require.NoError(t, err)
	assert.NotContains(t, got, "assignees")
	assert.NotContains(t, got, "tags")
}

func TestTask_DropsUnknownFields(t *testing.T) {
	got, err := Task(service.TaskFields{
		"name":          "x",
		"custom_fields": []any{map[string]any{"id": "abc", "value": 1}},
		"list":          "123",
		"parent":        json.Number("868"),
		"status":        "to do",
	})
	require.NoError(t, err)
	assert.Equal(t, service.TaskFields{"name": "x", "parent": "868", "status": "to do"}, got)
}

func TestTask_Idempotent(t *testing.T) {
	inputs := []service.TaskFields{
		{
			"name":          strings.Repeat("a", 400),
			"description":   "descrição",
			"priority":      "3",
			"due_date":      1750000000,
			"assignees":     []any{"1", 2, "x"},
			"tags":          []any{"a", 1},
			"parent":        12345,
			"custom_fields": "dropped",
		},
		{"name": "only"},
		{"name": "ms", "due_date": int64(1750000000000), "priority": 9},
	}
	for _, in := range inputs {
		once, err := Task(in)
		require.NoError(t, err)
		twice, err := Task(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestAssigneeID(t *testing.T) {
	n, ok := AssigneeID(" 200493732 ")
	assert.True(t, ok)
	assert.Equal(t, int64(200493732), n)

	for _, id := range []string{"", "abc", "12a", "-5"} {
		_, ok := AssigneeID(id)
		assert.False(t, ok, id)
	}
}
