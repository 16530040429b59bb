// Package sanitize reduces a raw task payload to the fields the remote API accepts.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"demandhook/internal/service"
)

const (
	// MaxNameLength is the longest task name the remote API accepts, in characters.
	MaxNameLength = 255

	// secondsCutoff separates unix seconds from unix milliseconds in due dates.
	secondsCutoff = 10_000_000_000
)

// Task returns the subset of raw that the remote API accepts, with values
// coerced to the expected types. Unknown keys (custom_fields included) are
// dropped. A missing or empty name is a service.ErrValidation.
func Task(raw service.TaskFields) (service.TaskFields, error) {
	out := service.TaskFields{}

	name := stringify(raw["name"])
	if name == "" {
		return nil, fmt.Errorf("%w: campo 'name' é obrigatório", service.ErrValidation)
	}
	out["name"] = truncate(name, MaxNameLength)

	if s := stringify(raw["description"]); s != "" {
		out["description"] = s
	}
	if s := stringify(raw["status"]); s != "" {
		out["status"] = s
	}
	if p, ok := parseInt(raw["priority"]); ok && p >= service.PriorityUrgent && p <= service.PriorityLow {
		out["priority"] = p
	}
	if due, ok := dueDateMillis(raw["due_date"]); ok {
		out["due_date"] = due
	}
	if ids := assignees(raw["assignees"]); len(ids) > 0 {
		out["assignees"] = ids
	}
	if tags := tags(raw["tags"]); len(tags) > 0 {
		out["tags"] = tags
	}
	if s := stringify(raw["parent"]); s != "" {
		out["parent"] = s
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// stringify renders scalar values the way they appear in JSON.
// nil becomes the empty string.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

// parseInt accepts Go integers, integral floats, json.Number and digit strings.
// Booleans are rejected.
func parseInt(v any) (int64, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.TrimLeft(s, "0123456789") != "" {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return n, err == nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case float64:
		return integral(x)
	case float32:
		return integral(float64(x))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}
		return int64(rv.Uint()), true
	}
	return 0, false
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// number accepts numeric types only; strings are not numbers here.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool, string:
		return 0, false
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if n, ok := parseInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

// dueDateMillis treats values below secondsCutoff, negatives included, as
// unix seconds. Zero and values outside the int64 range are dropped.
func dueDateMillis(v any) (int64, bool) {
	f, ok := number(v)
	if !ok || f == 0 {
		return 0, false
	}
	if f < secondsCutoff {
		f *= 1000
	}
	if !(f > math.MinInt64 && f < math.MaxInt64) {
		return 0, false
	}
	return int64(f), true
}

// AssigneeID parses id the way assignee entries are parsed. ok is false when
// the id would be dropped from a task.
func AssigneeID(id string) (int64, bool) {
	return parseInt(id)
}

func assignees(v any) []int64 {
	var out []int64
	for _, item := range items(v) {
		if n, ok := parseInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

func tags(v any) []string {
	var out []string
	for _, item := range items(v) {
		if s := stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// items flattens any slice or array into []any; other values yield nil.
func items(v any) []any {
	if v == nil {
		return nil
	}
	if xs, ok := v.([]any); ok {
		return xs
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
