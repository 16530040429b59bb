// Package demand turns an inbound work demand into a task hierarchy on the
// remote service: a per-company list, the main task, a checklist and subtasks.
package demand

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Demand is the inbound payload. JSON keys are part of the webhook contract.
type Demand struct {
	Company     string   `json:"empresa"`
	Title       string   `json:"tarefa"`
	Type        string   `json:"tipo"`
	Team        string   `json:"equipe"`
	Hours       string   `json:"hora"`
	Description string   `json:"descricao,omitempty"`
	Responsible string   `json:"responsavel,omitempty"`
	DueUnix     string   `json:"data_hora_entrega,omitempty"`
	DueDate     string   `json:"data_entrega,omitempty"`
	Checklist   []string `json:"checklist,omitempty"`
	Subtasks    []string `json:"subtarefas,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// scalar accepts a JSON string, number or boolean and keeps its text.
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*s = scalar(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*s = scalar(n.String())
	}
	return nil
}

// UnmarshalJSON accepts numbers where senders commonly use them, such as
// hours and the unix delivery timestamp.
func (d *Demand) UnmarshalJSON(b []byte) error {
	var w struct {
		Company     scalar   `json:"empresa"`
		Title       scalar   `json:"tarefa"`
		Type        scalar   `json:"tipo"`
		Team        scalar   `json:"equipe"`
		Hours       scalar   `json:"hora"`
		Description scalar   `json:"descricao"`
		Responsible scalar   `json:"responsavel"`
		DueUnix     scalar   `json:"data_hora_entrega"`
		DueDate     scalar   `json:"data_entrega"`
		Checklist   []string `json:"checklist"`
		Subtasks    []string `json:"subtarefas"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*d = Demand{
		Company:     string(w.Company),
		Title:       string(w.Title),
		Type:        string(w.Type),
		Team:        string(w.Team),
		Hours:       string(w.Hours),
		Description: string(w.Description),
		Responsible: string(w.Responsible),
		DueUnix:     string(w.DueUnix),
		DueDate:     string(w.DueDate),
		Checklist:   w.Checklist,
		Subtasks:    w.Subtasks,
		Tags:        w.Tags,
	}
	return nil
}

// Validate checks the required fields in wire order.
func (d Demand) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"empresa", d.Company},
		{"tarefa", d.Title},
		{"tipo", d.Type},
		{"equipe", d.Team},
		{"hora", d.Hours},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field}
		}
	}
	return nil
}

// dueMillis resolves the delivery date in milliseconds. A unix timestamp
// takes precedence over a calendar date; ok is false when neither parses.
func (d Demand) dueMillis() (ms int64, ok bool, err error) {
	if s := strings.TrimSpace(d.DueUnix); s != "" {
		f, perr := strconv.ParseFloat(s, 64)
		if perr == nil && f > 0 {
			if ms, ok := secondsToMillis(f); ok {
				return ms, true, nil
			}
		}
		err = fmt.Errorf("data_hora_entrega inválida: %q", d.DueUnix)
	}
	if s := strings.TrimSpace(d.DueDate); s != "" {
		t, perr := time.ParseInLocation("2006-01-02", s, time.UTC)
		if perr != nil {
			return 0, false, fmt.Errorf("formato de data inválido: %q", d.DueDate)
		}
		return t.UnixMilli(), true, err
	}
	return 0, false, err
}

// secondsToMillis truncates f to whole seconds and scales it to
// milliseconds. ok is false when the result does not fit in an int64.
func secondsToMillis(f float64) (int64, bool) {
	ms := math.Trunc(f) * 1000
	if !(ms > math.MinInt64 && ms < math.MaxInt64) {
		return 0, false
	}
	return int64(ms), true
}

// SelfTestDemand returns the canned demand run by the self-test route.
func SelfTestDemand(now time.Time) Demand {
	return Demand{
		Company:     "Teste Sistema",
		Title:       "Validar integração",
		Type:        "desenvolvimento",
		Team:        "desenvolvimento",
		Hours:       "2",
		Responsible: "victor",
		DueUnix:     strconv.FormatInt(now.Add(24*time.Hour).Unix(), 10),
		Checklist: []string{
			"Verificar conexão com ClickUp",
			"Validar criação de tarefa",
			"Confirmar responsável atribuído",
		},
		Subtasks: []string{
			"Testar endpoint principal",
			"Verificar logs do sistema",
			"Confirmar funcionamento",
		},
		Tags: []string{"teste"},
	}
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		isLetter := unicode.IsLetter(r)
		switch {
		case isLetter && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
		case isLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
