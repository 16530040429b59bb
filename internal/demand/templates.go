package demand

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"demandhook/templates"
)

// DefaultType is the template category used for unrecognized work types.
const DefaultType = "default"

// Templates holds, per work type, the checklist labels and subtask titles
// used when a demand does not list its own.
type Templates struct {
	ChecklistSets map[string][]string `yaml:"checklists"`
	SubtaskSets   map[string][]string `yaml:"subtasks"`
}

// ParseTemplates decodes a YAML template set. Type keys are lowercased.
func ParseTemplates(b []byte) (Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Templates{}, fmt.Errorf("parse templates: %w", err)
	}
	return Templates{
		ChecklistSets: normalizeKeys(t.ChecklistSets),
		SubtaskSets:   normalizeKeys(t.SubtaskSets),
	}, nil
}

// LoadTemplates parses a complete template set; both sections need a default entry.
func LoadTemplates(b []byte) (Templates, error) {
	t, err := ParseTemplates(b)
	if err != nil {
		return Templates{}, err
	}
	if err := t.validate(); err != nil {
		return Templates{}, err
	}
	return t, nil
}

// DefaultTemplates returns the embedded template set.
func DefaultTemplates() Templates {
	t, err := LoadTemplates(templates.Default)
	if err != nil {
		panic(fmt.Sprintf("embedded templates: %v", err))
	}
	return t
}

// LoadTemplatesFile overlays the YAML file at path on the embedded defaults.
func LoadTemplatesFile(path string) (Templates, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates %s: %w", path, err)
	}
	override, err := ParseTemplates(b)
	if err != nil {
		return Templates{}, err
	}
	return DefaultTemplates().Merge(override), nil
}

// Merge returns t with every type in o replacing or adding to it.
func (t Templates) Merge(o Templates) Templates {
	return Templates{
		ChecklistSets: mergeSets(t.ChecklistSets, o.ChecklistSets),
		SubtaskSets:   mergeSets(t.SubtaskSets, o.SubtaskSets),
	}
}

// Checklist returns the checklist labels for typ, or the default set.
func (t Templates) Checklist(typ string) []string {
	return pick(t.ChecklistSets, typ)
}

// Subtasks returns the subtask titles for typ, or the default set.
func (t Templates) Subtasks(typ string) []string {
	return pick(t.SubtaskSets, typ)
}

// Known reports whether typ has its own template set.
func (t Templates) Known(typ string) bool {
	key := normalizeType(typ)
	_, c := t.ChecklistSets[key]
	_, s := t.SubtaskSets[key]
	return c || s
}

func (t Templates) validate() error {
	var errs []error
	if len(t.ChecklistSets[DefaultType]) == 0 {
		errs = append(errs, errors.New("checklists: missing default entry"))
	}
	if len(t.SubtaskSets[DefaultType]) == 0 {
		errs = append(errs, errors.New("subtasks: missing default entry"))
	}
	return errors.Join(errs...)
}

func pick(sets map[string][]string, typ string) []string {
	items, ok := sets[normalizeType(typ)]
	if !ok {
		items = sets[DefaultType]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func normalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}

func normalizeKeys(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[normalizeType(k)] = v
	}
	return out
}

func mergeSets(base, over map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
