// Package output renders demand outcomes for the CLI.
package output

import (
	"fmt"
	"io"
	"strings"

	"demandhook/internal/demand"
)

// Separator frames the outcome block.
const Separator = "------------"

// FormatOutcome writes a human-readable summary of o.
func FormatOutcome(w io.Writer, o demand.Outcome) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, demand.SuccessMessage)
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "empresa:      %s\n", normalize(o.Company))
	fmt.Fprintf(w, "lista:        %s\n", o.ListID)
	fmt.Fprintf(w, "tarefa:       %s  %s\n", o.TaskID, normalize(o.Title))
	fmt.Fprintf(w, "responsável:  %s\n", orDash(o.Responsible))
	fmt.Fprintf(w, "checklist:    %s\n", orDash(o.ChecklistID))
	fmt.Fprintf(w, "subtarefas:   %d\n", len(o.SubtaskIDs))
	for i, id := range o.SubtaskIDs {
		fmt.Fprintf(w, "    %4d  %s\n", i+1, id)
	}
}

// FormatQuiet writes only the main task id.
func FormatQuiet(w io.Writer, o demand.Outcome) {
	fmt.Fprintln(w, o.TaskID)
}

// FormatError writes the caller-facing message for err.
func FormatError(w io.Writer, err error) {
	fmt.Fprintf(w, "erro: %s\n", demand.PublicMessage(err))
}

// normalize keeps a value on one line; blank values become "(vazio)".
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(vazio)"
	}
	return s
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
