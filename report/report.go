// Package report produces the machine-readable summary of a composition
// run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/c360studio/promptforge/validate"
	"github.com/google/uuid"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Summary is the caller-visible report of one run. Findings is always
// present, empty on a clean run; Manifest and Trace are verbose-only.
type Summary struct {
	Status            Status             `json:"status"`
	RunID             string             `json:"run_id"`
	Template          string             `json:"template"`
	Output            string             `json:"output,omitempty"`
	Phase             string             `json:"phase,omitempty"`
	FragmentsResolved int                `json:"fragments_resolved"`
	Manifest          map[string]int     `json:"manifest,omitempty"`
	Trace             []string           `json:"trace,omitempty"`
	Findings          []validate.Finding `json:"findings"`
	Error             string             `json:"error,omitempty"`
}

// New creates a success summary for the given template with a fresh run ID.
func New(templatePath string) *Summary {
	return &Summary{
		Status:   StatusSuccess,
		RunID:    uuid.New().String(),
		Template: templatePath,
		Findings: []validate.Finding{},
	}
}

// Fail marks the summary as failed, recording the phase and error.
func (s *Summary) Fail(phase string, err error) {
	s.Status = StatusError
	s.Phase = phase
	if err != nil {
		s.Error = err.Error()
	}
}

// WriteJSON emits the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText emits a human-readable summary.
func (s *Summary) WriteText(w io.Writer) error {
	if s.Status == StatusSuccess {
		fmt.Fprintf(w, "✓ composed %s (%d fragments)\n", s.Template, s.FragmentsResolved)
		if s.Output != "" {
			fmt.Fprintf(w, "  wrote %s\n", s.Output)
		}
	} else {
		fmt.Fprintf(w, "✗ build failed during %s: %s\n", s.Phase, s.Error)
	}

	paths := make([]string, 0, len(s.Manifest))
	for path := range s.Manifest {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(w, "  %s (%d bytes)\n", path, s.Manifest[path])
	}
	for _, edge := range s.Trace {
		fmt.Fprintf(w, "  %s\n", edge)
	}
	for _, f := range s.Findings {
		if f.Line > 0 {
			fmt.Fprintf(w, "  [%s] %s: %s (line %d)\n", f.Severity, f.Rule, f.Message, f.Line)
		} else {
			fmt.Fprintf(w, "  [%s] %s: %s\n", f.Severity, f.Rule, f.Message)
		}
	}

	return nil
}
