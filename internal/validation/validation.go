// Package validation checks wizard form fields against per-step rule tables.
// Rules are data, not code: each step declares an ordered field list and the
// checker reports every failure in declared order without short-circuiting.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError is one field-level failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of validating one step's fields.
type Result struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Rules validates a field bag against a named step.
type Rules interface {
	Validate(stepID string, fields map[string]string) Result
}

// FieldRule declares requirements for a single field.
type FieldRule struct {
	Name     string
	Kind     string
	MinLen   int
	Optional bool
	Matches  string
	Choices  []string
}

// StepRule is one step's ordered field rules.
type StepRule struct {
	ID     string
	Title  string
	Fields []FieldRule
}

// Table is a Rules implementation backed by an ordered step list.
type Table struct {
	order []string
	steps map[string]StepRule
}

var (
	emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,}$`)
	otpRE   = regexp.MustCompile(`^[0-9]{6}$`)
	urlRE   = regexp.MustCompile(`^https?://[^\s]+$`)
)

// NewTable builds a Table from step rules. Step ids must be unique and non-empty.
func NewTable(steps []StepRule) (*Table, error) {
	t := &Table{steps: map[string]StepRule{}}
	for _, s := range steps {
		if s.ID == "" {
			return nil, fmt.Errorf("step with empty id")
		}
		if _, ok := t.steps[s.ID]; ok {
			return nil, fmt.Errorf("duplicate step %s", s.ID)
		}
		t.order = append(t.order, s.ID)
		t.steps[s.ID] = s
	}
	return t, nil
}

// Steps returns step ids in declared order.
func (t *Table) Steps() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Step looks up one step's rules.
func (t *Table) Step(id string) (StepRule, bool) {
	s, ok := t.steps[id]
	return s, ok
}

// Validate checks fields against the named step. The input is never mutated and
// identical input yields identical output. Unknown steps fail with a single error.
func (t *Table) Validate(stepID string, fields map[string]string) Result {
	step, ok := t.steps[stepID]
	if !ok {
		return Result{Errors: []FieldError{{Field: stepID, Message: "unknown step"}}}
	}
	var errs []FieldError
	for _, f := range step.Fields {
		val := strings.TrimSpace(fields[f.Name])
		if val == "" {
			if !f.Optional {
				errs = append(errs, FieldError{Field: f.Name, Message: f.Name + " is required"})
			}
			continue
		}
		if msg := checkKind(f, val); msg != "" {
			errs = append(errs, FieldError{Field: f.Name, Message: msg})
		}
	}
	// Cross-field rules run after individual field rules, attached to the
	// dependent field.
	for _, f := range step.Fields {
		if f.Matches == "" {
			continue
		}
		if fields[f.Name] != fields[f.Matches] {
			errs = append(errs, FieldError{Field: f.Name, Message: f.Name + " does not match " + f.Matches})
		}
	}
	return Result{OK: len(errs) == 0, Errors: errs}
}

func checkKind(f FieldRule, val string) string {
	if f.MinLen > 0 && len(val) < f.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", f.Name, f.MinLen)
	}
	switch f.Kind {
	case "", "text":
		return ""
	case "email":
		if !emailRE.MatchString(val) {
			return f.Name + " must be a valid email address"
		}
	case "phone":
		if !phoneRE.MatchString(val) {
			return f.Name + " must be a valid phone number"
		}
	case "url":
		if !urlRE.MatchString(val) {
			return f.Name + " must be a valid http(s) URL"
		}
	case "password":
		min := f.MinLen
		if min == 0 {
			min = 8
		}
		if len(val) < min {
			return fmt.Sprintf("%s must be at least %d characters", f.Name, min)
		}
	case "otp":
		if !otpRE.MatchString(val) {
			return f.Name + " must be exactly 6 digits"
		}
	case "choice":
		for _, c := range f.Choices {
			if val == c {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of %s", f.Name, strings.Join(f.Choices, ", "))
	}
	return ""
}
