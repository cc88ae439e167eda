// Package wizard owns step sequencing and the shared form-data bag for the
// company onboarding flow. The engine is the only writer of the step pointer
// and the completed-step set; leaving a step forward is gated by validation,
// backward navigation never is.
package wizard

import (
	"errors"
	"fmt"

	"bizdesk/internal/validation"
)

var (
	// ErrUnknownStep is returned by JumpTo for a step outside the sequence.
	ErrUnknownStep = errors.New("unknown step")
)

// Engine is one wizard session. It is not safe for concurrent use and is
// meant to be owned by exactly one caller; state is discarded with the
// instance (nothing is persisted across restarts).
type Engine struct {
	rules     validation.Rules
	steps     []string
	current   int
	formData  map[string]string
	completed map[string]bool
}

// New creates an engine over a fixed ordered step sequence. The sequence must
// have at least two steps; the last one is the terminal review step.
func New(rules validation.Rules, steps []string) (*Engine, error) {
	if len(steps) < 2 {
		return nil, fmt.Errorf("wizard requires at least 2 steps, got %d", len(steps))
	}
	seen := map[string]bool{}
	for _, s := range steps {
		if s == "" {
			return nil, errors.New("wizard step id must not be empty")
		}
		if seen[s] {
			return nil, fmt.Errorf("duplicate wizard step %s", s)
		}
		seen[s] = true
	}
	order := make([]string, len(steps))
	copy(order, steps)
	return &Engine{
		rules:     rules,
		steps:     order,
		formData:  map[string]string{},
		completed: map[string]bool{},
	}, nil
}

// Steps returns the step sequence.
func (e *Engine) Steps() []string {
	out := make([]string, len(e.steps))
	copy(out, e.steps)
	return out
}

// Step returns the current step id.
func (e *Engine) Step() string { return e.steps[e.current] }

// StepIndex returns the current step position.
func (e *Engine) StepIndex() int { return e.current }

// IsTerminal reports whether the current step is the last one. On the
// terminal step the forward action is submission, not navigation.
func (e *Engine) IsTerminal() bool { return e.current == len(e.steps)-1 }

// UpdateField merges a field into the shared bag. No validation happens at
// write time; fields are only checked when leaving a step.
func (e *Engine) UpdateField(name, value string) {
	e.formData[name] = value
}

// Field reads a single field value.
func (e *Engine) Field(name string) string { return e.formData[name] }

// Fields returns a copy of the accumulated form data.
func (e *Engine) Fields() map[string]string {
	out := make(map[string]string, len(e.formData))
	for k, v := range e.formData {
		out[k] = v
	}
	return out
}

// Completed reports whether a step has passed validation at least once.
func (e *Engine) Completed(stepID string) bool { return e.completed[stepID] }

// CompletedSteps returns the completed subset in sequence order.
func (e *Engine) CompletedSteps() []string {
	var out []string
	for _, s := range e.steps {
		if e.completed[s] {
			out = append(out, s)
		}
	}
	return out
}

// GoNext validates the current step and, if it passes, marks it completed and
// advances. On the terminal step it validates and marks only; the pointer
// never moves past the end. A failed validation leaves all state untouched
// and returns the result for the caller to surface.
func (e *Engine) GoNext() validation.Result {
	res := e.rules.Validate(e.Step(), e.formData)
	if !res.OK {
		return res
	}
	e.completed[e.Step()] = true
	if e.current < len(e.steps)-1 {
		e.current++
	}
	return res
}

// GoPrevious moves back one step without validating. At the first step it is
// a no-op and reports false.
func (e *Engine) GoPrevious() bool {
	if e.current == 0 {
		return false
	}
	e.current--
	return true
}

// JumpTo moves directly to a step without validating the one being left.
// Used by the review screen's edit links; form data and completion markers
// are preserved.
func (e *Engine) JumpTo(stepID string) error {
	for i, s := range e.steps {
		if s == stepID {
			e.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownStep, stepID)
}
