package wizard_test

import (
	"testing"

	"bizdesk/internal/config"
	"bizdesk/internal/validation"
	"bizdesk/internal/wizard"
)

func newEngine(t *testing.T) *wizard.Engine {
	t.Helper()
	cfg := config.Default()
	rules, err := validation.FromConfig(cfg)
	if err != nil {
		t.Fatalf("build rules: %v", err)
	}
	eng, err := wizard.New(rules, validation.OnboardingSteps(cfg))
	if err != nil {
		t.Fatalf("new wizard: %v", err)
	}
	return eng
}

func fillBusinessDetails(eng *wizard.Engine) {
	eng.UpdateField("company_name", "Acme Retail")
	eng.UpdateField("street", "1 Main St")
	eng.UpdateField("city", "Springfield")
	eng.UpdateField("country", "US")
}

func TestGoNextBlockedUntilValid(t *testing.T) {
	eng := newEngine(t)
	if eng.Step() != "business-type" {
		t.Fatalf("expected first step business-type, got %s", eng.Step())
	}
	res := eng.GoNext()
	if res.OK {
		t.Fatalf("expected validation failure on empty step")
	}
	if eng.Step() != "business-type" {
		t.Fatalf("failed GoNext must not advance, now at %s", eng.Step())
	}
	if eng.Completed("business-type") {
		t.Fatalf("failed GoNext must not mark completed")
	}
	eng.UpdateField("business_type", "retail")
	if res := eng.GoNext(); !res.OK {
		t.Fatalf("expected pass: %v", res.Errors)
	}
	if eng.Step() != "business-details" {
		t.Fatalf("expected advance to business-details, got %s", eng.Step())
	}
	if !eng.Completed("business-type") {
		t.Fatalf("passed step should be completed")
	}
}

func TestGoPreviousNeverValidates(t *testing.T) {
	eng := newEngine(t)
	eng.UpdateField("business_type", "retail")
	eng.GoNext()
	// step 2 is incomplete and invalid, back must still work
	if !eng.GoPrevious() {
		t.Fatalf("expected GoPrevious to move")
	}
	if eng.Step() != "business-type" {
		t.Fatalf("expected business-type, got %s", eng.Step())
	}
	if eng.GoPrevious() {
		t.Fatalf("GoPrevious at first step must be a no-op")
	}
}

func TestDataRetainedAcrossNavigation(t *testing.T) {
	eng := newEngine(t)
	eng.UpdateField("business_type", "retail")
	eng.GoNext()
	fillBusinessDetails(eng)
	eng.GoPrevious()
	eng.GoNext()
	if eng.Field("company_name") != "Acme Retail" {
		t.Fatalf("form data lost on navigation")
	}
	if res := eng.GoNext(); !res.OK {
		t.Fatalf("expected retained fields to still validate: %v", res.Errors)
	}
}

func TestJumpToPreservesState(t *testing.T) {
	eng := newEngine(t)
	eng.UpdateField("business_type", "retail")
	eng.GoNext()
	fillBusinessDetails(eng)
	eng.GoNext()
	if err := eng.JumpTo("business-type"); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if eng.Step() != "business-type" {
		t.Fatalf("expected business-type, got %s", eng.Step())
	}
	if !eng.Completed("business-details") {
		t.Fatalf("jump must not clear completion markers")
	}
	if err := eng.JumpTo("nope"); err == nil {
		t.Fatalf("expected unknown step error")
	}
}

func TestTerminalStepNeverAdvances(t *testing.T) {
	eng := newEngine(t)
	eng.UpdateField("business_type", "retail")
	eng.GoNext()
	fillBusinessDetails(eng)
	eng.GoNext()
	eng.UpdateField("rep_name", "Jo Smith")
	eng.UpdateField("rep_email", "jo@acme.example")
	eng.UpdateField("rep_phone", "+1 555 0100 200")
	eng.GoNext()
	eng.UpdateField("display_name", "Acme")
	eng.GoNext()
	if !eng.IsTerminal() {
		t.Fatalf("expected terminal review step, at %s", eng.Step())
	}
	res := eng.GoNext()
	if !res.OK {
		t.Fatalf("review step has no fields, expected pass: %v", res.Errors)
	}
	if !eng.IsTerminal() || eng.Step() != "review" {
		t.Fatalf("pointer moved past terminal step to %s", eng.Step())
	}
	if !eng.Completed("review") {
		t.Fatalf("terminal GoNext should mark review completed")
	}
}

func TestNewRejectsBadSequences(t *testing.T) {
	rules := validation.Default()
	if _, err := wizard.New(rules, []string{"only"}); err == nil {
		t.Fatalf("expected error for single step")
	}
	if _, err := wizard.New(rules, []string{"a", "a"}); err == nil {
		t.Fatalf("expected error for duplicate steps")
	}
	if _, err := wizard.New(rules, []string{"a", ""}); err == nil {
		t.Fatalf("expected error for empty step id")
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	eng := newEngine(t)
	eng.UpdateField("business_type", "retail")
	snap := eng.Fields()
	snap["business_type"] = "tampered"
	if eng.Field("business_type") != "retail" {
		t.Fatalf("Fields must return a copy")
	}
}
