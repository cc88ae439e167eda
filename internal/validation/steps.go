package validation

import "bizdesk/internal/config"

// Auth steps are fixed and not part of any wizard; they are appended to every
// table so AuthFlow can validate registration and OTP input client-side.
const (
	StepRegister  = "register"
	StepVerifyOTP = "verify-otp"
)

func authSteps() []StepRule {
	return []StepRule{
		{
			ID: StepRegister,
			Fields: []FieldRule{
				{Name: "name", Kind: "text"},
				{Name: "username", Kind: "text", MinLen: 3},
				{Name: "email", Kind: "email"},
				{Name: "password", Kind: "password", MinLen: 8},
				{Name: "confirm_password", Kind: "password", MinLen: 8, Matches: "password"},
			},
		},
		{
			ID: StepVerifyOTP,
			Fields: []FieldRule{
				{Name: "email", Kind: "email"},
				{Name: "otp", Kind: "otp"},
			},
		},
	}
}

// FromConfig builds the rules table from the onboarding catalog plus the
// built-in auth steps. Config steps win on id collision with built-ins.
func FromConfig(cfg *config.Config) (*Table, error) {
	var steps []StepRule
	declared := map[string]bool{}
	for _, s := range cfg.Onboarding.Steps {
		rule := StepRule{ID: s.ID, Title: s.Title}
		for _, f := range s.Fields {
			rule.Fields = append(rule.Fields, FieldRule{
				Name:     f.Name,
				Kind:     f.Kind,
				MinLen:   f.MinLen,
				Optional: f.Optional,
				Matches:  f.Matches,
				Choices:  f.Choices,
			})
		}
		steps = append(steps, rule)
		declared[s.ID] = true
	}
	for _, s := range authSteps() {
		if !declared[s.ID] {
			steps = append(steps, s)
		}
	}
	return NewTable(steps)
}

// OnboardingSteps returns the wizard step order from the catalog, excluding
// the built-in auth steps.
func OnboardingSteps(cfg *config.Config) []string {
	var out []string
	for _, s := range cfg.Onboarding.Steps {
		out = append(out, s.ID)
	}
	return out
}

// Default is the rules table for the default config.
func Default() *Table {
	t, _ := FromConfig(config.Default())
	return t
}
