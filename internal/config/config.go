package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models bizdesk.yml.
type Config struct {
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		TokenTTLMinutes int `yaml:"token_ttl_minutes"`
		OTPTTLMinutes   int `yaml:"otp_ttl_minutes"`
	} `yaml:"auth"`
	Onboarding struct {
		Steps []StepConfig `yaml:"steps"`
	} `yaml:"onboarding"`
	Routes struct {
		LoginPath string        `yaml:"login_path"`
		Table     []RouteConfig `yaml:"table"`
	} `yaml:"routes"`
}

// StepConfig declares one wizard step and its required fields, in order.
type StepConfig struct {
	ID     string        `yaml:"id"`
	Title  string        `yaml:"title"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig declares a single form field rule.
type FieldConfig struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	MinLen   int      `yaml:"min_len"`
	Optional bool     `yaml:"optional"`
	Matches  string   `yaml:"matches"`
	Choices  []string `yaml:"choices"`
}

// RouteConfig is one entry of the navigation surface.
type RouteConfig struct {
	Path      string `yaml:"path"`
	Protected bool   `yaml:"protected"`
}

var knownFieldKinds = map[string]bool{
	"text":     true,
	"email":    true,
	"phone":    true,
	"url":      true,
	"password": true,
	"otp":      true,
	"choice":   true,
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate with bizdesk config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api"
	}
	if len(c.Onboarding.Steps) < 2 {
		return fmt.Errorf("config.onboarding.steps requires at least 2 steps")
	}
	seen := map[string]bool{}
	for _, step := range c.Onboarding.Steps {
		if step.ID == "" {
			return fmt.Errorf("config.onboarding.steps contains empty step id")
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate onboarding step %s", step.ID)
		}
		seen[step.ID] = true
		names := map[string]bool{}
		for _, f := range step.Fields {
			if f.Name == "" {
				return fmt.Errorf("step %s has a field with empty name", step.ID)
			}
			if names[f.Name] {
				return fmt.Errorf("step %s declares field %s twice", step.ID, f.Name)
			}
			names[f.Name] = true
			if f.Kind != "" && !knownFieldKinds[f.Kind] {
				return fmt.Errorf("step %s field %s has unknown kind %s", step.ID, f.Name, f.Kind)
			}
			if f.Kind == "choice" && len(f.Choices) == 0 {
				return fmt.Errorf("step %s field %s is a choice without choices", step.ID, f.Name)
			}
		}
		for _, f := range step.Fields {
			if f.Matches != "" && !names[f.Matches] {
				return fmt.Errorf("step %s field %s matches unknown field %s", step.ID, f.Name, f.Matches)
			}
		}
	}
	if len(c.Routes.Table) == 0 {
		return fmt.Errorf("config.routes.table is required")
	}
	paths := map[string]bool{}
	for _, r := range c.Routes.Table {
		if r.Path == "" {
			return fmt.Errorf("config.routes.table contains empty path")
		}
		if paths[r.Path] {
			return fmt.Errorf("duplicate route %s", r.Path)
		}
		paths[r.Path] = true
	}
	if c.Routes.LoginPath == "" {
		return fmt.Errorf("config.routes.login_path is required")
	}
	if !paths[c.Routes.LoginPath] {
		return fmt.Errorf("login_path %s is not in the route table", c.Routes.LoginPath)
	}
	for _, r := range c.Routes.Table {
		if r.Path == c.Routes.LoginPath && r.Protected {
			return fmt.Errorf("login_path %s must not be protected", c.Routes.LoginPath)
		}
	}
	if c.Auth.TokenTTLMinutes < 0 || c.Auth.OTPTTLMinutes < 0 {
		return fmt.Errorf("config.auth ttl values must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "bizdesk.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	_ = cfg.Validate()
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `server:
  addr: ":8080"
  base_path: /api

auth:
  token_ttl_minutes: 1440
  otp_ttl_minutes: 10

onboarding:
  steps:
    - id: business-type
      title: Business type
      fields:
        - name: business_type
          kind: choice
          choices: [retail, wholesale, manufacturing, services]

    - id: business-details
      title: Business details
      fields:
        - name: company_name
          kind: text
        - name: tax_id
          kind: text
          optional: true
        - name: street
          kind: text
        - name: city
          kind: text
        - name: state
          kind: text
          optional: true
        - name: postal_code
          kind: text
          optional: true
        - name: country
          kind: text

    - id: representative
      title: Representative
      fields:
        - name: rep_name
          kind: text
        - name: rep_email
          kind: email
        - name: rep_phone
          kind: phone
        - name: rep_title
          kind: text
          optional: true

    - id: public-details
      title: Public details
      fields:
        - name: display_name
          kind: text
        - name: website
          kind: url
          optional: true
        - name: support_email
          kind: email
          optional: true
        - name: about
          kind: text
          optional: true

    - id: review
      title: Review and submit
      fields: []

routes:
  login_path: /login
  table:
    - path: /login
      protected: false
    - path: /register
      protected: false
    - path: /verify-otp
      protected: false
    - path: /reset-password
      protected: false
    - path: /dashboard
      protected: true
    - path: /sales
      protected: true
    - path: /purchases
      protected: true
    - path: /inventory
      protected: true
    - path: /reports
      protected: true
    - path: /company/create
      protected: true
    - path: /profile
      protected: true
`
