// Package authflow orchestrates the named request/response cycles against the
// backend and feeds results into the session store. Every operation is a
// single round-trip: failures become one human-readable message and nothing
// is retried here.
package authflow

import (
	"context"
	"errors"
	"strings"

	"bizdesk/internal/domain"
	"bizdesk/internal/session"
	"bizdesk/internal/validation"
	bizdesksdk "bizdesk/sdk/go"
)

const (
	fallbackLoginError  = "login failed; check your credentials and try again"
	fallbackServerError = "the server could not be reached; try again"
)

// ErrNotAuthenticated guards operations that need a confirmed session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Flow drives login, registration, OTP verification and password reset.
type Flow struct {
	client   *bizdesksdk.Client
	store    *session.Store
	rules    validation.Rules
	awaiting bool
	pending  string
}

// New wires a flow to its backend client, session store and rules table.
func New(client *bizdesksdk.Client, store *session.Store, rules validation.Rules) *Flow {
	return &Flow{client: client, store: store, rules: rules}
}

// Store exposes the session store the flow writes into.
func (f *Flow) Store() *session.Store { return f.store }

// AwaitingVerification reports whether a registration is waiting for its OTP.
func (f *Flow) AwaitingVerification() bool { return f.awaiting }

// PendingEmail is the address awaiting verification, if any.
func (f *Flow) PendingEmail() string { return f.pending }

// Bootstrap confirms a persisted token with the backend before trusting it.
// Runs once per process; without a stored token the session stays anonymous.
func (f *Flow) Bootstrap(ctx context.Context) error {
	err := f.store.Bootstrap(ctx, func(ctx context.Context, token string) (domain.User, error) {
		probe := *f.client
		probe.BearerToken = token
		u, err := probe.Profile(ctx)
		if err != nil {
			return domain.User{}, err
		}
		return userFromAPI(u), nil
	})
	if err != nil {
		return err
	}
	if snap := f.store.Snapshot(); snap.Authenticated() {
		f.client.BearerToken = snap.Token
	}
	return nil
}

// Login runs one credential exchange. The session observes exactly
// BeginAuth followed by CompleteAuth or FailAuth.
func (f *Flow) Login(ctx context.Context, username, password string) error {
	if err := f.store.BeginAuth(); err != nil {
		return err
	}
	res, err := f.client.Login(ctx, username, password)
	if err != nil {
		msg := errorMessage(err, fallbackLoginError)
		_ = f.store.FailAuth(msg)
		return errors.New(msg)
	}
	if res.Token == "" || res.User.ID == "" {
		_ = f.store.FailAuth(fallbackLoginError)
		return errors.New(fallbackLoginError)
	}
	user := userFromAPI(res.User)
	if err := f.store.CompleteAuth(user, res.Token); err != nil {
		return err
	}
	f.client.BearerToken = res.Token
	return nil
}

// Logout clears the session and the persisted token.
func (f *Flow) Logout() error {
	f.client.BearerToken = ""
	return f.store.Logout()
}

// Register validates the form locally, then creates an unverified account.
// A successful registration does not authenticate; the flow moves to
// awaiting-verification and the user logs in after the OTP step.
func (f *Flow) Register(ctx context.Context, name, username, email, password, confirm string) (validation.Result, error) {
	fields := map[string]string{
		"name":             name,
		"username":         username,
		"email":            email,
		"password":         password,
		"confirm_password": confirm,
	}
	res := f.rules.Validate(validation.StepRegister, fields)
	if !res.OK {
		return res, nil
	}
	err := f.client.Register(ctx, bizdesksdk.RegisterRequest{
		Name:     name,
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return res, errors.New(errorMessage(err, fallbackServerError))
	}
	f.awaiting = true
	f.pending = strings.TrimSpace(email)
	return res, nil
}

// VerifyOTP checks the code shape locally, then confirms it with the backend.
// Success returns control to the login entry point; it never authenticates.
func (f *Flow) VerifyOTP(ctx context.Context, email, code string) error {
	res := f.rules.Validate(validation.StepVerifyOTP, map[string]string{
		"email": email,
		"otp":   code,
	})
	if !res.OK {
		return errors.New(res.Errors[0].Message)
	}
	if err := f.client.VerifyOTP(ctx, email, code); err != nil {
		return errors.New(errorMessage(err, fallbackServerError))
	}
	f.awaiting = false
	f.pending = ""
	return nil
}

// ResendOTP re-triggers the code. Failures are surfaced but change no state.
func (f *Flow) ResendOTP(ctx context.Context, email string) error {
	if err := f.client.ResendOTP(ctx, email); err != nil {
		return errors.New(errorMessage(err, fallbackServerError))
	}
	return nil
}

// RequestPasswordReset always reports success so callers cannot probe which
// accounts exist.
func (f *Flow) RequestPasswordReset(ctx context.Context, email string) error {
	_ = f.client.RequestPasswordReset(ctx, email)
	return nil
}

// UpdateProfile patches the authenticated user and refreshes the session copy.
func (f *Flow) UpdateProfile(ctx context.Context, update bizdesksdk.ProfileUpdate) (domain.User, error) {
	snap := f.store.Snapshot()
	if !snap.Authenticated() {
		return domain.User{}, ErrNotAuthenticated
	}
	f.client.BearerToken = snap.Token
	u, err := f.client.UpdateProfile(ctx, update)
	if err != nil {
		return domain.User{}, errors.New(errorMessage(err, fallbackServerError))
	}
	return userFromAPI(u), nil
}

func errorMessage(err error, fallback string) string {
	var apiErr *bizdesksdk.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

func userFromAPI(u bizdesksdk.User) domain.User {
	return domain.User{
		ID:          u.ID,
		Name:        u.Name,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Bio:         u.Bio,
		Phone:       u.Phone,
		Verified:    u.Verified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
