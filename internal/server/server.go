package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bizdesk/internal/domain"
	"bizdesk/internal/events"
	"bizdesk/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Repo     repo.Repo
	Events   events.Writer
	BasePath string
	Auth     AuthConfig
	Now      func() time.Time
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_credentials"`
	Message string         `json:"message" example:"invalid credentials"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errNotVerified        = errors.New("account not verified; complete the verification step first")
	errDuplicateAccount   = errors.New("username or email already registered")
	errInvalidOTP         = errors.New("verification code is invalid")
	errOTPExpired         = errors.New("verification code has expired; request a new one")
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var otpRE = regexp.MustCompile(`^[0-9]{6}$`)

type service struct {
	repo   repo.Repo
	events events.Writer
	auth   AuthConfig
	now    func() time.Time
}

func (s *service) nowUTC() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// New returns an HTTP handler exposing the Bizdesk API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	svc := &service{repo: cfg.Repo, events: cfg.Events, auth: cfg.Auth, now: cfg.Now}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Bizdesk API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAuth(group, svc)
	registerProfile(group, svc)
	registerCompanies(group, svc)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, errInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, errNotVerified):
		return newAPIError(http.StatusForbidden, "not_verified", err.Error(), nil)
	case errors.Is(err, errDuplicateAccount):
		return newAPIError(http.StatusConflict, "account_exists", err.Error(), nil)
	case errors.Is(err, errInvalidOTP), errors.Is(err, errOTPExpired):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_otp", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "unique"):
		return newAPIError(http.StatusConflict, "conflict", "already exists", nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") || strings.Contains(lowered, "must be"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, s *service) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new account",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body RegisterRequest `json:"body"`
	}) (*struct {
		Body RegisterResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		req := input.Body
		req.Name = strings.TrimSpace(req.Name)
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Name == "" || req.Username == "" || req.Email == "" || req.Password == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name, username, email and password are required", nil)
		}
		if len(req.Username) < 3 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "username must be at least 3 characters", nil)
		}
		if !emailRE.MatchString(req.Email) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "email must be a valid address", nil)
		}
		if len(req.Password) < 8 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "password must be at least 8 characters", nil)
		}
		if err := s.register(ctx, req); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RegisterResponse `json:"body"`
		}{Body: RegisterResponse{
			Message: "registered; verify the code sent to " + req.Email,
			OTPSent: true,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "verify-otp",
		Method:      http.MethodPost,
		Path:        "/auth/verify-otp",
		Summary:     "Verify the 6-digit code",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body VerifyOTPRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if !otpRE.MatchString(input.Body.OTP) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "otp must be exactly 6 digits", nil)
		}
		if err := s.verifyOTP(ctx, strings.TrimSpace(input.Body.Email), input.Body.OTP); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "account verified; you can log in now"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resend-otp",
		Method:      http.MethodPost,
		Path:        "/auth/resend-otp",
		Summary:     "Re-issue the verification code",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body ResendOTPRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if err := s.resendOTP(ctx, strings.TrimSpace(input.Body.Email)); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "verification code sent"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange credentials for a token",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		user, token, err := s.login(ctx, strings.TrimSpace(input.Body.Username), input.Body.Password)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{User: userResponse(user), Token: token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-password",
		Method:      http.MethodPost,
		Path:        "/auth/reset-password",
		Summary:     "Start a password reset",
		Description: "Always succeeds so callers cannot probe which accounts exist.",
	}, func(ctx context.Context, input *struct {
		Body ResetPasswordRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		s.requestPasswordReset(ctx, strings.TrimSpace(input.Body.Email))
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "if the account exists, reset instructions were sent"}}, nil
	})
}

func registerProfile(api huma.API, s *service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/auth/profile",
		Summary:     "Current user",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPatch,
		Path:        "/auth/profile",
		Summary:     "Update the current user",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusConflict,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body UpdateProfileRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.Email != nil && !emailRE.MatchString(strings.TrimSpace(*input.Body.Email)) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "email must be a valid address", nil)
		}
		u, err := s.updateProfile(ctx, userID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})
}

func registerCompanies(api huma.API, s *service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-company",
		Method:        http.MethodPost,
		Path:          "/company/create",
		Summary:       "Create a company",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateCompanyRequest `json:"body"`
	}) (*struct {
		Body CompanyResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if msg := checkCompanyRequest(input.Body); msg != "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
		}
		c, err := s.createCompany(ctx, userID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CompanyResponse `json:"body"`
		}{Body: companyResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-companies",
		Method:      http.MethodGet,
		Path:        "/companies",
		Summary:     "List companies owned by the current user",
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body paginatedCompanies `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := s.repo.ListCompaniesByOwner(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]CompanyResponse, 0, len(items))
		for _, c := range items {
			out = append(out, companyResponse(c))
		}
		return &struct {
			Body paginatedCompanies `json:"body"`
		}{Body: paginatedCompanies{Items: out}}, nil
	})
}

func checkCompanyRequest(req CreateCompanyRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case req.BusinessType == "":
		return "business_type is required"
	case strings.TrimSpace(req.Address.Street) == "" || strings.TrimSpace(req.Address.City) == "" || strings.TrimSpace(req.Address.Country) == "":
		return "address street, city and country are required"
	case strings.TrimSpace(req.Representative.Name) == "" || strings.TrimSpace(req.Representative.Phone) == "":
		return "representative name and phone are required"
	case !emailRE.MatchString(strings.TrimSpace(req.Representative.Email)):
		return "representative email must be a valid address"
	case strings.TrimSpace(req.Public.DisplayName) == "":
		return "public display_name is required"
	}
	return ""
}

// --- service operations ---

func (s *service) register(ctx context.Context, req RegisterRequest) error {
	taken, err := s.repo.UsernameOrEmailTaken(ctx, req.Username, req.Email)
	if err != nil {
		return err
	}
	if taken {
		return errDuplicateAccount
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	now := s.nowUTC().Format(time.RFC3339)
	u := domain.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Username:  req.Username,
		Email:     req.Email,
		Role:      "owner",
		CreatedAt: now,
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.repo.InsertUser(ctx, tx, u, hash); err != nil {
		return err
	}
	if err := s.repo.UpsertOTP(ctx, tx, domain.OTPCode{
		Email:     req.Email,
		Code:      code,
		ExpiresAt: s.nowUTC().Add(s.otpTTL()).Format(time.RFC3339),
		CreatedAt: now,
	}); err != nil {
		return err
	}
	if err := s.events.Append(ctx, tx, "user.registered", "user", u.ID, u.ID, events.EventPayload{"username": u.Username}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	// No mail transport here; the code lands in the server log.
	s.auth.logger().Printf("verification code for %s: %s", req.Email, code)
	return nil
}

func (s *service) verifyOTP(ctx context.Context, email, code string) error {
	stored, err := s.repo.GetOTP(ctx, email)
	if err != nil {
		return err
	}
	if stored.Code != code {
		return errInvalidOTP
	}
	exp, err := time.Parse(time.RFC3339, stored.ExpiresAt)
	if err != nil || s.nowUTC().After(exp) {
		return errOTPExpired
	}
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.repo.SetUserVerified(ctx, tx, email); err != nil {
		return err
	}
	if err := s.repo.DeleteOTP(ctx, tx, email); err != nil {
		return err
	}
	if err := s.events.Append(ctx, tx, "otp.verified", "user", u.ID, u.ID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) resendOTP(ctx context.Context, email string) error {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := newOTPCode()
	if err != nil {
		return err
	}
	now := s.nowUTC()
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.repo.UpsertOTP(ctx, tx, domain.OTPCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL()).Format(time.RFC3339),
		CreatedAt: now.Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if err := s.events.Append(ctx, tx, "otp.resent", "user", u.ID, u.ID, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.auth.logger().Printf("verification code for %s: %s", email, code)
	return nil
}

func (s *service) login(ctx context.Context, username, password string) (domain.User, string, error) {
	u, hash, err := s.repo.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.User{}, "", errInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if !checkPassword(hash, password) {
		return domain.User{}, "", errInvalidCredentials
	}
	if !u.Verified {
		return domain.User{}, "", errNotVerified
	}
	now := s.nowUTC()
	token, err := signToken(s.auth.JWTSecret, u.ID, u.Role, s.auth.TokenTTL, now)
	if err != nil {
		return domain.User{}, "", err
	}
	ts := now.Format(time.RFC3339)
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, "", err
	}
	defer tx.Rollback()
	if err := s.repo.SetLastLogin(ctx, tx, u.ID, ts); err != nil {
		return domain.User{}, "", err
	}
	if err := s.events.Append(ctx, tx, "user.login", "user", u.ID, u.ID, nil); err != nil {
		return domain.User{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, "", err
	}
	u.LastLoginAt = ts
	return u, token, nil
}

// requestPasswordReset never reports failure to the caller; internal errors
// are logged only, and unknown addresses are indistinguishable from known ones.
func (s *service) requestPasswordReset(ctx context.Context, email string) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return
	}
	code, err := newOTPCode()
	if err != nil {
		return
	}
	now := s.nowUTC()
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer tx.Rollback()
	if err := s.repo.UpsertOTP(ctx, tx, domain.OTPCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL()).Format(time.RFC3339),
		CreatedAt: now.Format(time.RFC3339),
	}); err != nil {
		return
	}
	if err := s.events.Append(ctx, tx, "password.reset.requested", "user", u.ID, u.ID, nil); err != nil {
		return
	}
	if err := tx.Commit(); err != nil {
		s.auth.logger().Printf("password reset for %s failed: %v", email, err)
		return
	}
	s.auth.logger().Printf("password reset code for %s: %s", email, code)
}

func (s *service) updateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (domain.User, error) {
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	u, err := s.repo.UpdateProfile(ctx, tx, userID, repo.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
		Phone: req.Phone,
	})
	if err != nil {
		return domain.User{}, err
	}
	if err := s.events.Append(ctx, tx, "profile.updated", "user", u.ID, u.ID, nil); err != nil {
		return domain.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *service) createCompany(ctx context.Context, ownerID string, req CreateCompanyRequest) (domain.Company, error) {
	c := companyFromRequest(req)
	c.ID = uuid.New().String()
	c.OwnerID = ownerID
	c.CreatedAt = s.nowUTC().Format(time.RFC3339)
	tx, err := s.repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Company{}, err
	}
	defer tx.Rollback()
	if err := s.repo.InsertCompany(ctx, tx, c); err != nil {
		return domain.Company{}, err
	}
	if err := s.events.Append(ctx, tx, "company.created", "company", c.ID, ownerID, events.EventPayload{"name": c.Name}); err != nil {
		return domain.Company{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Company{}, err
	}
	return c, nil
}

func (s *service) otpTTL() time.Duration {
	if s.auth.OTPTTL > 0 {
		return s.auth.OTPTTL
	}
	return 10 * time.Minute
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, req *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	guarded := map[string]bool{
		path.Join(basePath, "auth/profile"):   true,
		path.Join(basePath, "company/create"): true,
		path.Join(basePath, "companies"):      true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if guarded[route] {
				op.Security = security
			} else {
				op.Security = []map[string][]string{}
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Bizdesk API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;.
    </p>
  </body>
</html>`, specURL)
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}
