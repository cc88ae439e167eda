package bizdesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Bizdesk HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the API user model.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Bio         string `json:"bio,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Verified    bool   `json:"verified"`
	LastLoginAt string `json:"last_login_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Address is the company address block.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// Representative is the company contact block.
type Representative struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title,omitempty"`
}

// PublicDetails is the customer-facing block.
type PublicDetails struct {
	DisplayName string `json:"display_name"`
	Website     string `json:"website,omitempty"`
	SupportMail string `json:"support_email,omitempty"`
	About       string `json:"about,omitempty"`
}

// Company represents the API company model.
type Company struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Name           string         `json:"name"`
	BusinessType   string         `json:"business_type"`
	TaxID          string         `json:"tax_id,omitempty"`
	Address        Address        `json:"address"`
	Representative Representative `json:"representative"`
	Public         PublicDetails  `json:"public_details"`
	CreatedAt      string         `json:"created_at"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the successful login payload.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ProfileUpdate is a partial profile patch; nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// CreateCompanyRequest is the nested company-creation shape.
type CreateCompanyRequest struct {
	Name           string         `json:"name"`
	BusinessType   string         `json:"business_type"`
	TaxID          string         `json:"tax_id,omitempty"`
	Address        Address        `json:"address"`
	Representative Representative `json:"representative"`
	Public         PublicDetails  `json:"public_details"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Message extracts the error envelope message, if the body carries one.
func (e *APIError) Message() string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return ""
}

// Login exchanges credentials for a user record and token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	body := map[string]any{
		"username": username,
		"password": password,
	}
	var resp LoginResult
	err := c.do(ctx, http.MethodPost, "api/auth/login", body, &resp)
	return resp, err
}

// Register creates an unverified account and triggers the OTP step.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "api/auth/register", req, nil)
}

// VerifyOTP confirms the 6-digit code sent for an email address.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	body := map[string]any{
		"email": email,
		"otp":   otp,
	}
	return c.do(ctx, http.MethodPost, "api/auth/verify-otp", body, nil)
}

// ResendOTP re-issues the verification code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "api/auth/resend-otp", map[string]any{"email": email}, nil)
}

// RequestPasswordReset asks the backend to start a reset cycle. The backend
// answers 2xx whether or not the account exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "api/auth/reset-password", map[string]any{"email": email}, nil)
}

// Profile returns the user the bearer token belongs to.
func (c *Client) Profile(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "api/auth/profile", nil, &resp)
	return resp, err
}

// UpdateProfile patches the current user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodPatch, "api/auth/profile", update, &resp)
	return resp, err
}

// CreateCompany submits the assembled onboarding request.
func (c *Client) CreateCompany(ctx context.Context, req CreateCompanyRequest) (Company, error) {
	var resp Company
	err := c.do(ctx, http.MethodPost, "api/company/create", req, &resp)
	return resp, err
}

// Companies lists companies owned by the bearer token's user.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var resp struct {
		Items []Company `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "api/companies", nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
