package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/westapp/estatehub-core/internal/auth"
	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
)

// Client talks to the remote identity service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates an identity service client. baseURL is the service
// root without a trailing slash.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "identity"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	PhoneNumber          string `json:"phone_number"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	RoleID               int    `json:"role_id"`
}

// rawUser mirrors the service's user payload. The id arrives as either a
// number or a string depending on the backend version, so json.Number
// absorbs both.
type rawUser struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	PhoneNumber string      `json:"phone_number"`
	RoleID      int         `json:"role_id"`
	HouseNumber string      `json:"house_number"`
	EstateID    string      `json:"estate_id"`
	IsActive    *bool       `json:"is_active"`
	CreatedAt   string      `json:"created_at"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  rawUser `json:"user"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	var resp authResponse
	err := c.post(ctx, "/login", loginRequest{Email: email, Password: password}, &resp, "")
	if err != nil {
		if isClientError(err) {
			return nil, fmt.Errorf("%w: %s", auth.ErrInvalidCredentials, errorMessage(err))
		}
		return nil, err
	}

	return c.buildSession(resp)
}

// Register creates a new identity. The role is pinned to tenant: self-
// registration can never produce an elevated role, whatever the caller
// passes to the service.
func (c *Client) Register(ctx context.Context, profile auth.Profile, password string) (*auth.Session, error) {
	req := registerRequest{
		Name:                 profile.Name,
		Email:                profile.Email,
		PhoneNumber:          profile.Phone,
		Password:             password,
		PasswordConfirmation: password,
		RoleID:               auth.TenantRoleID,
	}

	var resp authResponse
	err := c.post(ctx, "/register", req, &resp, "")
	if err != nil {
		if isClientError(err) {
			return nil, fmt.Errorf("%w: %s", auth.ErrRegistrationDenied, errorMessage(err))
		}
		return nil, err
	}

	return c.buildSession(resp)
}

// Logout asks the service to revoke the token. The session manager treats
// a failure here as non-fatal; this method just reports it.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/logout", nil, nil, token)
}

// Me fetches the profile for a token. An expired or revoked token is
// reported as auth.ErrSessionExpired.
func (c *Client) Me(ctx context.Context, token string) (*auth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req, token)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling identity service: %w", err)
	}
	defer httpResp.Body.Close() //nolint:errcheck

	if httpResp.StatusCode == http.StatusUnauthorized {
		return nil, auth.ErrSessionExpired
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, statusError(httpResp)
	}

	var resp struct {
		User rawUser `json:"user"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	identity := transformUser(resp.User)
	return &identity, nil
}

// buildSession validates an auth response and converts it to a session.
// The login timestamp is set here: the service does not echo one back.
func (c *Client) buildSession(resp authResponse) (*auth.Session, error) {
	if resp.Token == "" {
		return nil, fmt.Errorf("identity service returned no token")
	}

	identity := transformUser(resp.User)
	now := time.Now().UTC()
	identity.LastLogin = &now

	c.logger.Debug("session issued", "user_id", identity.ID, "role", identity.Role)
	return &auth.Session{Identity: identity, Token: resp.Token}, nil
}

// transformUser converts a raw service payload into a domain Identity.
// Unknown role codes degrade to tenant; a missing is_active flag means
// active (older backend versions omit it).
func transformUser(u rawUser) auth.Identity {
	identity := auth.Identity{
		ID:          u.ID.String(),
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.PhoneNumber,
		Role:        auth.RoleFromBackendID(u.RoleID),
		HouseNumber: u.HouseNumber,
		EstateID:    u.EstateID,
		IsActive:    u.IsActive == nil || *u.IsActive,
	}

	if u.CreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, u.CreatedAt); err == nil {
			identity.CreatedAt = created
		} else if created, err := time.Parse("2006-01-02 15:04:05", u.CreatedAt); err == nil {
			identity.CreatedAt = created
		}
	}

	return identity
}

// post sends a JSON request and decodes a JSON response. out may be nil
// when the response body does not matter; token, when non-empty, becomes
// the bearer credential.
func (c *Client) post(ctx context.Context, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling identity service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// StatusError carries the HTTP status and any message field from a
// non-2xx identity service response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("identity service returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("identity service returned %d", e.Status)
}

// statusError reads a failure body and wraps it. Bodies are capped: a
// misbehaving service must not make the client buffer arbitrary data.
func statusError(resp *http.Response) error {
	var msg errorResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	_ = json.Unmarshal(body, &msg)                         //nolint:errcheck // message is best-effort
	return &StatusError{Status: resp.StatusCode, Message: msg.Message}
}

// isClientError reports whether the failure is a 4xx rejection rather
// than a transport or server fault.
func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

func errorMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "request rejected"
}
