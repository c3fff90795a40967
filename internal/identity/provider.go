// Package identity integrates the external identity provider. All user
// verification is delegated to it; this process never validates credentials
// itself.
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
)

// User is the identity resolved by the provider.
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata,omitempty"`
}

// Session is an issued credential pair returned on sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Verifier resolves a bearer token to a user. The session gate and the HTTP
// auth middleware share one implementation.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// ErrVerification indicates the provider rejected the credential.
var ErrVerification = errors.New("identity: token verification failed")

// Client talks to a GoTrue-compatible identity provider over HTTP using a
// backend service credential.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// NewClient constructs a provider client. The base URL is the provider root,
// e.g. https://project.supabase.co.
func NewClient(baseURL, serviceKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("identity: provider URL is not set")
	}
	if strings.TrimSpace(serviceKey) == "" {
		return nil, errors.New("identity: service key is not set")
	}
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 10 * time.Second},
	}, nil
}

var _ Verifier = (*Client)(nil)

// Verify resolves the bearer token via GET /auth/v1/user.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrVerification, resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrVerification
	}
	return &user, nil
}

// SignUp creates a user through the provider's admin API with the email
// pre-confirmed, mirroring backend-driven registration.
func (c *Client) SignUp(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{
			"first_name": firstName,
			"last_name":  lastName,
		},
	}

	var out User
	if err := c.post(ctx, "/auth/v1/admin/users", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn exchanges email+password for a session via the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, *Session, error) {
	body := map[string]any{"email": email, "password": password}

	var out struct {
		Session
		User User `json:"user"`
	}
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", body, &out); err != nil {
		return nil, nil, err
	}
	return &out.User, &out.Session, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("identity: provider error: %s", providerError(resp.Body, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func providerError(body io.Reader, status int) string {
	var e struct {
		Message string `json:"msg"`
		Error   string `json:"error_description"`
	}
	if err := json.NewDecoder(body).Decode(&e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return fmt.Sprintf("status %d", status)
}
