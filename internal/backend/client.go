package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"github.com/masjidku/masjidku-web/internal/models"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
	csrfPath       = "/sanctum/csrf-cookie"
)

// Client represents an HTTP client for the backend REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Credentials are what a single call presents to the backend. Token is the
// bearer token; Cookies are forwarded verbatim (session and XSRF cookies).
type Credentials struct {
	Token   string
	Cookies []*http.Cookie
}

// Bearer returns credentials carrying only a token
func Bearer(token string) Credentials {
	return Credentials{Token: token}
}

// New creates a new API client
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, creds Credentials, body, out any) error {
	resp, err := c.send(ctx, method, path, creds, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send builds and executes the request. The caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path string, creds Credentials, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", creds.Token))
	}
	for _, ck := range creds.Cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		// Echo the anti-forgery token on state-changing requests
		if ck.Name == csrfCookieName && method != http.MethodGet {
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				req.Header.Set(csrfHeaderName, v)
			}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request")

	return resp, nil
}

// CSRFCookie performs the anti-forgery handshake and returns the cookies the
// backend set. They must be forwarded on the following session request.
func (c *Client) CSRFCookie(ctx context.Context, creds Credentials) ([]*http.Cookie, error) {
	resp, err := c.send(ctx, http.MethodGet, csrfPath, creds, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: "csrf handshake failed"}
	}

	return mergeCookies(creds.Cookies, resp.Cookies()), nil
}

// mergeCookies overlays fresh cookies on top of the existing ones by name
func mergeCookies(existing, fresh []*http.Cookie) []*http.Cookie {
	byName := make(map[string]int, len(existing))
	merged := make([]*http.Cookie, 0, len(existing)+len(fresh))
	for _, ck := range existing {
		byName[ck.Name] = len(merged)
		merged = append(merged, ck)
	}
	for _, ck := range fresh {
		if i, ok := byName[ck.Name]; ok {
			merged[i] = ck
			continue
		}
		byName[ck.Name] = len(merged)
		merged = append(merged, ck)
	}
	return merged
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`

	// Cookies set by the backend during the handshake, for relaying
	Cookies []*http.Cookie `json:"-"`
}

// BearerToken returns whichever token field the backend filled
func (r *LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Login authenticates the user and returns the issued token and identity
func (c *Client) Login(ctx context.Context, creds Credentials, email, password string) (*LoginResponse, error) {
	cookies, err := c.CSRFCookie(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var loginResp LoginResponse
	err = c.do(ctx, http.MethodPost, "/api/login", Credentials{Cookies: cookies}, LoginRequest{
		Email:    email,
		Password: password,
	}, &loginResp)
	if err != nil {
		return nil, err
	}

	if loginResp.BearerToken() == "" || loginResp.User == nil {
		return nil, fmt.Errorf("login failed: backend response is missing token or user")
	}

	loginResp.Cookies = cookies
	return &loginResp, nil
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Register creates a new warga account. The backend may or may not log the
// new user in; when it does, the token is returned.
func (c *Client) Register(ctx context.Context, creds Credentials, req RegisterRequest) (*LoginResponse, error) {
	cookies, err := c.CSRFCookie(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}

	var regResp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", Credentials{Cookies: cookies}, req, &regResp); err != nil {
		return nil, err
	}
	regResp.Cookies = cookies
	return &regResp, nil
}

// Logout revokes the token on the backend
func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	return c.do(ctx, http.MethodPost, "/api/logout", creds, nil, nil)
}

// meResponse accepts both {"user": {...}} and a bare user object
type meResponse struct {
	models.User
	Wrapped *models.User `json:"user"`
	Data    *models.User `json:"data"`
}

// Me returns the identity behind the given credentials
func (c *Client) Me(ctx context.Context, creds Credentials) (*models.User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", creds, nil, &resp); err != nil {
		return nil, err
	}

	user := resp.User
	switch {
	case resp.Wrapped != nil:
		user = *resp.Wrapped
	case resp.Data != nil:
		user = *resp.Data
	}

	if !user.Role.Valid() {
		return nil, fmt.Errorf("backend returned user %d without a known role", user.ID)
	}
	return &user, nil
}
