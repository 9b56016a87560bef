// Package wfm is a client for the workforce-management adjustment rule API.
package wfm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/solatis/adjrules/internal/types"
)

// API paths relative to the base URL.
const (
	TokenPath = "/api/authentication/access_token"
	RulesPath = "/api/v1/timekeeping/setup/adjustment_rules"

	authChain = "OAuthLdapService"
	masked    = "******"

	// maxBodyBytes bounds API response bodies.
	maxBodyBytes = 64 << 20
)

// Credentials identify the caller for the password grant.
type Credentials struct {
	BaseURL      string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
}

// Token is the grant response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

func (t Token) complete() bool {
	return t.AccessToken != "" && t.RefreshToken != "" && t.TokenType != ""
}

// Client talks to one tenant. Safe for concurrent use.
type Client struct {
	creds  Credentials
	http   *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	token *Token
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the default HTTP client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithToken seeds a previously obtained token.
func WithToken(t Token) Option {
	return func(c *Client) { c.token = &t }
}

// NewClient builds a client for creds.BaseURL.
func NewClient(creds Credentials, opts ...Option) *Client {
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")
	c := &Client{
		creds:  creds,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns a copy of the current token, if any.
func (c *Client) Token() (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return Token{}, false
	}
	return *c.token, true
}

// Authenticate runs the password grant and stores the token.
func (c *Client) Authenticate(ctx context.Context) (Token, error) {
	if c.creds.BaseURL == "" || c.creds.Username == "" || c.creds.Password == "" {
		return Token{}, fmt.Errorf("%w: base URL, username and password are required", ErrMissingCredential)
	}
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {c.creds.Username},
		"password":      {c.creds.Password},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"auth_chain":    {authChain},
	}
	return c.grant(ctx, form)
}

// Refresh exchanges the refresh token for a new token. Without a refresh
// token it falls back to Authenticate.
func (c *Client) Refresh(ctx context.Context) (Token, error) {
	tok, ok := c.Token()
	if !ok || tok.RefreshToken == "" {
		return c.Authenticate(ctx)
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tok.RefreshToken},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}
	return c.grant(ctx, form)
}

func (c *Client) grant(ctx context.Context, form url.Values) (Token, error) {
	c.logger.Debug("requesting token", "url", c.creds.BaseURL+TokenPath, "form", MaskSecrets(form))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+TokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Token{}, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, newAPIError(http.MethodPost, TokenPath, resp.StatusCode, body)
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return Token{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if !tok.complete() {
		return Token{}, ErrIncompleteToken
	}

	c.mu.Lock()
	c.token = &tok
	c.mu.Unlock()

	c.logger.Debug("token acquired", "grant_type", form.Get("grant_type"))
	return tok, nil
}

// ListRules fetches every adjustment rule. The result is the raw decoded
// document, ready for extraction.
func (c *Client) ListRules(ctx context.Context) (types.Document, error) {
	body, err := c.do(ctx, http.MethodGet, RulesPath, nil)
	if err != nil {
		return nil, err
	}
	return decode(body)
}

// GetRule fetches one rule document.
func (c *Client) GetRule(ctx context.Context, id int64) (types.Document, error) {
	body, err := c.do(ctx, http.MethodGet, rulePath(id), nil)
	if err != nil {
		return nil, err
	}
	return decode(body)
}

// UpdateRule PUTs payload as the new rule document.
func (c *Client) UpdateRule(ctx context.Context, id int64, payload types.Document) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode rule %d: %w", id, err)
	}
	_, err = c.do(ctx, http.MethodPut, rulePath(id), data)
	return err
}

func rulePath(id int64) string {
	return RulesPath + "/" + strconv.FormatInt(id, 10)
}

func decode(body []byte) (types.Document, error) {
	doc, err := types.DecodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}
	return doc, nil
}

// do sends an authorized request. A 401 triggers one refresh and one retry.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if _, ok := c.Token(); !ok {
		return nil, ErrNotAuthenticated
	}

	out, err := c.send(ctx, method, path, body)
	if !IsUnauthorized(err) {
		return out, err
	}

	c.logger.Debug("received 401, refreshing token", "method", method, "path", path)
	if _, rerr := c.Refresh(ctx); rerr != nil {
		return nil, fmt.Errorf("token refresh failed, authenticate again: %w", rerr)
	}
	return c.send(ctx, method, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	tok, _ := c.Token()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.creds.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", tok.TokenType+" "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}
	return data, nil
}

// newAPIError pulls "message" from a JSON error body, falling back to the
// raw body text.
func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		e.Message = payload.Message
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// MaskSecrets returns a copy of form with password, client_secret and
// refresh_token masked.
func MaskSecrets(form url.Values) url.Values {
	out := make(url.Values, len(form))
	for k, v := range form {
		switch k {
		case "password", "client_secret", "refresh_token":
			out[k] = []string{masked}
		default:
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}
