// Package apiclient talks to the platform REST API on behalf of the CLI. It
// attaches the session's bearer token and turns a 401 into a logout.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/localstore"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/session"
)

const (
	HeaderRequestID = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
	loginPath       = "/login"
)

var ErrUnauthorized = errors.New("unauthorized")

// Envelope is the uniform response wrapper of the API.
type Envelope[T any] struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       T                 `json:"data"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

// APIError is a failed call that was not a 401.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status code %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status code %d: %s", e.StatusCode, e.Message)
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithUnauthorizedHandler receives the login redirect, e.g.
// /login?return=%2Fadmin%2Flogs, after a 401 cleared the session.
func WithUnauthorizedHandler(fn func(redirect string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLocation reports the caller's current location for the return
// parameter. Without it the request path is used.
func WithLocation(fn func() string) Option {
	return func(c *Client) { c.location = fn }
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        *session.Session
	store          session.Store
	onUnauthorized func(string)
	location       func() string
}

func New(baseURL string, s *session.Session, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    s,
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginRedirect builds the login location preserving path.
func LoginRedirect(path string) string {
	return loginPath + "?" + url.Values{"return": {path}}.Encode()
}

// call performs one request and decodes the envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*Envelope[T], error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if lang, ok := c.store.Get(localstore.KeyLanguage); ok && lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	logger := log.With().Str("method", method).Str("path", path).Str("request_id", requestID).Logger()
	logger.Debug().Msg("Sending API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("API request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Warn().Msg("API answered 401, clearing session")
		c.unauthorized(path)
		return nil, ErrUnauthorized
	}

	var env Envelope[T]
	decodeErr := json.Unmarshal(respBodyBytes, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		logger.Error().Int("status_code", resp.StatusCode).Str("message", apiErr.Message).Msg("API returned non-OK status")
		return nil, apiErr
	}
	if decodeErr != nil {
		logger.Error().Err(decodeErr).Bytes("response_body", respBodyBytes).Msg("Failed to decode API envelope")
		return nil, fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	if !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message, RequestID: requestID}
	}
	return &env, nil
}

func (c *Client) unauthorized(path string) {
	if err := c.session.Logout(); err != nil {
		log.Error().Err(err).Msg("Failed to clear session after 401")
	}
	if c.onUnauthorized == nil {
		return
	}
	current := path
	if c.location != nil {
		current = c.location()
	}
	c.onUnauthorized(LoginRedirect(current))
}
