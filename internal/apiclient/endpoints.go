package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/session"
)

// listPaths maps each stream to its paged list endpoint.
var listPaths = map[model.LogKind]string{
	model.KindSystem: "/admin/system-logs",
	model.KindAudit:  "/admin/audit-logs",
	model.KindError:  "/admin/error-logs",
	model.KindLLM:    "/admin/llm-usage",
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginData struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

// Login authenticates and stores the returned token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*session.User, error) {
	env, err := call[LoginData](ctx, c, http.MethodPost, "/auth/login", nil, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(env.Data.Token, env.Data.User); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	log.Info().Str("user_id", string(env.Data.User.ID)).Msg("Logged in")
	return &env.Data.User, nil
}

// CurrentUser fetches the profile and refreshes the cached copy.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	env, err := call[session.User](ctx, c, http.MethodGet, "/users/me", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := c.session.SetUser(env.Data); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// SearchRequest is a parsed query plus paging and stream selection.
type SearchRequest struct {
	Query   logquery.ParsedQuery
	Kinds   []model.LogKind
	Page    int
	PerPage int
}

func (r SearchRequest) values() url.Values {
	v := logquery.BuildQueryParams(r.Query)
	if len(r.Kinds) > 0 {
		names := make([]string, len(r.Kinds))
		for i, k := range r.Kinds {
			names[i] = string(k)
		}
		v.Set("types", strings.Join(names, ","))
	}
	if r.Page > 0 {
		v.Set("page", strconv.Itoa(r.Page))
	}
	if r.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(r.PerPage))
	}
	return v
}

func (c *Client) SearchLogs(ctx context.Context, req SearchRequest) (*Envelope[[]model.LogRecord], error) {
	return call[[]model.LogRecord](ctx, c, http.MethodGet, "/admin/logs/search", req.values(), nil)
}

// ListLogs pages through one stream with raw backend params.
func (c *Client) ListLogs(ctx context.Context, kind model.LogKind, params url.Values) (*Envelope[[]model.LogRecord], error) {
	path, ok := listPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown log kind: %q", kind)
	}
	env, err := call[[]model.LogRecord](ctx, c, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	for i := range env.Data {
		if env.Data[i].Kind == "" {
			env.Data[i].Kind = kind
		}
	}
	return env, nil
}

func (c *Client) RelatedLogs(ctx context.Context, requestID string) (*Envelope[[]model.LogRecord], error) {
	return call[[]model.LogRecord](ctx, c, http.MethodGet, "/admin/logs/related/"+url.PathEscape(requestID), nil, nil)
}

type unreadCount struct {
	Count       *int `json:"count"`
	UnreadCount *int `json:"unread_count"`
}

// UnreadCount returns the signed-in user's unread message count.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	env, err := call[unreadCount](ctx, c, http.MethodGet, "/messages/unread-count", nil, nil)
	if err != nil {
		return 0, err
	}
	switch {
	case env.Data.Count != nil:
		return *env.Data.Count, nil
	case env.Data.UnreadCount != nil:
		return *env.Data.UnreadCount, nil
	}
	return 0, nil
}

type BadgeRecipient struct {
	UserID    session.UserID `json:"user_id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	AwardedAt string         `json:"awarded_at"`
}

func (c *Client) BadgeRecipients(ctx context.Context, badgeID string, page, perPage int) (*Envelope[[]BadgeRecipient], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	return call[[]BadgeRecipient](ctx, c, http.MethodGet, "/admin/badges/"+url.PathEscape(badgeID)+"/recipients", q, nil)
}

// ColumnsData is the server's stored column selection of a stream.
type ColumnsData struct {
	Kind    model.LogKind `json:"kind"`
	Columns []string      `json:"columns"`
}

func (c *Client) Columns(ctx context.Context, kind model.LogKind) ([]string, error) {
	env, err := call[ColumnsData](ctx, c, http.MethodGet, "/admin/logs/columns/"+string(kind), nil, nil)
	if err != nil {
		return nil, err
	}
	return env.Data.Columns, nil
}

func (c *Client) SaveColumns(ctx context.Context, kind model.LogKind, cols []string) error {
	_, err := call[ColumnsData](ctx, c, http.MethodPut, "/admin/logs/columns/"+string(kind), nil, ColumnsData{Kind: kind, Columns: cols})
	return err
}
