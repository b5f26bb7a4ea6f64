package logquery

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Backend query parameter names.
const (
	ParamAuditStatus = "status"
	ParamMinDuration = "min_duration"
	ParamMaxDuration = "max_duration"
	ParamText        = "q"
)

// BuildQueryParams maps a parsed query onto the backend's search parameters.
//
// Negated tokens are not forwarded: the search endpoint has no exclusion
// filter. Ranges on status_code are parsed but likewise dropped; only
// duration ranges reach the backend.
func BuildQueryParams(pq ParsedQuery) url.Values {
	params := url.Values{}
	for key, tv := range pq.Tokens {
		if tv.Negate {
			continue
		}
		if key == KeyAuditStatus {
			params.Set(ParamAuditStatus, tv.Value)
			continue
		}
		params.Set(key, tv.Value)
	}

	if dur, ok := pq.Ranges[KeyDurationMs]; ok {
		if v, ok := firstOf(dur, OpGreaterEqual, OpGreater); ok {
			params.Set(ParamMinDuration, v)
		}
		if v, ok := firstOf(dur, OpLessEqual, OpLess); ok {
			params.Set(ParamMaxDuration, v)
		}
	}

	if pq.Free != "" {
		params.Set(ParamText, pq.Free)
	}
	return params
}

func firstOf(ops map[Operator]string, candidates ...Operator) (string, bool) {
	for _, op := range candidates {
		if v, ok := ops[op]; ok {
			return v, true
		}
	}
	return "", false
}

// Filter is the server-side decoding of the backend search parameters.
type Filter struct {
	RequestID   string
	UserID      string
	StatusCode  string
	Path        string
	Method      string
	Action      string
	AuditStatus string
	ErrorType   string
	MinDuration *int64
	MaxDuration *int64
	Text        string
}

// IsEmpty reports whether no filter field is set.
func (f Filter) IsEmpty() bool {
	return f.Terms() == nil && f.MinDuration == nil && f.MaxDuration == nil && f.Text == ""
}

// Terms returns the exact-match fields of f keyed by record field name.
func (f Filter) Terms() map[string]string {
	terms := map[string]string{}
	add := func(k, v string) {
		if v != "" {
			terms[k] = v
		}
	}
	add(KeyRequestID, f.RequestID)
	add(KeyUserID, f.UserID)
	add(KeyStatusCode, f.StatusCode)
	add(KeyPath, f.Path)
	add(KeyMethod, f.Method)
	add(KeyAction, f.Action)
	add(KeyAuditStatus, f.AuditStatus)
	add(KeyErrorType, f.ErrorType)
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// filterParams are the parameter names ParamsToFilter reads.
var filterParams = map[string]bool{
	KeyRequestID: true, KeyUserID: true, KeyStatusCode: true, KeyPath: true,
	KeyMethod: true, KeyAction: true, ParamAuditStatus: true, KeyErrorType: true,
	KeyDurationMs: true, ParamMinDuration: true, ParamMaxDuration: true, ParamText: true,
}

// UnsupportedParams returns, sorted, the keys of params that are neither a
// filter parameter nor listed in allowed.
func UnsupportedParams(params url.Values, allowed ...string) []string {
	var out []string
	for k := range params {
		if filterParams[k] || slices.Contains(allowed, k) {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParamsToFilter decodes backend search parameters. Only the duration bounds
// can be malformed. An equality on duration_ms is an exact bound; explicit
// min_duration and max_duration win over it.
func ParamsToFilter(params url.Values) (Filter, error) {
	get := func(k string) string { return strings.TrimSpace(params.Get(k)) }
	f := Filter{
		RequestID:   get(KeyRequestID),
		UserID:      get(KeyUserID),
		StatusCode:  get(KeyStatusCode),
		Path:        get(KeyPath),
		Method:      strings.ToUpper(get(KeyMethod)),
		Action:      get(KeyAction),
		AuditStatus: get(ParamAuditStatus),
		ErrorType:   get(KeyErrorType),
		Text:        get(ParamText),
	}

	exact, err := parseBound(get(KeyDurationMs))
	if err != nil {
		return Filter{}, fmt.Errorf("invalid %s: %w", KeyDurationMs, err)
	}
	f.MinDuration, f.MaxDuration = exact, exact
	if minBound, err := parseBound(get(ParamMinDuration)); err != nil {
		return Filter{}, fmt.Errorf("invalid %s: %w", ParamMinDuration, err)
	} else if minBound != nil {
		f.MinDuration = minBound
	}
	if maxBound, err := parseBound(get(ParamMaxDuration)); err != nil {
		return Filter{}, fmt.Errorf("invalid %s: %w", ParamMaxDuration, err)
	} else if maxBound != nil {
		f.MaxDuration = maxBound
	}
	return f, nil
}

func parseBound(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
