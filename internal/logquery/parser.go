package logquery

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// Operator is the comparison used by a range filter.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// Canonical filter keys.
const (
	KeyRequestID   = "request_id"
	KeyUserID      = "user_id"
	KeyDurationMs  = "duration_ms"
	KeyStatusCode  = "status_code"
	KeyPath        = "path"
	KeyMethod      = "method"
	KeyAction      = "action"
	KeyAuditStatus = "audit_status"
	KeyErrorType   = "error_type"
)

var aliases = map[string]string{
	"req":          KeyRequestID,
	"rid":          KeyRequestID,
	"request_id":   KeyRequestID,
	"user":         KeyUserID,
	"uid":          KeyUserID,
	"user_id":      KeyUserID,
	"dur":          KeyDurationMs,
	"time":         KeyDurationMs,
	"duration":     KeyDurationMs,
	"duration_ms":  KeyDurationMs,
	"status":       KeyStatusCode,
	"code":         KeyStatusCode,
	"status_code":  KeyStatusCode,
	"path":         KeyPath,
	"url":          KeyPath,
	"method":       KeyMethod,
	"action":       KeyAction,
	"astatus":      KeyAuditStatus,
	"audit_status": KeyAuditStatus,
	"etype":        KeyErrorType,
	"error_type":   KeyErrorType,
}

var rangeKeys = map[string]bool{
	KeyDurationMs: true,
	KeyStatusCode: true,
}

var (
	tokenRegex = regexp.MustCompile(`(?:[^\s"]+|"[^"]*")+`)
	fieldRegex = regexp.MustCompile(`^([^:!<>=]+)(!?=|>=|<=|>|<|:)(.+)$`)
)

// TokenValue is an equality (or negated equality) filter value.
type TokenValue struct {
	Value  string
	Negate bool
}

// MarshalJSON keeps plain tokens as bare strings and wraps negated ones.
func (t TokenValue) MarshalJSON() ([]byte, error) {
	if !t.Negate {
		return json.Marshal(t.Value)
	}
	return json.Marshal(struct {
		Value  string `json:"value"`
		Negate bool   `json:"negate"`
	}{t.Value, true})
}

func (t *TokenValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TokenValue{Value: s}
		return nil
	}
	var wrapped struct {
		Value  string `json:"value"`
		Negate bool   `json:"negate"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*t = TokenValue{Value: wrapped.Value, Negate: wrapped.Negate}
	return nil
}

// ParsedQuery is the structured form of an admin search string.
type ParsedQuery struct {
	Tokens map[string]TokenValue          `json:"tokens"`
	Free   string                         `json:"free"`
	Ranges map[string]map[Operator]string `json:"ranges"`
	Raw    string                         `json:"raw"`
}

// CanonicalKey resolves a shorthand alias to its canonical filter key.
// Unknown keys are returned lowercased.
func CanonicalKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if mapped, ok := aliases[k]; ok {
		return mapped
	}
	return k
}

// IsRangeKey reports whether key accepts comparison operators.
func IsRangeKey(key string) bool {
	return rangeKeys[key]
}

// Parse converts a raw search string into a ParsedQuery. Tokens that do not
// look like key/operator/value triples become free text; Parse never fails.
func Parse(raw string) ParsedQuery {
	pq := ParsedQuery{
		Tokens: map[string]TokenValue{},
		Ranges: map[string]map[Operator]string{},
		Raw:    raw,
	}

	var free []string
	for _, tok := range tokenRegex.FindAllString(raw, -1) {
		m := fieldRegex.FindStringSubmatch(tok)
		if m == nil {
			if word := unquote(tok); word != "" {
				free = append(free, word)
			}
			continue
		}

		key := CanonicalKey(m[1])
		op := m[2]
		value := unquote(m[3])

		switch {
		case IsRangeKey(key) && isComparison(op):
			if pq.Ranges[key] == nil {
				pq.Ranges[key] = map[Operator]string{}
			}
			pq.Ranges[key][Operator(op)] = value
		case op == "!=":
			pq.Tokens[key] = TokenValue{Value: value, Negate: true}
		default:
			pq.Tokens[key] = TokenValue{Value: value}
		}
	}
	pq.Free = strings.Join(free, " ")
	return pq
}

func isComparison(op string) bool {
	switch Operator(op) {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		return true
	}
	return false
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// Chip is one active filter as shown next to the search box.
type Chip struct {
	Key    string `json:"key"`
	Op     string `json:"op"`
	Value  string `json:"value"`
	Negate bool   `json:"negate,omitempty"`
}

// Chips lists the active filters of pq ordered by key then operator.
func Chips(pq ParsedQuery) []Chip {
	chips := make([]Chip, 0, len(pq.Tokens)+len(pq.Ranges))
	for k, v := range pq.Tokens {
		op := ":"
		if v.Negate {
			op = "!="
		}
		chips = append(chips, Chip{Key: k, Op: op, Value: v.Value, Negate: v.Negate})
	}
	for k, ops := range pq.Ranges {
		for op, v := range ops {
			chips = append(chips, Chip{Key: k, Op: string(op), Value: v})
		}
	}
	sort.Slice(chips, func(i, j int) bool {
		if chips[i].Key != chips[j].Key {
			return chips[i].Key < chips[j].Key
		}
		return chips[i].Op < chips[j].Op
	})
	return chips
}
