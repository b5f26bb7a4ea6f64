package jsontree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RootKey is the canonical key of the root node.
const RootKey = "$"

// Segment is one step of a Path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func KeySegment(k string) Segment { return Segment{Key: k} }
func IndexSegment(i int) Segment  { return Segment{Index: i, IsIndex: true} }

// Path addresses a node from the root.
type Path []Segment

// Child returns a copy of p extended by s.
func (p Path) Child(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// Key renders the canonical string form, e.g. $.items[0].name. Object keys
// that would be ambiguous in dotted form are written as ["quoted"].
func (p Path) Key() string {
	var b strings.Builder
	b.WriteString(RootKey)
	for _, s := range p {
		switch {
		case s.IsIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case isPlainKey(s.Key):
			b.WriteByte('.')
			b.WriteString(s.Key)
		default:
			quoted, _ := json.Marshal(s.Key)
			b.WriteByte('[')
			b.Write(quoted)
			b.WriteByte(']')
		}
	}
	return b.String()
}

func (p Path) String() string { return p.Key() }

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	return !strings.ContainsAny(k, ".[]\" \t\r\n")
}

var ErrInvalidPath = errors.New("invalid path key")

// ParseKey is the inverse of Path.Key.
func ParseKey(key string) (Path, error) {
	if !strings.HasPrefix(key, RootKey) {
		return nil, fmt.Errorf("%w: %q must start with %s", ErrInvalidPath, key, RootKey)
	}
	p := Path{}
	rest := key[len(RootKey):]
	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			seg := rest[1 : 1+end]
			if seg == "" {
				return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidPath, key)
			}
			p = append(p, KeySegment(seg))
			rest = rest[1+end:]
		case '[':
			if len(rest) > 1 && rest[1] == '"' {
				dec := json.NewDecoder(strings.NewReader(rest[1:]))
				var k string
				if err := dec.Decode(&k); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
				}
				consumed := 1 + int(dec.InputOffset())
				if consumed >= len(rest) || rest[consumed] != ']' {
					return nil, fmt.Errorf("%w: unterminated quoted key in %q", ErrInvalidPath, key)
				}
				p = append(p, KeySegment(k))
				rest = rest[consumed+1:]
				continue
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrInvalidPath, key)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, key)
			}
			p = append(p, IndexSegment(idx))
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPath, rest[0], key)
		}
	}
	return p, nil
}
