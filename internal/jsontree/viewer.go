package jsontree

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"carbon-admin-console/internal/jsonval"
)

// DefaultFeedbackTTL is how long a copy confirmation stays visible.
const DefaultFeedbackTTL = 1200 * time.Millisecond

var ErrNodeNotFound = errors.New("node not found")

// Clipboard receives copied text.
type Clipboard interface {
	WriteText(text string) error
}

// WriterClipboard copies by writing the text plus a newline to W.
type WriterClipboard struct {
	W io.Writer
}

func (c WriterClipboard) WriteText(text string) error {
	_, err := fmt.Fprintln(c.W, text)
	return err
}

// Row is one visible line of the tree.
type Row struct {
	PathKey    string       `json:"path"`
	Key        string       `json:"key,omitempty"`
	Depth      int          `json:"depth"`
	Type       jsonval.Type `json:"type"`
	Display    string       `json:"display,omitempty"`
	Expandable bool         `json:"expandable"`
	Expanded   bool         `json:"expanded"`
	ChildCount int          `json:"child_count,omitempty"`
	Match      bool         `json:"match,omitempty"`
}

type Option func(*Viewer)

func WithFeedbackTTL(d time.Duration) Option {
	return func(v *Viewer) { v.feedbackTTL = d }
}

// Viewer holds the interactive state of one rendered tree. It is safe for
// concurrent use.
type Viewer struct {
	mu          sync.Mutex
	root        *Node
	expanded    map[string]bool
	search      string
	matches     map[string]bool
	clipboard   Clipboard
	feedback    string
	feedbackGen uint64
	feedbackTTL time.Duration
	timer       *time.Timer
}

// NewViewer builds the tree for value. Only the root starts expanded.
func NewViewer(value any, clipboard Clipboard, opts ...Option) *Viewer {
	v := &Viewer{
		root:        Build(value),
		expanded:    map[string]bool{RootKey: true},
		matches:     map[string]bool{},
		clipboard:   clipboard,
		feedbackTTL: DefaultFeedbackTTL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Viewer) Root() *Node { return v.root }

// Expanded returns a copy of the expanded set.
func (v *Viewer) Expanded() map[string]bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]bool, len(v.expanded))
	for k := range v.expanded {
		out[k] = true
	}
	return out
}

func (v *Viewer) IsExpanded(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expanded[key]
}

// Toggle flips the expansion of an expandable node.
func (v *Viewer) Toggle(key string) error {
	n, ok := LookupKey(v.root, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	if !n.Expandable() {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.expanded[key] {
		delete(v.expanded, key)
	} else {
		v.expanded[key] = true
	}
	return nil
}

// ExpandAll opens every object and array.
func (v *Viewer) ExpandAll() {
	keys := []string{}
	Walk(v.root, func(n *Node) bool {
		if n.Expandable() {
			keys = append(keys, n.PathKey)
		}
		return true
	})
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, k := range keys {
		v.expanded[k] = true
	}
}

// CollapseAll resets the expanded set to the root alone.
func (v *Viewer) CollapseAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded = map[string]bool{RootKey: true}
}

// SetSearch records the search term and expands every ancestor of a match.
// Matching is a case-insensitive substring test against key names and leaf
// values. The matching path keys are returned in pre-order.
func (v *Viewer) SetSearch(term string) []string {
	needle := strings.ToLower(strings.TrimSpace(term))
	matched := []string{}
	toExpand := []string{}
	if needle != "" {
		Walk(v.root, func(n *Node) bool {
			if nodeMatches(n, needle) {
				matched = append(matched, n.PathKey)
				for i := 0; i < len(n.Path); i++ {
					toExpand = append(toExpand, n.Path[:i].Key())
				}
			}
			return true
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = needle
	v.matches = make(map[string]bool, len(matched))
	for _, k := range matched {
		v.matches[k] = true
	}
	for _, k := range toExpand {
		v.expanded[k] = true
	}
	return matched
}

func nodeMatches(n *Node, needle string) bool {
	if n.Key != "" && strings.Contains(strings.ToLower(n.Key), needle) {
		return true
	}
	if n.Expandable() {
		return false
	}
	return strings.Contains(strings.ToLower(jsonval.Display(n.Value)), needle)
}

// Rows flattens the visible part of the tree.
func (v *Viewer) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := []Row{}
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		r := Row{
			PathKey:    n.PathKey,
			Key:        n.Key,
			Depth:      depth,
			Type:       n.Type,
			Expandable: n.Expandable(),
			Expanded:   v.expanded[n.PathKey],
			Match:      v.matches[n.PathKey],
		}
		if r.Expandable {
			r.ChildCount = len(n.Children)
		} else {
			r.Display = jsonval.Display(n.Value)
		}
		rows = append(rows, r)
		if r.Expandable && r.Expanded {
			for _, c := range n.Children {
				visit(c, depth+1)
			}
		}
	}
	visit(v.root, 0)
	return rows
}

// CopyPath copies the canonical path key of a node.
func (v *Viewer) CopyPath(key string) error {
	n, ok := LookupKey(v.root, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	return v.copy(n.PathKey, "Path copied")
}

// CopyValue copies a node's value: pretty JSON for objects and arrays, the
// display string for leaves.
func (v *Viewer) CopyValue(key string) error {
	n, ok := LookupKey(v.root, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, key)
	}
	text := jsonval.Display(n.Value)
	if n.Expandable() {
		text = jsonval.Pretty(n.Value)
	}
	return v.copy(text, "Value copied")
}

// CopyJSON copies the whole tree as pretty JSON.
func (v *Viewer) CopyJSON() error {
	return v.copy(jsonval.Pretty(v.root.Value), "JSON copied")
}

func (v *Viewer) copy(text, message string) error {
	if v.clipboard == nil {
		return errors.New("no clipboard configured")
	}
	if err := v.clipboard.WriteText(text); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.feedback = message
	v.feedbackGen++
	gen := v.feedbackGen
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.feedbackTTL, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.feedbackGen == gen {
			v.feedback = ""
		}
	})
	return nil
}

// Feedback returns the current copy confirmation, empty once it expired.
func (v *Viewer) Feedback() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.feedback
}

// Close stops the pending feedback timer.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
	}
}
