// Package jsontree models a collapsible JSON tree: canonical node paths,
// search-driven expansion and copy actions.
package jsontree

import (
	"strconv"

	"carbon-admin-console/internal/jsonval"
)

// Node is one value in the tree. Children are in traversal order: sorted
// object keys, ascending array indices.
type Node struct {
	Path     Path         `json:"-"`
	PathKey  string       `json:"path"`
	Key      string       `json:"key,omitempty"`
	Type     jsonval.Type `json:"type"`
	Value    any          `json:"-"`
	Children []*Node      `json:"children,omitempty"`
}

// Expandable reports whether the node is an object or an array.
func (n *Node) Expandable() bool {
	return n.Type == jsonval.TypeObject || n.Type == jsonval.TypeArray
}

// Build constructs the tree for v.
func Build(v any) *Node {
	return build(v, Path{}, "")
}

func build(v any, p Path, key string) *Node {
	n := &Node{
		Path:    p,
		PathKey: p.Key(),
		Key:     key,
		Type:    jsonval.GetType(v),
		Value:   v,
	}
	switch x := v.(type) {
	case map[string]any:
		for _, k := range jsonval.Keys(x) {
			n.Children = append(n.Children, build(x[k], p.Child(KeySegment(k)), k))
		}
	case []any:
		for i, item := range x {
			n.Children = append(n.Children, build(item, p.Child(IndexSegment(i)), strconv.Itoa(i)))
		}
	}
	return n
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Lookup resolves p against the tree rooted at root.
func Lookup(root *Node, p Path) (*Node, bool) {
	cur := root
	for _, seg := range p {
		if cur == nil {
			return nil, false
		}
		var next *Node
		switch {
		case seg.IsIndex && cur.Type == jsonval.TypeArray:
			if seg.Index < len(cur.Children) {
				next = cur.Children[seg.Index]
			}
		case !seg.IsIndex && cur.Type == jsonval.TypeObject:
			for _, c := range cur.Children {
				if c.Key == seg.Key {
					next = c
					break
				}
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// LookupKey resolves a canonical path key.
func LookupKey(root *Node, key string) (*Node, bool) {
	p, err := ParseKey(key)
	if err != nil {
		return nil, false
	}
	return Lookup(root, p)
}
