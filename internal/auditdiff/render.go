package auditdiff

import (
	"fmt"
	"strings"

	"carbon-admin-console/internal/jsontree"
	"carbon-admin-console/internal/jsonval"
)

type Mode string

const (
	ModeInline     Mode = "inline"
	ModeSideBySide Mode = "side-by-side"
	ModeTree       Mode = "tree"
)

// ParseMode accepts the mode names plus the "split" and "nested" shorthands.
// Unknown names fall back to inline.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "side-by-side", "sidebyside", "split":
		return ModeSideBySide
	case "tree", "nested":
		return ModeTree
	}
	return ModeInline
}

type InlineLine struct {
	Sign  string `json:"sign"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

type SideBySideRow struct {
	Path string `json:"path"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// View is one rendering of an old/new pair. Only the fields of the chosen
// mode are populated.
type View struct {
	Mode    Mode            `json:"mode"`
	Changes []Change        `json:"changes"`
	Inline  []InlineLine    `json:"inline,omitempty"`
	Rows    []SideBySideRow `json:"rows,omitempty"`
	OldTree []jsontree.Row  `json:"old_tree,omitempty"`
	NewTree []jsontree.Row  `json:"new_tree,omitempty"`
}

// Render parses both sides permissively and renders them in mode.
func Render(mode Mode, oldRaw, newRaw any) View {
	oldVal, newVal := jsonval.ParseLoose(oldRaw), jsonval.ParseLoose(newRaw)
	changes := BuildDiff(oldVal, newVal, "")
	if changes == nil {
		changes = []Change{}
	}
	v := View{Mode: mode, Changes: changes}

	switch mode {
	case ModeSideBySide:
		for _, c := range changes {
			v.Rows = append(v.Rows, SideBySideRow{
				Path: displayPath(c.Path),
				Old:  jsonval.Display(c.Old),
				New:  jsonval.Display(c.New),
			})
		}
	case ModeTree:
		oldViewer := jsontree.NewViewer(oldVal, nil)
		oldViewer.ExpandAll()
		newViewer := jsontree.NewViewer(newVal, nil)
		newViewer.ExpandAll()
		v.OldTree = oldViewer.Rows()
		v.NewTree = newViewer.Rows()
	default:
		v.Mode = ModeInline
		for _, c := range changes {
			p := displayPath(c.Path)
			if jsonval.GetType(c.Old) != jsonval.TypeUndefined {
				v.Inline = append(v.Inline, InlineLine{Sign: "-", Path: p, Value: jsonval.Display(c.Old)})
			}
			if jsonval.GetType(c.New) != jsonval.TypeUndefined {
				v.Inline = append(v.Inline, InlineLine{Sign: "+", Path: p, Value: jsonval.Display(c.New)})
			}
		}
	}
	return v
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

// Text renders a view for a terminal.
func (v View) Text() string {
	var b strings.Builder
	switch v.Mode {
	case ModeSideBySide:
		width := len("path")
		for _, r := range v.Rows {
			width = max(width, len(r.Path))
		}
		fmt.Fprintf(&b, "%-*s | %s | %s\n", width, "path", "old", "new")
		for _, r := range v.Rows {
			fmt.Fprintf(&b, "%-*s | %s | %s\n", width, r.Path, r.Old, r.New)
		}
	case ModeTree:
		b.WriteString("--- old\n")
		writeTree(&b, v.OldTree)
		b.WriteString("+++ new\n")
		writeTree(&b, v.NewTree)
	default:
		for _, l := range v.Inline {
			fmt.Fprintf(&b, "%s %s: %s\n", l.Sign, l.Path, l.Value)
		}
	}
	if len(v.Changes) == 0 {
		b.WriteString("no changes\n")
	}
	return b.String()
}

func writeTree(b *strings.Builder, rows []jsontree.Row) {
	for _, r := range rows {
		indent := strings.Repeat("  ", r.Depth)
		label := r.Key
		if label == "" {
			label = r.PathKey
		}
		if r.Expandable {
			fmt.Fprintf(b, "%s%s (%s, %d)\n", indent, label, r.Type, r.ChildCount)
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, label, r.Display)
	}
}
