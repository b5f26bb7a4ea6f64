package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"carbon-admin-console/internal/auditdiff"
	"carbon-admin-console/internal/jsontree"
	"carbon-admin-console/internal/jsonval"
)

// readJSONArg returns the contents of the file named by arg, stdin for "-",
// or arg itself when no such file exists.
func readJSONArg(in io.Reader, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(in)
		return string(data), err
	}
	data, err := os.ReadFile(arg)
	if errors.Is(err, os.ErrNotExist) {
		return arg, nil
	}
	return string(data), err
}

func newDiffCmd(a *app) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare the old and new values of an audit entry",
		Long:  "Each side is a file, '-' for stdin, or inline JSON. Values that are not JSON are compared as text.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldRaw, err := readJSONArg(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			newRaw, err := readJSONArg(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			view := auditdiff.Render(auditdiff.ParseMode(mode), oldRaw, newRaw)
			_, err = io.WriteString(cmd.OutOrStdout(), view.Text())
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(auditdiff.ModeInline), "inline, side-by-side or tree")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		search            string
		expandAll         bool
		toggle            []string
		copyPath, copyVal string
	)
	cmd := &cobra.Command{
		Use:   "tree <json>",
		Short: "Browse a JSON document as a collapsible tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readJSONArg(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			v := jsontree.NewViewer(jsonval.ParseLoose(raw), jsontree.WriterClipboard{W: out})
			defer v.Close()

			switch {
			case copyPath != "":
				return v.CopyPath(copyPath)
			case copyVal != "":
				return v.CopyValue(copyVal)
			}

			if expandAll {
				v.ExpandAll()
			}
			for _, key := range toggle {
				if err := v.Toggle(key); err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
			}
			if search != "" {
				matches := v.SetSearch(search)
				fmt.Fprintf(cmd.ErrOrStderr(), "%d matches\n", len(matches))
			}
			printTree(out, v.Rows())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "highlight keys and values containing this text")
	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "expand every node")
	cmd.Flags().StringSliceVar(&toggle, "toggle", nil, "path keys to expand or collapse, e.g. $.user")
	cmd.Flags().StringVar(&copyPath, "copy-path", "", "print the dotted path of a node")
	cmd.Flags().StringVar(&copyVal, "copy-value", "", "print the JSON value of a node")
	return cmd
}

func printTree(w io.Writer, rows []jsontree.Row) {
	for _, r := range rows {
		marker := "  "
		switch {
		case r.Expandable && r.Expanded:
			marker = "▾ "
		case r.Expandable:
			marker = "▸ "
		}
		label := r.Key
		if label == "" {
			label = r.PathKey
		}
		line := strings.Repeat("  ", r.Depth) + marker + label
		if r.Expandable {
			line += fmt.Sprintf(" (%s, %d)", r.Type, r.ChildCount)
		} else {
			line += ": " + r.Display
		}
		if r.Match {
			line += "  *"
		}
		fmt.Fprintln(w, line)
	}
}
