package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"carbon-admin-console/internal/apiclient"
	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/logsearch"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/poller"
	"carbon-admin-console/internal/timeline"
)

func newParseCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a query is understood and what is sent to the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pq := logquery.Parse(args[0])
			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, map[string]any{
					"parsed": pq,
					"chips":  logquery.Chips(pq),
					"params": logquery.BuildQueryParams(pq),
				})
			}
			for _, c := range logquery.Chips(pq) {
				neg := ""
				if c.Negate {
					neg = " (not forwarded)"
				}
				fmt.Fprintf(out, "%s %s %s%s\n", c.Key, c.Op, c.Value, neg)
			}
			if pq.Free != "" {
				fmt.Fprintf(out, "text %q\n", pq.Free)
			}
			fmt.Fprintf(out, "params: %s\n", logquery.BuildQueryParams(pq).Encode())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the parsed query as JSON")
	return cmd
}

type searchFlags struct {
	types       string
	page        int
	perPage     int
	jsonOut     bool
	watch       bool
	interactive bool
}

func (f searchFlags) request(a *app, raw string) (apiclient.SearchRequest, error) {
	kinds, err := model.ParseKinds(f.types)
	if err != nil {
		return apiclient.SearchRequest{}, err
	}
	perPage := f.perPage
	if perPage <= 0 {
		perPage = a.cfg.PerPage
	}
	return apiclient.SearchRequest{Query: logquery.Parse(raw), Kinds: kinds, Page: f.page, PerPage: perPage}, nil
}

func (a *app) render(w io.Writer, env *apiclient.Envelope[[]model.LogRecord], kinds []model.LogKind, jsonOut bool) error {
	if jsonOut {
		return export.Write(w, export.FormatNDJSON, env.Data, nil)
	}
	if err := printRecords(w, env.Data, a.columnsFor(kinds)); err != nil {
		return err
	}
	printPagination(w, env.Pagination)
	return nil
}

func newSearchCmd(a *app) *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search logs with the admin query language",
		Long: `Search logs, e.g.

  logctl search 'status:500 dur>=1000 path:/api/orders timeout'

Keys: request_id (req, rid), user_id (user, uid), duration_ms (dur, time),
status_code (status, code), path (url), method, action, audit_status
(astatus), error_type (etype). Operators: ':' '=' '!=' and, for duration
and status, '>' '>=' '<' '<='.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			if f.interactive {
				return a.interactiveSearch(cmd, f)
			}
			req, err := f.request(a, raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			run := func(ctx context.Context) error {
				env, err := a.client.SearchLogs(ctx, req)
				if err != nil {
					return err
				}
				if f.watch {
					fmt.Fprintf(out, "\n-- %s --\n", time.Now().Format(time.TimeOnly))
				}
				return a.render(out, env, req.Kinds, f.jsonOut)
			}
			if !f.watch {
				ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
				defer cancel()
				return run(ctx)
			}

			ctx, cancel := signalContext()
			defer cancel()
			defer a.startRefresher()()
			poller.New("search", poller.AutoRefreshInterval, run).Run(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.types, "types", "", "comma-separated streams (system,audit,error,llm)")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "records per page (default $LOGCTL_PER_PAGE)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print NDJSON instead of a table")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "refresh every few seconds until interrupted")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "read queries line by line from stdin")
	return cmd
}

type searchResult = logsearch.Result[*apiclient.Envelope[[]model.LogRecord]]

// interactiveSearch treats every stdin line as a new query. Typing faster
// than the debounce only searches the latest line.
func (a *app) interactiveSearch(cmd *cobra.Command, f searchFlags) error {
	ctx, cancel := signalContext()
	defer cancel()

	kinds, err := model.ParseKinds(f.types)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var printMu sync.Mutex
	var delivered atomic.Uint64
	notify := make(chan struct{}, 1)

	search := func(ctx context.Context, q logquery.ParsedQuery) (*apiclient.Envelope[[]model.LogRecord], error) {
		req, err := f.request(a, q.Raw)
		if err != nil {
			return nil, err
		}
		return a.client.SearchLogs(ctx, req)
	}
	s := logsearch.New(ctx, search, func(r searchResult) {
		printMu.Lock()
		if r.Err != nil {
			fmt.Fprintf(out, "error: %v\n", r.Err)
		} else if err := a.render(out, r.Value, kinds, f.jsonOut); err != nil {
			log.Error().Err(err).Msg("Failed to print results")
		}
		printMu.Unlock()
		delivered.Store(r.Generation)
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer s.Close()

	var last uint64
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		last = s.Submit(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if last == 0 {
		return nil
	}

	timeout := time.After(logsearch.DefaultDebounce + a.cfg.Timeout)
	for {
		select {
		case <-notify:
			if delivered.Load() == last {
				return nil
			}
		case <-timeout:
			return fmt.Errorf("timed out waiting for results")
		case <-ctx.Done():
			return nil
		}
	}
}

func newRelatedCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "related <request_id>",
		Short: "Show every log line of one request across streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			env, err := a.client.RelatedLogs(ctx, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), env, nil, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print NDJSON instead of a table")
	return cmd
}

const exportPageSize = 200

// collect pages through a search until the raw view limit or the last page.
func collect(ctx context.Context, fetch func(ctx context.Context, page int) (*apiclient.Envelope[[]model.LogRecord], error)) ([]model.LogRecord, error) {
	var all []model.LogRecord
	for page := 1; len(all) < timeline.RawViewLimit; page++ {
		env, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, env.Data...)
		if len(env.Data) == 0 || env.Pagination == nil || page >= env.Pagination.TotalPages {
			break
		}
	}
	return timeline.Merge(timeline.RawViewLimit, all), nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		types, format, output, columns string
	)
	cmd := &cobra.Command{
		Use:   "export [query]",
		Short: "Download up to 1000 matching records as CSV or NDJSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			fmtKind, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			req, err := searchFlags{types: types, perPage: exportPageSize}.request(a, raw)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 4*a.cfg.Timeout)
			defer cancel()
			records, err := collect(ctx, func(ctx context.Context, page int) (*apiclient.Envelope[[]model.LogRecord], error) {
				req.Page = page
				return a.client.SearchLogs(ctx, req)
			})
			if err != nil {
				return err
			}

			cols := splitList(columns)
			if len(cols) == 0 {
				cols = a.columnsFor(req.Kinds)
			}
			w := cmd.OutOrStdout()
			if output == "" {
				output = fmtKind.Filename(time.Now())
			}
			if output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			if err := export.Write(w, fmtKind, records, cols); err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", len(records), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&types, "types", "", "comma-separated streams")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or ndjson")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, '-' for stdout (default logs-<time>.<format>)")
	cmd.Flags().StringVar(&columns, "columns", "", "comma-separated CSV columns")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
