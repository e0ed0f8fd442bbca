package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/matheus3301/fleetdesk/internal/backend"
	"github.com/matheus3301/fleetdesk/internal/collection"
	"github.com/matheus3301/fleetdesk/internal/rpc"
	"github.com/spf13/cobra"
)

// maxPages bounds --all against a backend that never reports the end.
const maxPages = 500

var (
	listSearch string
	listAll    bool
	listLimit  int
	listPage   int
	listFlags  filterFlags
)

// filterFlags are the document filters of list.
type filterFlags struct {
	seen, unseen       bool
	flagged, unflagged bool
	category           string
	types              []string
	from, to           string
}

// filters turns the flags into backend filters, rejecting contradictions.
func (f filterFlags) filters() (backend.Filters, error) {
	if f.seen && f.unseen {
		return backend.Filters{}, fmt.Errorf("--seen and --unseen are mutually exclusive")
	}
	if f.flagged && f.unflagged {
		return backend.Filters{}, fmt.Errorf("--flagged and --unflagged are mutually exclusive")
	}
	var terms []string
	if f.seen {
		terms = append(terms, "seen")
	}
	if f.unseen {
		terms = append(terms, "unseen")
	}
	if f.flagged {
		terms = append(terms, "flagged")
	}
	if f.unflagged {
		terms = append(terms, "unflagged")
	}
	if f.category != "" {
		terms = append(terms, "category="+f.category)
	}
	if len(f.types) > 0 {
		terms = append(terms, "type="+strings.Join(f.types, ","))
	}
	if f.from != "" {
		terms = append(terms, "from="+f.from)
	}
	if f.to != "" {
		terms = append(terms, "to="+f.to)
	}
	return backend.ParseFilters(terms)
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "search text")
	listCmd.Flags().BoolVar(&listFlags.seen, "seen", false, "documents: only seen")
	listCmd.Flags().BoolVar(&listFlags.unseen, "unseen", false, "documents: only unseen")
	listCmd.Flags().BoolVar(&listFlags.flagged, "flagged", false, "documents: only flagged")
	listCmd.Flags().BoolVar(&listFlags.unflagged, "unflagged", false, "documents: only unflagged")
	listCmd.Flags().StringVar(&listFlags.category, "category", "", "documents: category")
	listCmd.Flags().StringSliceVar(&listFlags.types, "type", nil, "documents: types (repeat or comma separate)")
	listCmd.Flags().StringVar(&listFlags.from, "from", "", "documents: start date YYYY-MM-DD")
	listCmd.Flags().StringVar(&listFlags.to, "to", "", "documents: end date YYYY-MM-DD")
	listCmd.Flags().BoolVar(&listAll, "all", false, "follow pages until the backend has no more")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "page size (config default when 0)")
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "page to fetch")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:       "list <drivers|documents|threads>",
	Short:     "Fetch a backend list with the session's token",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{backend.Drivers.Name, backend.Documents.Name, backend.Threads.Name},
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := backend.ResourceByName(args[0])
		if err != nil {
			return err
		}
		filters, err := listFlags.filters()
		if err != nil {
			return err
		}
		if !filters.IsZero() && res.Name != backend.Documents.Name {
			return fmt.Errorf("filters apply to documents only")
		}
		api, cfg, err := backendClient()
		if err != nil {
			return err
		}
		limit := listLimit
		if limit <= 0 {
			limit = cfg.Lists.PageSize
		}

		var token string
		if err := withDaemon(cmd, func(ctx context.Context, c *rpc.Client) error {
			token, err = c.GetToken(ctx)
			return err
		}); err != nil {
			return fmt.Errorf("token for session %q: %w", sessionFlag, err)
		}

		q := backend.Query{Page: listPage, Limit: limit, Filters: filters}
		if cmd.Flags().Changed("search") {
			q.Search = backend.StringPtr(listSearch)
		}

		items, last, err := fetchPages(cmd.Context(), api, token, res, q, listAll)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]any{
				"items":    items,
				"page":     last.Page,
				"has_more": last.HasMore,
				"total":    last.Total,
			})
		}
		for _, r := range items {
			fmt.Println(summary(res, r))
		}
		fmt.Printf("-- %d shown, page %d, more: %v\n", len(items), last.Page, last.HasMore)
		return nil
	},
}

// fetchPages reads q's page and, with all set, every following page while
// the backend reports more.
func fetchPages(ctx context.Context, api collection.Lister, token string, res backend.Resource, q backend.Query, all bool) ([]backend.Record, backend.Page[backend.Record], error) {
	var items []backend.Record
	for n := 0; ; n++ {
		page, err := api.List(ctx, token, res.Path, q)
		if err != nil {
			return items, page, err
		}
		items = append(items, page.Items...)
		if !all || !page.HasMore || len(page.Items) == 0 || n+1 >= maxPages {
			return items, page, nil
		}
		q.Page = page.Page + 1
	}
}

func summary(res backend.Resource, r backend.Record) string {
	switch res.Name {
	case backend.Drivers.Name:
		d := backend.DriverFrom(r)
		return fmt.Sprintf("%-26s %-28s %-10s %s", d.ID, d.Name, d.Truck, yesNo(d.Active, "active", "inactive"))
	case backend.Documents.Name:
		d := backend.DocumentFrom(r)
		var marks []string
		if d.Seen {
			marks = append(marks, "seen")
		}
		if d.Flagged {
			marks = append(marks, "flagged")
		}
		return fmt.Sprintf("%-26s %-32s %-20s %s", d.ID, d.Title, d.DriverName, strings.Join(marks, ","))
	default:
		t := backend.ThreadFrom(r)
		return fmt.Sprintf("%-26s %s", t.ID, t.Title)
	}
}
