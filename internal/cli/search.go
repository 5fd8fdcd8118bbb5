package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/partscout/pkg/config"
	"github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/part"
	"github.com/matzehuels/partscout/pkg/supplier"
)

const (
	waitOrder = "order"
	waitFirst = "first"
)

// searchOpts holds flags for the search command.
type searchOpts struct {
	supplier string
	only     bool
	json     bool
	wait     string
	limit    int
	quantity int
	refresh  bool
	noCache  bool
	dryRun   bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{wait: waitOrder, limit: -1, quantity: 1}

	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search all configured suppliers for a part",
		Long: `Search all configured suppliers for one or more part numbers.

Every loaded supplier is queried concurrently. Results are printed per
supplier, either in supplier order (--wait=order) or as they arrive
(--wait=first).`,
		Example: `  # Search every supplier
  partscout search LM358

  # Ask Texas Instruments first, then the rest
  partscout search --supplier ti LM358

  # Only Texas Instruments, machine readable
  partscout search --supplier ti --only --json LM358`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.supplier, "supplier", "s", "", "supplier id to search first")
	cmd.Flags().BoolVar(&opts.only, "only", false, "search only the --supplier")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&opts.wait, "wait", opts.wait, "print order: order or first")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", opts.limit, "parts listed per supplier (default from max_results, 0 for all)")
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "q", opts.quantity, "order quantity the unit price column is quoted for")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached answers")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "do not record supplier companies in the inventory")

	return cmd
}

func (o searchOpts) validate() error {
	if o.wait != waitOrder && o.wait != waitFirst {
		return errors.New(errors.ErrCodeInvalidInput, "--wait must be %q or %q", waitOrder, waitFirst)
	}
	if o.only && o.supplier == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--only requires --supplier")
	}
	if o.quantity < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--quantity must be at least 1")
	}
	return nil
}

// searchRecord is one supplier's answer for one term.
type searchRecord struct {
	Term     string            `json:"term"`
	Supplier supplier.Identity `json:"supplier"`
	Company  int               `json:"company,omitempty"`
	Total    int               `json:"total"`
	Parts    []part.Part       `json:"parts"`
	Error    string            `json:"error,omitempty"`
	Code     errors.Code       `json:"code,omitempty"`
}

func (c *CLI) runSearch(ctx context.Context, terms []string, opts searchOpts) error {
	if err := opts.validate(); err != nil {
		return err
	}
	for _, term := range terms {
		if err := errors.ValidateSearchTerm(term); err != nil {
			return err
		}
	}

	e, err := c.newEnv(ctx, envOptions{noCache: opts.noCache, refresh: opts.refresh, dryRun: opts.dryRun})
	if err != nil {
		return err
	}
	defer e.Close()

	if len(e.registry.Loaded()) == 0 {
		printWarning("No suppliers loaded")
		printDetail("Configure suppliers in %s", c.suppliersFile(e.cfg))
		printNextStep("See what is available", appName+" suppliers")
		return errors.New(errors.ErrCodeNotReady, "no suppliers configured")
	}

	limit := opts.limit
	if limit < 0 {
		limit = e.cfg.MaxResults
	}

	logger := loggerFromContext(ctx)
	route := supplier.Route{SupplierID: opts.supplier, Only: opts.only}
	var records []searchRecord
	for _, term := range terms {
		handles, err := e.dispatch.Search(ctx, term, route)
		if err != nil {
			return err
		}
		prog := newProgress(logger)

		var spinner *Spinner
		if !opts.json {
			spinner = newSearchSpinner(ctx, os.Stderr, term, handles)
			spinner.Start()
		}
		emit := func(r searchRecord) {
			if opts.json {
				records = append(records, r)
				return
			}
			spinner.Suspend(func() { printRecord(r, limit, opts.quantity) })
		}

		err = collect(ctx, handles, opts.wait, emit)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return err
		}
		if !opts.json {
			prog.done(fmt.Sprintf("Searched %d suppliers for %s", len(handles), term))
		}
	}

	if opts.json {
		for i := range records {
			records[i].Parts = capParts(records[i].Parts, limit)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return nil
}

// collect hands every finished handle to emit, in supplier order or as
// soon as each one finishes.
func collect(ctx context.Context, handles []*supplier.Handle, wait string, emit func(searchRecord)) error {
	if wait == waitFirst {
		n := 0
		for done := range supplier.Collect(ctx, handles) {
			emit(newRecord(done.Handle, done.Result, done.Err))
			n++
		}
		if n < len(handles) {
			return ctx.Err()
		}
		return nil
	}

	for _, h := range handles {
		res, err := h.Result(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		emit(newRecord(h, res, err))
	}
	return nil
}

func newRecord(h *supplier.Handle, res *supplier.Result, err error) searchRecord {
	r := searchRecord{Term: h.Term, Supplier: h.Supplier, Company: h.Company.PK, Parts: []part.Part{}}
	if err != nil {
		r.Error = err.Error()
		r.Code = errors.GetCode(err)
		return r
	}
	r.Total = res.Total
	if res.Parts != nil {
		r.Parts = res.Parts
	}
	return r
}

func capParts(parts []part.Part, limit int) []part.Part {
	if limit > 0 && len(parts) > limit {
		return parts[:limit]
	}
	return parts
}

func (c *CLI) suppliersFile(cfg *config.Config) string {
	return filepath.Join(cfg.Dir, config.SuppliersFile)
}
