package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/booker/internal/catalog"
	"github.com/sakif/booker/internal/config"
	"github.com/sakif/booker/internal/model"
	"github.com/sakif/booker/internal/search"
)

// NewSearchCommand creates the search command. With a query argument it runs
// one lookup; without one it reads queries line by line from stdin, sending
// each through a single-flight controller.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

			client, err := catalog.New(cfg.Catalog(), logger)
			if err != nil {
				return err
			}

			results := search.NewResults()
			ctrl := search.NewController(client, results, cfg.SearchTimeout, logger)
			out := &printer{w: cmd.OutOrStdout(), format: rootOpts.Format}

			if len(args) == 1 {
				return runQuery(cmd.Context(), ctrl, results, out, args[0])
			}
			return runREPL(cmd.Context(), ctrl, results, out, cmd.InOrStdin())
		},
	}
	return cmd
}

func runQuery(ctx context.Context, ctrl *search.Controller, results *search.Results, out *printer, query string) error {
	issued, err := ctrl.Submit(ctx, query)
	if err != nil {
		return err
	}
	if !issued {
		return fmt.Errorf("empty query")
	}
	_, books, _ := results.Snapshot()
	return out.books(books)
}

func runREPL(ctx context.Context, ctrl *search.Controller, results *search.Results, out *printer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		query := scanner.Text()

		issued, err := ctrl.Submit(ctx, query)
		switch {
		case err != nil:
			out.note("search failed: %v", err)
		case !issued:
			if strings.TrimSpace(query) != "" {
				out.note("skipped: same as last query")
			}
		default:
			_, books, _ := results.Snapshot()
			if err := out.books(books); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

type printer struct {
	w      io.Writer
	format string
}

func (p *printer) books(books []model.Book) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}
	if len(books) == 0 {
		_, err := fmt.Fprintln(p.w, "no results")
		return err
	}
	for i, b := range books {
		line := fmt.Sprintf("%2d. %s", i+1, b.Title)
		if len(b.Authors) > 0 {
			line += " by " + strings.Join(b.Authors, ", ")
		}
		if _, err := fmt.Fprintf(p.w, "%s [%s]\n", line, b.GoogleID); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) note(format string, args ...any) {
	if p.format == "json" {
		return
	}
	fmt.Fprintf(p.w, "# "+format+"\n", args...)
}
