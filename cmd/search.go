package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/gallery/internal/export"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the collection and print the results",
		Long: `Searches the collection and prints the first results.

Without a query the last search is repeated; an empty last search lists the
whole collection. The query becomes the last search.`,
		Example: `  # Twenty impressionist works as a table
  gallery search impressionism

  # Export 200 results to parquet
  gallery search "cats" --limit 200 --format parquet --output cats.parquet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			if !slices.Contains(export.Formats, format) {
				return fmt.Errorf("unsupported format: %s (want one of %s)", format, strings.Join(export.Formats, ", "))
			}

			store, saved := opts.savedState()
			vm := viewmodel.NewGalleryViewModel(saved, opts.repository())
			if len(args) == 1 {
				vm.Dispatch(viewmodel.Search{Query: args[0]})
			}

			snapshot, err := collect(cmd.Context(), vm, limit)
			vm.Close()
			opts.saveState(store, saved)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			items := snapshot.Items
			if len(items) > limit {
				items = items[:limit]
			}
			return export.Write(w, format, items)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of results to print")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

// collect loads results until limit items are present or the results end.
// A failed first page is an error; a failure further down returns what
// loaded so far.
func collect(ctx context.Context, vm *viewmodel.GalleryViewModel, limit int) (paging.Snapshot[models.Artwork], error) {
	accessErr := vm.Access(ctx, limit-1)
	snapshot := vm.Pager().Snapshot()

	if snapshot.LoadStates.Refresh.Status == paging.Failed {
		return snapshot, fmt.Errorf("search failed: %w", snapshot.LoadStates.Refresh.Err)
	}
	if accessErr != nil {
		if ctx.Err() != nil {
			return snapshot, ctx.Err()
		}
		slog.Warn("Results are incomplete", "loaded", len(snapshot.Items), "err", accessErr)
	}
	return snapshot, nil
}
