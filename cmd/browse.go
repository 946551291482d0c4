package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lehigh-university-libraries/gallery/internal/browse"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
	"github.com/spf13/cobra"
)

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the collection in the terminal",
		Long: `Opens a terminal browser over the collection.

The last search is restored on start. Press / to search, enter to open an
artwork, r to retry a failed load and q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// logs would corrupt the screen
			var logOutput io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				logOutput = f
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: opts.cfg.SlogLevel()})))

			store, saved := opts.savedState()
			repo := opts.repository()
			vm := viewmodel.NewGalleryViewModel(saved, repo)

			ctx := cmd.Context()
			program := tea.NewProgram(browse.NewModel(ctx, vm, repo), tea.WithAltScreen(), tea.WithContext(ctx))
			_, runErr := program.Run()

			vm.Close()
			opts.saveState(store, saved)

			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return fmt.Errorf("browser failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while browsing")

	return cmd
}
