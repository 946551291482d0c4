package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/gallery/internal/export"
	"github.com/lehigh-university-libraries/gallery/internal/images"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	var (
		format   string
		download string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one artwork",
		Long: `Loads one artwork by id and prints its details, including the derived
thumbnail and full-size image URLs.`,
		Example: `  # Print an artwork
  gallery show 27992

  # Save its images
  gallery show 27992 --download ./images`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(export.Formats, format) {
				return fmt.Errorf("unsupported format: %s (want one of %s)", format, strings.Join(export.Formats, ", "))
			}

			saved := savedstate.New(map[string]any{viewmodel.ArtworkIDKey: args[0]})
			vm := viewmodel.NewArtworkDetailViewModel(saved, opts.repository())
			defer vm.Close()

			state, err := vm.Wait(cmd.Context())
			if err != nil {
				return err
			}

			var artwork models.Artwork
			switch status := state.LoadStatus.(type) {
			case viewmodel.Loaded:
				artwork = status.Artwork
			case viewmodel.LoadFailed:
				if status.Message == viewmodel.MissingIDMessage {
					return fmt.Errorf("invalid artwork id %q", args[0])
				}
				return fmt.Errorf("artwork %s is unavailable", args[0])
			default:
				return fmt.Errorf("artwork %s did not load", args[0])
			}

			if err := export.Write(cmd.OutOrStdout(), format, []models.Artwork{artwork}); err != nil {
				return err
			}

			if download != "" {
				fetcher := images.NewFetcher(opts.cfg.UserAgent)
				imageSet, err := fetcher.FetchArtwork(cmd.Context(), artwork, download)
				if err != nil {
					return err
				}
				for _, path := range []string{imageSet.ThumbnailPath, imageSet.FullPath} {
					if path != "" {
						fmt.Fprintln(cmd.ErrOrStderr(), "saved", path)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVar(&download, "download", "", "Save the thumbnail and full-size image to this directory")

	return cmd
}
