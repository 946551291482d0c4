package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/gallery/internal/catalog"
	"github.com/lehigh-university-libraries/gallery/internal/config"
	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the config they resolve to
type rootOptions struct {
	stateFile string
	apiURL    string
	logLevel  string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse the Art Institute of Chicago collection",
		Long: `Gallery searches the Art Institute of Chicago public collection API.

Results load page by page as you scroll, from the terminal browser, the
search command, or the JSON service started by serve.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.stateFile, "state", "", "Path of the saved state file (env "+config.EnvStateFile+")")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Base URL of the collection API (env "+config.EnvAPIBaseURL+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env "+config.EnvLogLevel+")")

	// Add subcommands
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

// load resolves the configuration. Flags take precedence over the
// environment.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("state") {
		cfg.StateFile = o.stateFile
	}
	if flags.Changed("api-url") {
		cfg.APIBaseURL = o.apiURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return nil
}

func (o *rootOptions) repository() *gallery.DataRepository {
	client := catalog.NewClient(o.cfg.APIBaseURL, o.cfg.UserAgent, o.cfg.HTTPTimeout)
	client.SetRateLimit(o.cfg.RateLimit, catalog.DefaultBurst)
	return gallery.NewDataRepository(client)
}

// savedState loads the state file. An unreadable file is logged and
// replaced by an empty state.
func (o *rootOptions) savedState() (*savedstate.Store, *savedstate.Handle) {
	store := savedstate.NewStore(o.cfg.StateFile)
	saved, err := store.Load()
	if err != nil {
		slog.Warn("Ignoring unreadable state file", "path", store.Path, "err", err)
		saved = savedstate.New(nil)
	}
	return store, saved
}

func (o *rootOptions) saveState(store *savedstate.Store, saved *savedstate.Handle) {
	if err := store.Save(saved); err != nil {
		slog.Warn("Unable to save state", "path", store.Path, "err", err)
	}
}
