package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/artifact"
	"github.com/v0xg/pagekit/internal/bdd"
	"github.com/v0xg/pagekit/internal/config"
	"github.com/v0xg/pagekit/internal/dataset"
	"github.com/v0xg/pagekit/internal/logging"
	"github.com/v0xg/pagekit/internal/session"
)

var (
	envDir      string
	profile     string
	tags        string
	format      string
	concurrency int
	record      bool
	archive     bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagekit [feature paths...]",
		Short: "Run browser UI scenarios against a storefront",
		Long: `pagekit runs Gherkin feature files against the application named by an
environment profile. Every scenario gets its own browser session; every step
is captured as a screenshot, with an extra capture when a scenario fails.

Example:
  pagekit --profile staging --tags @smoke features/`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&envDir, "env-dir", "env", "Directory holding <profile>.env files")
	rootCmd.Flags().StringVarP(&profile, "profile", "p", "qa", "Environment profile to run against")
	rootCmd.Flags().StringVarP(&tags, "tags", "t", "", "Tag expression selecting scenarios (e.g. \"@smoke && ~@wip\")")
	rootCmd.Flags().StringVarP(&format, "format", "f", "pretty", "Output format: pretty, progress, cucumber, junit")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "Scenarios run in parallel, each with its own browser")
	rootCmd.Flags().BoolVar(&record, "record", false, "Record every scenario as an animated GIF (overrides RECORD_GIF)")
	rootCmd.Flags().BoolVar(&archive, "archive", false, "Zip the run's artifact directory when done")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer log.Sync()

	settings, err := config.Load(config.Options{EnvDir: envDir, Profile: profile})
	if err != nil {
		return err
	}
	if record {
		settings.RecordGIF = true
	}
	log.Debug("Profile loaded",
		zap.String("profile", settings.Profile),
		zap.String("url", settings.AppURL),
		zap.String("browser", settings.Browser),
		zap.Bool("headless", settings.Headless))

	store, err := artifact.Open(settings.ArtifactDir, log)
	if err != nil {
		return err
	}

	var data dataset.Record
	if settings.DataFile != "" {
		data, err = dataset.LoadRecord(settings.DataFile, settings.DataSheet)
		if err != nil {
			return fmt.Errorf("test data: %w", err)
		}
		log.Debug("Test data loaded", zap.String("file", settings.DataFile), zap.Int("columns", len(data)))
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"features"}
	}

	fmt.Printf("→ Running %v against %s (profile %s, run %s)\n", paths, settings.AppURL, settings.Profile, store.RunID())
	runner := &bdd.Runner{
		Settings: settings,
		Open:     session.Chromium,
		Log:      log,
		Store:    store,
		Data:     data,
	}
	status := runner.Run("pagekit", bdd.SuiteOptions{
		Paths:       paths,
		Tags:        tags,
		Format:      format,
		Concurrency: concurrency,
		Output:      cmd.OutOrStdout(),
	})

	if archive {
		out, err := store.Archive(filepath.Join(settings.ArtifactDir, "run-"+store.RunID()))
		if err != nil {
			log.Warn("Archive failed", zap.Error(err))
		} else {
			fmt.Printf("✓ Artifacts archived to %s\n", out)
		}
	}
	fmt.Printf("✓ Artifacts in %s\n", store.Dir())

	if status != 0 {
		return fmt.Errorf("scenarios failed (status %d)", status)
	}
	return nil
}
