package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/andreero0/nestsync-timeline/internal/application/timeline"
	"github.com/andreero0/nestsync-timeline/internal/core/model"
	"github.com/andreero0/nestsync-timeline/internal/data/fetcher"
	"github.com/andreero0/nestsync-timeline/internal/presentation/render"
	"github.com/andreero0/nestsync-timeline/internal/util"
)

var (
	// Logging related
	debug bool

	// Data source
	apiURL     string
	apiToken   string
	exportFile string

	// Query
	childID  string
	kind     string
	daysBack int
	pageSize int
	pages    int

	// Output related
	outputFormat string
	timezone     string

	rootCmd = &cobra.Command{
		Use:   "nestsync-timeline [flags]",
		Short: "Caregiving activity timeline viewer",
		Long: `nestsync-timeline fetches caregiving event records and renders them as a
deduplicated, timezone-correct activity timeline grouped into Today,
Yesterday, This Week, Last Week and Earlier.

Examples:
  nestsync-timeline --child c1 --api-url https://api.example.com     # Fetch and print one page
  nestsync-timeline --child c1 --pages 3                             # Follow pagination for three pages
  nestsync-timeline --child c1 --file export.jsonl --output json     # Read a local export, emit JSON
  nestsync-timeline watch --child c1 --interval 15s                  # Live polling view`,
		RunE: runTimeline,
	}
)

const defaultLogFile = "~/.nestsync-timeline/logs/app.log"

func init() {
	// Data source configuration
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Records API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "",
		"API bearer token (defaults to NESTSYNC_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&exportFile, "file", "",
		"Read records from a local JSONL export instead of the API")

	// Query configuration
	rootCmd.PersistentFlags().StringVar(&childID, "child", "",
		"Child identifier to fetch the timeline for")
	rootCmd.PersistentFlags().StringVar(&kind, "kind", "",
		"Filter by event kind (e.g. diaper_change, wipe_use)")
	rootCmd.PersistentFlags().IntVar(&daysBack, "days-back", 0,
		"Limit the query to the last N days (0 = unbounded)")
	rootCmd.PersistentFlags().IntVar(&pageSize, "limit", 25,
		"Page size per request")
	rootCmd.Flags().IntVar(&pages, "pages", 1,
		"Number of pages to fetch (follows load-more pagination)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", model.DefaultTimezone,
		"Display timezone (IANA name, e.g. America/Toronto, UTC)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	if err := setupEnvironment(); err != nil {
		return err
	}

	store, _, err := buildStore()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	for i := 1; i < pages; i++ {
		if !store.Snapshot().HasMore {
			break
		}
		if err := store.LoadMore(ctx); err != nil {
			util.LogWarnf("Stopping pagination after page %d: %v", i, err)
			break
		}
	}

	return writeState(store.Snapshot())
}

// setupEnvironment initializes logging and validates shared flags.
func setupEnvironment() error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		return err
	}

	if apiToken == "" {
		apiToken = os.Getenv("NESTSYNC_TOKEN")
	}
	if childID == "" {
		return fmt.Errorf("--child is required")
	}
	if apiURL == "" && exportFile == "" {
		return fmt.Errorf("either --api-url or --file is required")
	}
	return nil
}

// buildStore wires the configured fetcher, clock and store together.
func buildStore() (*timeline.Store, *timeline.Config, error) {
	config := &timeline.Config{
		Timezone:     timezone,
		PageSize:     pageSize,
		DaysBack:     daysBack,
		PollInterval: pollInterval,
	}

	tp, err := util.NewTimeProvider(timezone)
	if err != nil {
		return nil, nil, err
	}

	var source fetcher.RecordFetcher
	if exportFile != "" {
		ff, err := fetcher.NewFileFetcher(expandPath(exportFile))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open export: %w", err)
		}
		source = ff
	} else {
		source = fetcher.NewClient(strings.TrimRight(apiURL, "/"), apiToken, config.FetchTimeout)
	}

	key := timeline.SessionKey{ChildID: childID, Kind: kind}
	store, err := timeline.NewStore(key, source, tp, config)
	if err != nil {
		return nil, nil, err
	}
	return store, config, nil
}

// writeState prints a snapshot in the selected output format.
func writeState(state timeline.State) error {
	switch outputFormat {
	case "json":
		out := struct {
			Events      []model.TimelineEvent `json:"events"`
			Periods     []model.TimePeriod    `json:"periods"`
			TimeRange   model.TimeRange       `json:"timeRange"`
			HasMore     bool                  `json:"hasMore"`
			LastUpdated time.Time             `json:"lastUpdated"`
		}{state.Events, state.Periods, state.TimeRange, state.HasMore, state.LastUpdated}

		data, err := sonic.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode timeline: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "table", "":
		render.NewRenderer("").Render(os.Stdout, state)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
