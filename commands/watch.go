package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreero0/nestsync-timeline/internal/application/timeline"
	"github.com/andreero0/nestsync-timeline/internal/presentation/render"
	"github.com/andreero0/nestsync-timeline/internal/util"
)

var (
	pollInterval time.Duration
	redrawEvery  time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Live polling view of the activity timeline",
		Long: `watch keeps the timeline fresh by re-fetching the first page on a fixed
interval and merging it without losing already-loaded pages. Transient
fetch failures keep the last known-good view; repeated failures back off.`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&pollInterval, "interval", 30*time.Second,
		"Polling interval (15s-60s depending on how critical the screen is)")
	watchCmd.Flags().DurationVar(&redrawEvery, "redraw", 5*time.Second,
		"How often to repaint the view")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := setupEnvironment(); err != nil {
		return err
	}

	store, config, err := buildStore()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	util.LogInfof("Starting timeline watch for child %s (poll every %v)", childID, pollInterval)

	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	poller := timeline.NewPoller(store, config)
	go poller.Run(ctx)

	renderer := render.NewRenderer("")
	redrawTicker := time.NewTicker(redrawEvery)
	defer redrawTicker.Stop()

	repaint(renderer, store)
	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Stopping timeline watch")
			return nil
		case <-redrawTicker.C:
			repaint(renderer, store)
		}
	}
}

func repaint(renderer *render.Renderer, store *timeline.Store) {
	fmt.Print("\033[H\033[2J") // clear screen, cursor home
	renderer.Render(os.Stdout, store.Snapshot())
}
