package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinvara/trial-criteria/internal/async"
	"github.com/clinvara/trial-criteria/internal/ingest"
)

var (
	flagWatchWorkers     int
	flagWatchInitialScan bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch study protocol directories and extract on upload",
	Long: `Watches every study's protocol/ directory. When a protocol document is
created or rewritten, an extraction run is queued for that study. Runs
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		roots, err := a.ws.ProtocolDirs()
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			return fmt.Errorf("no studies to watch; create one with `clinvara study create`")
		}

		queue := async.NewWorkerQueue(flagWatchWorkers, 64, func(ctx context.Context, job async.Job) error {
			_, err := a.svc.Extract(ctx, job.Study)
			return err
		}, a.logger)

		events, errs, err := ingest.StartWatcher(cmd.Context(), ingest.WatchConfig{
			Roots:       roots,
			InitialScan: flagWatchInitialScan,
			Debounce:    500 * time.Millisecond,
		}, a.logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "watching %d protocol directories\n", len(roots))
		for {
			select {
			case <-cmd.Context().Done():
				shctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				queue.Shutdown(shctx)
				return nil
			case path, ok := <-events:
				if !ok {
					return nil
				}
				// .../<study>/protocol/<file>
				study := filepath.Base(filepath.Dir(filepath.Dir(path)))
				a.logger.Info("watch.protocol.detected", "study", study, "path", path)
				if err := queue.Enqueue(cmd.Context(), async.Job{Study: study}); err != nil {
					a.logger.Warn("watch.enqueue_failed", "study", study, "error", err)
				}
			case err, ok := <-errs:
				if ok && err != nil {
					a.logger.Error("watch.error", "error", err)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().IntVar(&flagWatchWorkers, "workers", 2, "concurrent extraction workers")
	watchCmd.Flags().BoolVar(&flagWatchInitialScan, "initial-scan", false, "queue already-present protocols on startup")
}
