package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andthens/BluePrint/internal/config"
	"github.com/andthens/BluePrint/internal/pipeline"
	"github.com/andthens/BluePrint/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	watchOpts     reportFlags
	watchPattern  string
	watchSettle   time.Duration
	watchExisting bool
	watchWorkers  int
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Build a report for every export dropped into a directory",
	Long: `Watch DIR and build a report for each .sif or .xml file that appears in
it. Reports are written to OUTPUT_DIR by a pool of WATCH_WORKERS workers.
A file that fails is logged and skipped; the watch keeps running.

Examples:
  blueprint watch ./drop --after 2024-01-01
  blueprint watch ./drop --pattern "Account*" --format md --existing`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchOpts.register(watchCmd)
	fl := watchCmd.Flags()
	fl.StringVar(&watchPattern, "pattern", watcher.DefaultPattern, "file name pattern (doublestar syntax)")
	fl.DurationVar(&watchSettle, "settle", 500*time.Millisecond, "quiet period before a new file is processed")
	fl.BoolVar(&watchExisting, "existing", false, "also process files already in the directory")
	fl.IntVarP(&watchWorkers, "workers", "w", 0, "worker goroutines (overrides WATCH_WORKERS)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, layout, criteria, err := watchOpts.resolve()
	if err != nil {
		return err
	}
	if watchWorkers > 0 {
		cfg.WorkerCount = watchWorkers
	}
	if err := checkWatchDir(args[0], cfg); err != nil {
		return err
	}

	// --- Set up context with graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, err := pipeline.NewOrchestrator(watchConfig(cfg), logger)
	if err != nil {
		return err
	}

	w, err := watcher.New(args[0], watchPattern, watchSettle, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	orch.Start(ctx)
	defer orch.Stop()

	submit := func(path string) {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "path", path, "error", err)
			return
		}
		job := pipeline.NewJob(pipeline.Request{
			Filename: filepath.Base(path),
			Data:     data,
			Layout:   layout,
			Criteria: criteria,
			Format:   format,
		})
		if err := orch.Submit(job); err != nil {
			logger.Error("submit failed", "path", path, "error", err)
			return
		}
		logger.Info("queued", "path", path, "report_id", job.ID)
	}

	if watchExisting {
		existing, err := w.Existing()
		if err != nil {
			return fmt.Errorf("list %s: %w", w.Dir(), err)
		}
		for _, path := range existing {
			submit(path)
		}
	}

	logger.Info("watching", "dir", w.Dir(), "pattern", watchPattern, "workers", cfg.WorkerCount, "output_dir", cfg.OutputDir)
	return w.Run(ctx, submit)
}

// watchConfig adjusts the pipeline for watch mode. Reports stay on disk after
// they leave the registry, and the dropped file is already the upload copy.
func watchConfig(c config.Config) config.Config {
	c.PurgeOutputs = false
	c.KeepUploads = false
	return c
}

// checkWatchDir refuses a directory the pipeline writes into, which would feed
// its own files back to the watcher.
func checkWatchDir(dir string, c config.Config) error {
	watched, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, d := range []struct{ env, path string }{
		{"OUTPUT_DIR", c.OutputDir},
		{"UPLOAD_DIR", c.UploadDir},
	} {
		if d.path == "" {
			continue
		}
		abs, err := filepath.Abs(d.path)
		if err != nil {
			return err
		}
		if abs == watched {
			return fmt.Errorf("cannot watch %s: it is %s", dir, d.env)
		}
	}
	return nil
}
