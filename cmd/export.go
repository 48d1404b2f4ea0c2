package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"libexport/core/export"
	"libexport/core/settings"
	"libexport/core/task"
	"libexport/logger"

	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportQuiet  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library as JSON",
	Long: `Scan the music directory, snapshot every track with its technical info,
tags, ReplayGain and playback statistics, and write them to a JSON file.
Press Ctrl-C to abort; an aborted export leaves the destination untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := loadServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.close()

		path := exportOutput
		if path == "" {
			path = settings.PathOrDefault(ctx, svc.settings, cfg.ExportPath)
		}
		if err := svc.settings.SetLastExportPath(ctx, path); err != nil {
			logger.Warn("failed to remember export path", logger.ErrorField(err))
		}

		return runExport(ctx, svc, path, exportQuiet)
	},
}

// runExport 在后台任务中导出，当前 goroutine 负责处理回调；ctx 结束时取消导出
func runExport(ctx context.Context, svc *services, path string, quiet bool) error {
	var failed error
	notifier := export.NotifierFunc(func(title, message string) {
		fmt.Fprintf(os.Stderr, "\n%s: %s\n", title, message)
		failed = errors.New(message)
	})

	opts := []task.Option{}
	if !quiet {
		opts = append(opts, task.WithProgressObserver(func(p task.Progress) {
			fmt.Fprintf(os.Stderr, "\rExporting track %d of %d", p.Current+1, p.Total)
		}))
	}

	runner := task.NewRunner(16)
	tk := export.NewTask(export.NewExporter(svc.catalog), path, notifier, svc.publisher)
	h := runner.RunBackground(tk, task.FlagShowProgress|task.FlagShowAbort|task.FlagShowDelayed, opts...)

	go func() {
		select {
		case <-ctx.Done():
			h.Cancel()
		case <-h.Done():
		}
	}()
	runner.PumpUntilDone(h)

	switch h.Status() {
	case task.StatusAborted:
		fmt.Fprintln(os.Stderr, "\nExport aborted.")
		return nil
	case task.StatusFailed:
		if failed == nil {
			failed = h.Err()
		}
		return failed
	}

	res := tk.Result()
	if !quiet {
		fmt.Fprintf(os.Stderr, "\rExported %d tracks to %s (%d bytes)\n", res.Tracks, res.Path, res.Bytes)
		if loc := tk.Published(); loc != "" {
			fmt.Fprintf(os.Stderr, "Published to %s\n", loc)
		}
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "destination file (defaults to the last used path)")
	exportCmd.Flags().BoolVarP(&exportQuiet, "quiet", "q", false, "do not print progress")
	rootCmd.AddCommand(exportCmd)
}
