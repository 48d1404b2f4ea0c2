package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"libexport/core/catalog"
	"libexport/core/export"
	"libexport/core/task"
	"libexport/logger"
	"libexport/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the export HTTP API and keep the catalog in sync with the music directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := loadServices(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.close()

		watcher := catalog.NewWatcher(svc.scanner, svc.catalog)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("library watcher stopped", logger.ErrorField(err))
			}
		}()

		runner := task.NewRunner(64)
		go runner.Pump(ctx)

		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(server.Options{
			Exporter:    export.NewExporter(svc.catalog),
			Runner:      runner,
			Settings:    svc.settings,
			Publisher:   svc.publisher,
			DefaultPath: cfg.ExportPath,
			JWTSecret:   cfg.JWTSecret,
		})
		logger.Info("library loaded", logger.Int("tracks", svc.catalog.Len()), logger.String("root", svc.scanner.Root()))
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; overrides HTTP_ADDR")
	rootCmd.AddCommand(serveCmd)
}
