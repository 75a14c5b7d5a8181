package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pagegen/internal/dev"
	"github.com/vango-dev/pagegen/internal/metrics"
	"github.com/vango-dev/pagegen/pkg/pages"
)

func previewCmd() *cobra.Command {
	var (
		flags    genFlags
		port     int
		host     string
		noReload bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the generated pages with live reload",
		Long: `Serve the generated route table from memory and regenerate whenever a
page changes.

The preview server never writes the output file. A regeneration that
fails keeps the last good pages in service and shows the error in every
connected browser until it is fixed.

Examples:
  pagegen preview
  pagegen preview --port=8080
  pagegen preview --host=0.0.0.0 --no-reload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), flags, port, host, noReload)
		},
	}

	addInputFlags(cmd, &flags)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from pagegen.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from pagegen.json)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable live reload")

	return cmd
}

func runPreview(ctx context.Context, flags genFlags, port int, host string, noReload bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Preview.Port = port
	}
	if host != "" {
		cfg.Preview.Host = host
	}
	if noReload {
		cfg.Preview.HotReload = false
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	server := dev.NewServer(dev.ServerOptions{
		Config:  cfg,
		Logger:  slog.Default(),
		Metrics: metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace)),
		OnRegenerate: func(a *pages.Artifact, err error) {
			if err != nil {
				warn("Generation failed, serving the last good pages")
				return
			}
			success("Serving %d routes", len(a.Routes))
		},
	})

	info("Preview at %s", cfg.PreviewURL())
	info("Watching %s", relPath(cfg.PagesPath()))

	if err := server.Start(ctx); err != nil {
		return err
	}

	info("Shutting down...")
	return nil
}
