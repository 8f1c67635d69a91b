package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/relfinder/internal/api"
	"github.com/rohankatakam/relfinder/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serve the relationship finder over HTTP. Every route except /metrics
requires the Api-Key header to match API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: api.addr, or :$PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	result := cfg.Validate(config.ValidationContextServe)
	for _, warn := range result.Warnings {
		logger.Warn(warn)
	}
	if err := cfg.Require(config.ValidationContextServe); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, serviceOptions{metrics: true, captures: true, enrich: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	server, err := api.NewServer(api.Config{
		APIKey:           cfg.API.APIKey,
		MaxDistanceLimit: cfg.Finder.MaxDistanceLimit,
		EntityClasses:    svc.allow.EntityClasses,
		Finder:           svc.finder,
		Store:            svc.endpoint,
		Enricher:         svc.enricher,
		Gatherer:         svc.registry,
	})
	if err != nil {
		return err
	}

	addr := cfg.API.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	logger.WithField("addr", addr).Info("Starting relfinder service")

	return server.Run(ctx, addr, cfg.API.ReadTimeout, cfg.API.WriteTimeout)
}
