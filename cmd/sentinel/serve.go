package main

import (
	"github.com/Veraticus/sentinel/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: `Start an HTTP server exposing:

  POST /api/analyze       multipart upload, field "screenshot" (?links=true adds a link report)
  POST /api/analyze-text  JSON {"text": "..."}
  POST /api/links         JSON {"text": "..."}
  GET  /api/history       stored analyses (?limit=&verdict=)
  GET  /healthz`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr, :5000)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	p, cleanup, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []server.Option
	if store != nil {
		opts = append(opts, server.WithHistory(store))
	}
	srv := server.New(p, buildLinkAnalyzer(cfg, true), opts...)

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
