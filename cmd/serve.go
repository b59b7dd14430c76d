package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/xhad/medisimplify/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		addr   string
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("stream") {
				cfg.Server.Streaming = stream
			}
			if err := validate(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			srv := server.New(p.service, p.engine, server.Config{
				Addr:           cfg.Server.Addr,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				MaxChars:       cfg.Extract.MaxChars,
				PreviewChars:   cfg.Server.PreviewChars,
				TextLayerPages: cfg.Extract.TextLayerPages,
				Streaming:      cfg.Server.Streaming,
				Logger:         log.Logger,
			})
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream model output over the websocket")
	return cmd
}
