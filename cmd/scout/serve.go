package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scout/internal/api"
	"github.com/MikeSquared-Agency/scout/internal/hermes"
	"github.com/MikeSquared-Agency/scout/internal/processor"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and NATS consumers",
		Long: "Serve the classification API and, when NATS_URL is set, process transcripts " +
			"submitted on " + hermes.SubjectTranscriptSubmitted + " and reviewer reactions " +
			"relayed on " + hermes.SubjectSlackReaction + ".",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8760, "Port to listen on (default from SCOUT_PORT)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	svc, err := a.build(ctx, a.processorOptions())
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.hermes != nil {
		// Only the poster knows which review message belongs to which author.
		var h *processor.Handlers
		if svc.slack != nil {
			h = processor.NewHandlers(ctx, svc.pipeline, svc.slack, svc.blacklist, a.logger)
		} else {
			h = processor.NewHandlers(ctx, svc.pipeline, nil, svc.blacklist, a.logger)
		}
		if err := svc.hermes.QueueSubscribe(hermes.SubjectTranscriptSubmitted, hermes.QueueGroup, h.HandleTranscriptSubmitted); err != nil {
			return fmt.Errorf("subscribe to transcripts: %w", err)
		}
		if err := svc.hermes.QueueSubscribe(hermes.SubjectSlackReaction, hermes.QueueGroup, h.HandleReaction); err != nil {
			return fmt.Errorf("subscribe to slack reactions: %w", err)
		}
	} else {
		a.logger.Warn("NATS not configured, serving the HTTP API only")
	}

	srv := api.NewServer(a.cfg.Port, a.cfg.APIToken, api.Deps{
		Blacklist:  svc.blacklist,
		Classifier: svc.graph,
		Breakers:   svc.breakers,
		Logger:     a.logger,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	a.logger.Info("scout ready", "port", a.cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	case <-ctx.Done():
	}

	// Cancelling ctx interrupts running batches; they flush before returning.
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(parent), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown failed", "error", err)
	}
	if svc.hermes != nil {
		if err := svc.hermes.Drain(shutdownCtx); err != nil {
			a.logger.Warn("NATS drain failed", "error", err)
		}
	}
	a.logger.Info("scout stopped")
	return nil
}
