package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/server"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/service/mcp"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/agent"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CONFLICT_AGENT_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()
			logger := logging.Default()

			metrics := server.NewMetrics()
			uc, repo, err := cfg.newMeetingUseCase(ctx, metrics)
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithMetrics(metrics),
				server.WithVersion(c.Root().Version),
			}
			mcpOpts := []mcp.Option{mcp.WithVersion(c.Root().Version)}

			if cfg.hasGemini() {
				gemini, err := cfg.newGemini(ctx)
				if err != nil {
					return err
				}
				sessions, err := cfg.newSessionStore(ctx)
				if err != nil {
					return err
				}
				conflicts := resolver.New(gemini, repo)

				opts = append(opts,
					server.WithAgent(agent.New(gemini, uc, sessions,
						agent.WithDefaultSession(model.SessionID(cfg.defaultSessionID)))),
					server.WithResolver(conflicts),
				)
				mcpOpts = append(mcpOpts, mcp.WithResolver(conflicts))
			} else {
				logger.Warn("gemini-project is not set, agent and resolver endpoints are disabled")
			}

			mcpHandler, err := mcp.New(uc, mcpOpts...).Handler()
			if err != nil {
				return err
			}
			srv := server.New(uc, append(opts, server.WithMCP(mcpHandler))...)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server started", "addr", addr, "backend", cfg.backend, "schema", cfg.schemaVariant)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", addr))
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shut down HTTP server")
			}
			return nil
		},
	}
}
