package cli

import (
	"context"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/service/mcp"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve meeting tools over MCP on stdin/stdout",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// stdout carries the protocol, so logs stay on stderr
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			uc, repo, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			opts := []mcp.Option{mcp.WithVersion(c.Root().Version)}
			if cfg.hasGemini() {
				gemini, err := cfg.newGemini(ctx)
				if err != nil {
					return err
				}
				opts = append(opts, mcp.WithResolver(resolver.New(gemini, repo)))
			}

			return mcp.New(uc, opts...).RunStdio(ctx)
		},
	}
}
