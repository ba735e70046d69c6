package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func resolveCommand() *cli.Command {
	var (
		cfg     config
		history bool
		limit   int64
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "history",
			Usage:       "List previously resolved conflicts instead of resolving a new one",
			Destination: &history,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of records with --history",
			Value:       resolver.DefaultListLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, storeOnlyFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Suggest a resolution for a scheduling conflict",
		ArgsUsage: "<scenario>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			uc := resolver.New(gemini, repo)
			w := c.Root().Writer

			if history {
				records, err := uc.List(ctx, int(limit))
				if err != nil {
					return goerr.Wrap(err, "failed to list conflict records")
				}
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Intent, r.ConflictType, r.Scenario)
				}
				return nil
			}

			scenario := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(scenario) == "" {
				return goerr.New("scenario is required")
			}

			record, err := uc.Resolve(ctx, scenario)
			if err != nil {
				return goerr.Wrap(err, "failed to resolve conflict")
			}
			fmt.Fprintf(w, "Intent: %s\nType: %s\n\n%s\n", record.Intent, record.ConflictType, record.Resolution)
			return nil
		},
	}
}
