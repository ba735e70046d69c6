package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/agent"
	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		sessionID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session-id",
			Aliases:     []string{"s"},
			Usage:       "Conversation session to continue",
			Sources:     cli.EnvVars("CONFLICT_AGENT_SESSION_ID"),
			Destination: &sessionID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Manage meetings in a conversation with the agent",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			// Initialize dependencies
			uc, _, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			sessions, err := cfg.newSessionStore(ctx)
			if err != nil {
				return err
			}

			a := agent.New(gemini, uc, sessions,
				agent.WithDefaultSession(model.SessionID(cfg.defaultSessionID)))
			id := a.SessionID(model.SessionID(sessionID))

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          c.Root().Writer,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			w := c.Root().Writer
			fmt.Fprintf(w, "Chat session %s started. Type '/clear' to forget history, 'exit' to quit.\n", id)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				switch message {
				case "":
					continue
				case "exit":
					fmt.Fprintf(w, "\nChat session completed\n")
					return nil
				case "/clear":
					if _, err := a.ClearHistory(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(w, "History cleared\n")
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
				sp.Suffix = " thinking..."
				sp.Start()
				resp, err := a.Handle(ctx, &agent.Request{Query: message, SessionID: id})
				sp.Stop()

				if err != nil {
					// A failed turn does not end the conversation
					fmt.Fprintf(w, "error: %s\n", err.Error())
					continue
				}
				fmt.Fprintf(w, "%s\n", resp.Response)
				if pending, ok := resp.Result["requiresConfirmation"].(bool); ok && pending {
					fmt.Fprintf(w, "(reply to confirm or change the time)\n")
				}
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}
