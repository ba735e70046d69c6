package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func meetingCommand() *cli.Command {
	return &cli.Command{
		Name:  "meeting",
		Usage: "Manage meetings directly",
		Commands: []*cli.Command{
			meetingListCommand(),
			meetingCreateCommand(),
			meetingDeleteCommand(),
			meetingImportCommand(),
		},
	}
}

func storeOnlyFlags(cfg *config) []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, globalFlags(cfg)...)
	flags = append(flags, storeFlags(cfg)...)
	return flags
}

func parseFlagTime(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, name+" must be RFC3339", goerr.V("value", value))
	}
	return t, nil
}

func printMeeting(w io.Writer, m *model.Meeting) {
	conflict := ""
	if m.HasConflict {
		conflict = "\t" + m.ConflictDetails
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%s\n",
		m.ID,
		m.StartTime.Format(time.RFC3339),
		m.EndTime.Format(time.RFC3339),
		m.Status,
		m.Title,
		conflict)
}

func meetingListCommand() *cli.Command {
	var (
		cfg       config
		organizer string
		status    string
		from      string
		to        string
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "organizer",
			Usage:       "Only meetings with this organizer",
			Destination: &organizer,
		},
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Only meetings with this status (scheduled, cancelled, completed)",
			Destination: &status,
		},
		&cli.StringFlag{
			Name:        "from",
			Usage:       "Only meetings starting at or after this RFC3339 time",
			Destination: &from,
		},
		&cli.StringFlag{
			Name:        "to",
			Usage:       "Only meetings starting at or before this RFC3339 time",
			Destination: &to,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of meetings to list",
			Value:       meeting.DefaultListLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, storeOnlyFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List meetings by start time",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			uc, _, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			filter := model.MeetingFilter{
				Organizer: organizer,
				Status:    model.MeetingStatus(status),
				Limit:     int(limit),
			}
			if filter.StartFrom, err = parseFlagTime("from", from); err != nil {
				return err
			}
			if filter.StartTo, err = parseFlagTime("to", to); err != nil {
				return err
			}

			meetings, err := uc.List(ctx, filter)
			if err != nil {
				return goerr.Wrap(err, "failed to list meetings")
			}
			for _, m := range meetings {
				printMeeting(c.Root().Writer, m)
			}
			return nil
		},
	}
}

func meetingCreateCommand() *cli.Command {
	var (
		cfg         config
		title       string
		description string
		start       string
		end         string
		organizer   string
		attendees   []string
		location    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Meeting title",
			Required:    true,
			Destination: &title,
		},
		&cli.StringFlag{
			Name:        "description",
			Usage:       "Meeting description",
			Destination: &description,
		},
		&cli.StringFlag{
			Name:        "start",
			Usage:       "Start time in RFC3339",
			Required:    true,
			Destination: &start,
		},
		&cli.StringFlag{
			Name:        "end",
			Usage:       "End time in RFC3339",
			Required:    true,
			Destination: &end,
		},
		&cli.StringFlag{
			Name:        "organizer",
			Usage:       "Organizer name or email",
			Destination: &organizer,
		},
		&cli.StringSliceFlag{
			Name:        "attendee",
			Usage:       "Attendee name or email (repeatable)",
			Destination: &attendees,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Room or meeting link",
			Destination: &location,
		},
	}
	flags = append(flags, storeOnlyFlags(&cfg)...)

	return &cli.Command{
		Name:  "create",
		Usage: "Create a meeting. Overlaps are reported but do not block the write",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			startTime, err := parseFlagTime("start", start)
			if err != nil {
				return err
			}
			endTime, err := parseFlagTime("end", end)
			if err != nil {
				return err
			}

			uc, _, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			result, err := uc.Create(meeting.WithSource(ctx, "cli"), &model.Meeting{
				Title:       title,
				Description: description,
				StartTime:   startTime,
				EndTime:     endTime,
				Organizer:   organizer,
				Attendees:   attendees,
				Location:    location,
			}, meeting.CreateOptions{})
			if err != nil {
				return goerr.Wrap(err, "failed to create meeting")
			}

			printMeeting(c.Root().Writer, result.Meeting)
			return nil
		},
	}
}

func meetingDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a meeting",
		ArgsUsage: "<meeting-id>",
		Flags:     storeOnlyFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("meeting-id is required")
			}
			id := model.MeetingID(c.Args().Get(0))

			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			uc, _, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			deleted, err := uc.Delete(meeting.WithSource(ctx, "cli"), id)
			if err != nil {
				return goerr.Wrap(err, "failed to delete meeting")
			}
			fmt.Fprintf(c.Root().Writer, "Meeting deleted: %s (%s)\n", deleted.ID, deleted.Title)
			return nil
		},
	}
}

func meetingImportCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "import",
		Usage:     "Create meetings from a YAML file",
		ArgsUsage: "<file.yaml>",
		Flags:     storeOnlyFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return goerr.New("file path is required")
			}
			path := c.Args().Get(0)

			if err := cfg.setupLogger(); err != nil {
				return err
			}
			defer cfg.close()

			meetings, err := loadMeetingFile(path)
			if err != nil {
				return err
			}

			uc, _, err := cfg.newMeetingUseCase(ctx, nil)
			if err != nil {
				return err
			}

			summary, err := importMeetings(meeting.WithSource(ctx, "import"), uc, meetings)
			if err != nil {
				return err
			}
			for _, m := range summary.created {
				printMeeting(c.Root().Writer, m)
			}
			fmt.Fprintf(c.Root().Writer, "Imported %d meeting(s), %d with conflicts\n",
				len(summary.created), summary.conflicted)
			return nil
		},
	}
}

type importSummary struct {
	created    []*model.Meeting
	conflicted int
}

// importMeetings creates meetings in file order. Each one is checked against
// everything imported before it.
func importMeetings(ctx context.Context, uc *meeting.UseCase, meetings []*model.Meeting) (*importSummary, error) {
	summary := &importSummary{}
	for i, m := range meetings {
		result, err := uc.Create(ctx, m, meeting.CreateOptions{})
		if err != nil {
			return summary, goerr.Wrap(err, "failed to import meeting",
				goerr.V("index", i),
				goerr.V("title", strings.TrimSpace(m.Title)))
		}
		summary.created = append(summary.created, result.Meeting)
		if result.Meeting.HasConflict {
			summary.conflicted++
		}
	}
	return summary, nil
}
