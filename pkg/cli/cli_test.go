package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/m-mizutani/gt"
)

const sampleMeetingFile = `
meetings:
  - title: Standup
    start: 2025-03-10T09:00:00Z
    end: 2025-03-10T09:30:00Z
    attendees: [alice, bob]
  - title: Design review
    description: API changes
    start: 2025-03-10T09:15:00Z
    end: 2025-03-10T10:00:00Z
    organizer: carol
    location: Room 4
  - title: Lunch
    start: 2025-03-10T12:00:00Z
    end: 2025-03-10T13:00:00Z
`

func TestParseMeetingFile(t *testing.T) {
	meetings, err := parseMeetingFile([]byte(sampleMeetingFile))
	gt.NoError(t, err)
	gt.A(t, meetings).Length(3)

	gt.Equal(t, meetings[0].Title, "Standup")
	gt.True(t, meetings[0].StartTime.Equal(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	gt.A(t, meetings[0].Attendees).Length(2)
	gt.Equal(t, meetings[1].Organizer, "carol")
	gt.Equal(t, meetings[1].Location, "Room 4")

	t.Run("empty file", func(t *testing.T) {
		_, err := parseMeetingFile([]byte("meetings: []\n"))
		gt.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := parseMeetingFile([]byte("meetings: [\n"))
		gt.Error(t, err)
	})
}

func TestLoadMeetingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetings.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(sampleMeetingFile), 0o600))

	meetings, err := loadMeetingFile(path)
	gt.NoError(t, err)
	gt.A(t, meetings).Length(3)

	_, err = loadMeetingFile(filepath.Join(t.TempDir(), "missing.yaml"))
	gt.Error(t, err)
}

func TestImportMeetings(t *testing.T) {
	meetings, err := parseMeetingFile([]byte(sampleMeetingFile))
	gt.NoError(t, err)

	uc := meeting.New(repository.NewMemory())
	summary, err := importMeetings(context.Background(), uc, meetings)
	gt.NoError(t, err)
	gt.A(t, summary.created).Length(3)
	gt.Equal(t, summary.conflicted, 1)
	gt.True(t, summary.created[1].HasConflict)
	gt.False(t, summary.created[2].HasConflict)

	t.Run("stops at the first invalid entry", func(t *testing.T) {
		bad := []*model.Meeting{
			{Title: "ok", StartTime: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)},
			{Title: "backwards", StartTime: time.Date(2025, 4, 1, 11, 0, 0, 0, time.UTC), EndTime: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)},
		}
		summary, err := importMeetings(context.Background(), meeting.New(repository.NewMemory()), bad)
		gt.Error(t, err)
		gt.A(t, summary.created).Length(1)
	})
}

func TestConfigNewRepository(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := &config{backend: backendMemory}
		repo, err := cfg.newRepository()
		gt.NoError(t, err)
		gt.NoError(t, repo.Ping(context.Background()))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config{backend: backendSQLite, sqlitePath: filepath.Join(t.TempDir(), "m.db")}
		defer cfg.close()
		repo, err := cfg.newRepository()
		gt.NoError(t, err)
		gt.NoError(t, repo.Ping(context.Background()))
	})

	t.Run("firestore requires project", func(t *testing.T) {
		cfg := &config{backend: backendFirestore, database: "(default)"}
		_, err := cfg.newRepository()
		gt.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config{backend: "postgres"}
		_, err := cfg.newRepository()
		gt.Error(t, err)
	})
}

func TestConfigNewMeetingUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid schema variant", func(t *testing.T) {
		cfg := &config{backend: backendMemory, schemaVariant: "huge"}
		_, _, err := cfg.newMeetingUseCase(ctx, nil)
		gt.Error(t, err)
	})

	t.Run("policy directory", func(t *testing.T) {
		dir := t.TempDir()
		gt.NoError(t, os.WriteFile(filepath.Join(dir, "hours.rego"), []byte(`package meeting

deny contains "no meetings on Sunday" if {
	input.action == "create"
	time.weekday(time.parse_rfc3339_ns(input.meeting.startTime)) == "Sunday"
}
`), 0o600))

		cfg := &config{backend: backendMemory, schemaVariant: string(model.SchemaFull), policyDir: dir}
		uc, _, err := cfg.newMeetingUseCase(ctx, nil)
		gt.NoError(t, err)

		_, err = uc.Create(ctx, &model.Meeting{
			Title:     "Weekend sync",
			StartTime: time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
		}, meeting.CreateOptions{})
		gt.Error(t, err)

		_, err = uc.Create(ctx, &model.Meeting{
			Title:     "Weekday sync",
			StartTime: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		}, meeting.CreateOptions{})
		gt.NoError(t, err)
	})

	t.Run("audit dataset requires project", func(t *testing.T) {
		cfg := &config{backend: backendMemory, schemaVariant: string(model.SchemaFull), auditDataset: "audit", auditTable: "events"}
		_, _, err := cfg.newMeetingUseCase(ctx, nil)
		gt.Error(t, err)
	})
}
