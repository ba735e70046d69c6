package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/m-mizutani/gt"
)

var baseTime = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newMeeting(title, organizer string, startHour, endHour int) *model.Meeting {
	now := time.Now().UTC()
	return &model.Meeting{
		ID:        model.NewMeetingID(),
		Title:     title,
		StartTime: baseTime.Add(time.Duration(startHour) * time.Hour),
		EndTime:   baseTime.Add(time.Duration(endHour) * time.Hour),
		Organizer: organizer,
		Attendees: []string{"alice", "bob"},
		Status:    model.MeetingStatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testRepository(t *testing.T, repo repository.Repository) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		m := newMeeting("Planning", "carol", 9, 10)
		m.Description = "quarterly"
		m.Location = "Room 1"
		gt.NoError(t, repo.PutMeeting(ctx, m))

		got, err := repo.GetMeeting(ctx, m.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Title, "Planning")
		gt.Equal(t, got.Description, "quarterly")
		gt.Equal(t, got.Location, "Room 1")
		gt.Equal(t, got.Attendees, []string{"alice", "bob"})
		gt.True(t, got.StartTime.Equal(m.StartTime))
		gt.True(t, got.EndTime.Equal(m.EndTime))
	})

	t.Run("far future times round trip", func(t *testing.T) {
		organizer := "org-" + string(model.NewMeetingID())

		distant := newMeeting("Distant", organizer, 0, 1)
		distant.StartTime = time.Date(2300, 1, 1, 9, 0, 0, 0, time.UTC)
		distant.EndTime = time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)

		spanning := newMeeting("Spanning", organizer, 0, 1)
		spanning.StartTime = time.Date(2262, 4, 11, 0, 0, 0, 0, time.UTC)
		spanning.EndTime = time.Date(2262, 4, 12, 0, 0, 0, 0, time.UTC)

		for _, m := range []*model.Meeting{distant, spanning} {
			gt.NoError(t, repo.PutMeeting(ctx, m))

			got, err := repo.GetMeeting(ctx, m.ID)
			gt.NoError(t, err)
			gt.True(t, got.StartTime.Equal(m.StartTime))
			gt.True(t, got.EndTime.Equal(m.EndTime))
			gt.True(t, got.EndTime.After(got.StartTime))
		}

		ranged, err := repo.FindMeetings(ctx, model.MeetingFilter{
			Organizer: organizer,
			StartFrom: time.Date(2262, 4, 11, 12, 0, 0, 0, time.UTC),
		})
		gt.NoError(t, err)
		gt.A(t, ranged).Length(1)
		gt.Equal(t, ranged[0].Title, "Distant")
	})

	t.Run("get unknown meeting", func(t *testing.T) {
		_, err := repo.GetMeeting(ctx, model.NewMeetingID())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("find with filter sorted by start", func(t *testing.T) {
		organizer := "org-" + string(model.NewMeetingID())
		late := newMeeting("Late", organizer, 15, 16)
		early := newMeeting("Early", organizer, 8, 9)
		middle := newMeeting("Middle", organizer, 11, 12)
		middle.Status = model.MeetingStatusCancelled
		for _, m := range []*model.Meeting{late, early, middle} {
			gt.NoError(t, repo.PutMeeting(ctx, m))
		}

		all, err := repo.FindMeetings(ctx, model.MeetingFilter{Organizer: organizer})
		gt.NoError(t, err)
		gt.A(t, all).Length(3)
		gt.Equal(t, all[0].Title, "Early")
		gt.Equal(t, all[1].Title, "Middle")
		gt.Equal(t, all[2].Title, "Late")

		scheduled, err := repo.FindMeetings(ctx, model.MeetingFilter{
			Organizer: organizer,
			Status:    model.MeetingStatusScheduled,
		})
		gt.NoError(t, err)
		gt.A(t, scheduled).Length(2)

		ranged, err := repo.FindMeetings(ctx, model.MeetingFilter{
			Organizer: organizer,
			StartFrom: baseTime.Add(11 * time.Hour),
			StartTo:   baseTime.Add(15 * time.Hour),
		})
		gt.NoError(t, err)
		gt.A(t, ranged).Length(2)
		gt.Equal(t, ranged[0].Title, "Middle")

		limited, err := repo.FindMeetings(ctx, model.MeetingFilter{Organizer: organizer, Limit: 1})
		gt.NoError(t, err)
		gt.A(t, limited).Length(1)
		gt.Equal(t, limited[0].Title, "Early")
	})

	t.Run("update", func(t *testing.T) {
		m := newMeeting("Review", "dave", 13, 14)
		gt.NoError(t, repo.PutMeeting(ctx, m))

		updated, err := repo.UpdateMeeting(ctx, m.ID, func(current *model.Meeting) (*model.Meeting, error) {
			current.Title = "Design review"
			return current, nil
		})
		gt.NoError(t, err)
		gt.Equal(t, updated.ID, m.ID)
		gt.Equal(t, updated.Title, "Design review")

		got, err := repo.GetMeeting(ctx, m.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Title, "Design review")
	})

	t.Run("update aborted by callback", func(t *testing.T) {
		m := newMeeting("Retro", "erin", 16, 17)
		gt.NoError(t, repo.PutMeeting(ctx, m))

		_, err := repo.UpdateMeeting(ctx, m.ID, func(current *model.Meeting) (*model.Meeting, error) {
			return nil, model.ErrValidation
		})
		gt.True(t, errors.Is(err, model.ErrValidation))

		got, err := repo.GetMeeting(ctx, m.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Title, "Retro")
	})

	t.Run("update unknown meeting", func(t *testing.T) {
		_, err := repo.UpdateMeeting(ctx, model.NewMeetingID(), func(current *model.Meeting) (*model.Meeting, error) {
			return current, nil
		})
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		m := newMeeting("Temp", "frank", 18, 19)
		gt.NoError(t, repo.PutMeeting(ctx, m))

		before, err := repo.CountMeetings(ctx)
		gt.NoError(t, err)

		deleted, err := repo.DeleteMeeting(ctx, m.ID)
		gt.NoError(t, err)
		gt.Equal(t, deleted.Title, "Temp")

		after, err := repo.CountMeetings(ctx)
		gt.NoError(t, err)
		gt.Equal(t, after, before-1)

		_, err = repo.GetMeeting(ctx, m.ID)
		gt.True(t, errors.Is(err, model.ErrNotFound))

		_, err = repo.DeleteMeeting(ctx, m.ID)
		gt.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("conflict records newest first", func(t *testing.T) {
		older := &model.ConflictRecord{
			ID:           model.NewConflictRecordID(),
			Scenario:     "standup overlaps with review",
			Resolution:   "move standup",
			Intent:       model.ConflictIntentReschedule,
			ConflictType: model.ConflictTypeTimeOverlap,
			CreatedAt:    time.Now().UTC().Add(-time.Minute),
		}
		newer := &model.ConflictRecord{
			ID:           model.NewConflictRecordID(),
			Scenario:     "room double booked",
			Resolution:   "book room 2",
			Intent:       model.ConflictIntentNegotiate,
			ConflictType: model.ConflictTypeResource,
			CreatedAt:    time.Now().UTC(),
		}
		gt.NoError(t, repo.PutConflictRecord(ctx, older))
		gt.NoError(t, repo.PutConflictRecord(ctx, newer))

		records, err := repo.ListConflictRecords(ctx, 2)
		gt.NoError(t, err)
		gt.A(t, records).Length(2)
		gt.Equal(t, records[0].ID, newer.ID)
		gt.Equal(t, records[1].ID, older.ID)
		gt.Equal(t, records[0].ConflictType, model.ConflictTypeResource)
	})

	t.Run("ping", func(t *testing.T) {
		gt.NoError(t, repo.Ping(ctx))
	})
}

func TestMemory(t *testing.T) {
	testRepository(t, repository.NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	m := newMeeting("Planning", "carol", 9, 10)
	gt.NoError(t, repo.PutMeeting(ctx, m))
	m.Title = "changed after put"

	got, err := repo.GetMeeting(ctx, m.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Title, "Planning")

	got.Attendees[0] = "mallory"
	again, err := repo.GetMeeting(ctx, m.ID)
	gt.NoError(t, err)
	gt.Equal(t, again.Attendees[0], "alice")
}

func TestSQLite(t *testing.T) {
	repo := repository.NewSQLite(filepath.Join(t.TempDir(), "meetings.db"))
	t.Cleanup(func() { gt.NoError(t, repo.Close()) })

	testRepository(t, repo)
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meetings.db")

	repo := repository.NewSQLite(path)
	m := newMeeting("Persisted", "carol", 9, 10)
	m.HasConflict = true
	m.ConflictDetails = "Conflicts with 1 meeting(s)"
	gt.NoError(t, repo.PutMeeting(ctx, m))
	gt.NoError(t, repo.Close())

	reopened := repository.NewSQLite(path)
	t.Cleanup(func() { gt.NoError(t, reopened.Close()) })

	got, err := reopened.GetMeeting(ctx, m.ID)
	gt.NoError(t, err)
	gt.True(t, got.HasConflict)
	gt.Equal(t, got.ConflictDetails, m.ConflictDetails)
}

func TestSQLiteUnavailable(t *testing.T) {
	repo := repository.NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "meetings.db"))
	err := repo.Ping(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrStoreUnavailable))
}
