package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionMeetings        = "meetings"
	collectionConflictRecords = "conflict_records"
)

// Firestore implements Repository using Cloud Firestore. The client is created
// on first use and reused for the lifetime of the process.
type Firestore struct {
	projectID  string
	databaseID string

	mu     sync.Mutex
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository. No connection is made until the first call.
func NewFirestore(projectID, databaseID string) *Firestore {
	return &Firestore{
		projectID:  projectID,
		databaseID: databaseID,
	}
}

func (r *Firestore) connect(ctx context.Context) (*firestore.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := firestore.NewClientWithDatabase(ctx, r.projectID, r.databaseID)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to create firestore client",
			goerr.V("project", r.projectID),
			goerr.V("database", r.databaseID),
			goerr.V("cause", err.Error()))
	}
	r.client = client
	return client, nil
}

// Close releases the cached client
func (r *Firestore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	if err != nil {
		return goerr.Wrap(err, "failed to close firestore client")
	}
	return nil
}

func storeError(err error, msg string, options ...goerr.Option) error {
	if status.Code(err) == codes.NotFound {
		return goerr.Wrap(model.ErrNotFound, msg, options...)
	}
	options = append(options, goerr.V("cause", err.Error()))
	return goerr.Wrap(model.ErrStoreUnavailable, msg, options...)
}

func (r *Firestore) PutMeeting(ctx context.Context, meeting *model.Meeting) error {
	client, err := r.connect(ctx)
	if err != nil {
		return err
	}

	if _, err := client.Collection(collectionMeetings).Doc(string(meeting.ID)).Set(ctx, meeting); err != nil {
		return storeError(err, "failed to put meeting", goerr.V("meeting_id", meeting.ID))
	}
	return nil
}

func (r *Firestore) GetMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := client.Collection(collectionMeetings).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, storeError(err, "failed to get meeting", goerr.V("meeting_id", id))
	}

	var meeting model.Meeting
	if err := doc.DataTo(&meeting); err != nil {
		return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("meeting_id", id))
	}
	return &meeting, nil
}

func (r *Firestore) FindMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	q := client.Collection(collectionMeetings).Query
	if filter.Organizer != "" {
		q = q.Where("Organizer", "==", filter.Organizer)
	}
	if filter.Status != "" {
		q = q.Where("Status", "==", string(filter.Status))
	}
	if !filter.StartFrom.IsZero() {
		q = q.Where("StartTime", ">=", filter.StartFrom)
	}
	if !filter.StartTo.IsZero() {
		q = q.Where("StartTime", "<=", filter.StartTo)
	}
	q = q.OrderBy("StartTime", firestore.Asc)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var meetings []*model.Meeting
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError(err, "failed to iterate meetings")
		}

		var meeting model.Meeting
		if err := doc.DataTo(&meeting); err != nil {
			return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("doc_id", doc.Ref.ID))
		}
		meetings = append(meetings, &meeting)
	}

	return meetings, nil
}

func (r *Firestore) UpdateMeeting(ctx context.Context, id model.MeetingID, fn func(*model.Meeting) (*model.Meeting, error)) (*model.Meeting, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	ref := client.Collection(collectionMeetings).Doc(string(id))
	var (
		updated *model.Meeting
		// txErr holds errors already classified inside the transaction
		txErr error
	)

	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			txErr = storeError(err, "failed to get meeting", goerr.V("meeting_id", id))
			return txErr
		}

		var current model.Meeting
		if err := doc.DataTo(&current); err != nil {
			txErr = goerr.Wrap(err, "failed to decode meeting", goerr.V("meeting_id", id))
			return txErr
		}

		next, err := fn(&current)
		if err != nil {
			txErr = err
			return err
		}
		next.ID = id
		updated = next

		return tx.Set(ref, next)
	})
	if txErr != nil {
		return nil, txErr
	}
	if err != nil {
		return nil, storeError(err, "failed to update meeting", goerr.V("meeting_id", id))
	}

	return updated, nil
}

func (r *Firestore) DeleteMeeting(ctx context.Context, id model.MeetingID) (*model.Meeting, error) {
	meeting, err := r.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := client.Collection(collectionMeetings).Doc(string(id)).Delete(ctx); err != nil {
		return nil, storeError(err, "failed to delete meeting", goerr.V("meeting_id", id))
	}
	return meeting, nil
}

func (r *Firestore) CountMeetings(ctx context.Context) (int, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return 0, err
	}

	iter := client.Collection(collectionMeetings).Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, storeError(err, "failed to count meetings")
		}
		count++
	}
	return count, nil
}

func (r *Firestore) PutConflictRecord(ctx context.Context, record *model.ConflictRecord) error {
	client, err := r.connect(ctx)
	if err != nil {
		return err
	}

	if _, err := client.Collection(collectionConflictRecords).Doc(string(record.ID)).Create(ctx, record); err != nil {
		return storeError(err, "failed to put conflict record", goerr.V("record_id", record.ID))
	}
	return nil
}

func (r *Firestore) ListConflictRecords(ctx context.Context, limit int) ([]*model.ConflictRecord, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	q := client.Collection(collectionConflictRecords).OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var records []*model.ConflictRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError(err, "failed to iterate conflict records")
		}

		var record model.ConflictRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode conflict record", goerr.V("doc_id", doc.Ref.ID))
		}
		records = append(records, &record)
	}
	return records, nil
}

func (r *Firestore) Ping(ctx context.Context) error {
	client, err := r.connect(ctx)
	if err != nil {
		return err
	}

	iter := client.Collection(collectionMeetings).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return storeError(err, "failed to ping firestore")
	}
	return nil
}
