// Package meeting implements meeting CRUD with write-time conflict detection.
package meeting

import (
	"context"
	"sync"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/interfaces"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// UseCase coordinates validation, policy, conflict detection and persistence of meetings.
type UseCase struct {
	repo    repository.Repository
	variant model.SchemaVariant
	policy  interfaces.Policy
	auditor interfaces.Auditor
	metrics interfaces.Metrics
	now     func() time.Time

	// writeMu makes detect-then-write atomic within this process
	writeMu sync.Mutex
}

type Option func(*UseCase)

func WithSchemaVariant(variant model.SchemaVariant) Option {
	return func(u *UseCase) {
		u.variant = variant
	}
}

func WithPolicy(policy interfaces.Policy) Option {
	return func(u *UseCase) {
		u.policy = policy
	}
}

func WithAuditor(auditor interfaces.Auditor) Option {
	return func(u *UseCase) {
		u.auditor = auditor
	}
}

func WithMetrics(metrics interfaces.Metrics) Option {
	return func(u *UseCase) {
		u.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

func New(repo repository.Repository, opts ...Option) *UseCase {
	u := &UseCase{
		repo:    repo,
		variant: model.SchemaFull,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Variant returns the schema variant meetings are written with
func (u *UseCase) Variant() model.SchemaVariant {
	return u.variant
}

type sourceKey struct{}

// WithSource tags ctx with the entry point (api, agent, mcp, cli) recorded in audit events
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return "unknown"
}

func (u *UseCase) checkPolicy(ctx context.Context, action model.AuditAction, m *model.Meeting) error {
	if u.policy == nil {
		return nil
	}
	return u.policy.Check(ctx, action, m)
}

// record reports a committed mutation. Failures are logged only.
func (u *UseCase) record(ctx context.Context, action model.AuditAction, m *model.Meeting) {
	if u.metrics != nil {
		u.metrics.MeetingMutated(action, m.HasConflict)
	}
	if u.auditor == nil {
		return
	}
	event := model.NewAuditEvent(action, m, sourceFrom(ctx), u.now().UTC())
	if err := u.auditor.Record(ctx, event); err != nil {
		logging.From(ctx).Warn("failed to record audit event",
			"error", err,
			"action", action,
			"meeting_id", m.ID)
	}
}

// candidates loads scheduled meetings that may overlap the interval
func (u *UseCase) candidates(ctx context.Context, interval model.Interval) ([]*model.Meeting, error) {
	return u.repo.FindMeetings(ctx, model.MeetingFilter{
		Status:  model.MeetingStatusScheduled,
		StartTo: interval.End,
	})
}

func (u *UseCase) detect(ctx context.Context, interval model.Interval, exclude model.MeetingID) ([]*model.Meeting, error) {
	existing, err := u.candidates(ctx, interval)
	if err != nil {
		return nil, err
	}
	conflicts, err := model.DetectConflicts(model.DetectInput{
		Candidate:     interval,
		Exclude:       exclude,
		ScheduledOnly: true,
	}, existing)
	if err != nil {
		return nil, err
	}
	if u.metrics != nil && len(conflicts) > 0 {
		u.metrics.ConflictDetected(len(conflicts))
	}
	return conflicts, nil
}
