package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

type mockGemini struct {
	adapter.Gemini
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.generateFunc(ctx, contents, config)
}

func jsonResponse(text string) *mockGemini {
	return &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}}},
				},
			}, nil
		},
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	var captured *genai.GenerateContentConfig
	var prompt string
	gemini := jsonResponse(`{"intent":"reschedule","conflictType":"time_overlap","resolution":"Move the review to 4pm."}`)
	inner := gemini.generateFunc
	gemini.generateFunc = func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		captured = config
		prompt = contents[0].Parts[0].Text
		return inner(ctx, contents, config)
	}

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	uc := resolver.New(gemini, repo, resolver.WithClock(func() time.Time { return now }))

	record, err := uc.Resolve(ctx, "  My standup and the design review are both at 3pm  ")
	gt.NoError(t, err)
	gt.Equal(t, record.Intent, model.ConflictIntentReschedule)
	gt.Equal(t, record.ConflictType, model.ConflictTypeTimeOverlap)
	gt.Equal(t, record.Resolution, "Move the review to 4pm.")
	gt.Equal(t, record.Scenario, "My standup and the design review are both at 3pm")
	gt.True(t, record.CreatedAt.Equal(now))

	gt.Equal(t, captured.ResponseMIMEType, "application/json")
	gt.A(t, captured.ResponseSchema.Properties["intent"].Enum).Length(len(model.ConflictIntents))
	gt.S(t, prompt).Contains("design review")
	gt.S(t, prompt).Contains("`time_overlap`")

	records, err := uc.List(ctx, 0)
	gt.NoError(t, err)
	gt.A(t, records).Length(1)
	gt.Equal(t, records[0].ID, record.ID)
}

func TestResolveValidation(t *testing.T) {
	called := false
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			called = true
			return nil, nil
		},
	}
	uc := resolver.New(gemini, repository.NewMemory())

	_, err := uc.Resolve(context.Background(), "   ")
	gt.True(t, errors.Is(err, model.ErrValidation))
	gt.False(t, called)
}

func TestResolveBadModelOutput(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()

	testCases := map[string]string{
		"not json":       "reschedule it",
		"unknown intent": `{"intent":"panic","conflictType":"resource","resolution":"x"}`,
		"no resolution":  `{"intent":"cancel","conflictType":"resource","resolution":"  "}`,
	}
	for name, text := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := resolver.New(jsonResponse(text), repo).Resolve(ctx, "two meetings at noon")
			gt.True(t, errors.Is(err, model.ErrExternalService))
		})
	}

	records, err := repo.ListConflictRecords(ctx, 10)
	gt.NoError(t, err)
	gt.A(t, records).Length(0)
}

func TestResolveGeminiFailure(t *testing.T) {
	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, goerr.New("deadline exceeded")
		},
	}
	_, err := resolver.New(gemini, repository.NewMemory()).Resolve(context.Background(), "clash")
	gt.True(t, errors.Is(err, model.ErrExternalService))
}
