// Package resolver generates and records resolutions for free text scheduling
// conflict scenarios.
package resolver

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/resolve.md
var resolvePromptRaw string

var resolvePromptTmpl = template.Must(template.New("resolve").Parse(resolvePromptRaw))

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
	// MaxScenarioLength bounds the prompt size
	MaxScenarioLength = 4000
)

type UseCase struct {
	gemini adapter.Gemini
	repo   repository.Repository
	now    func() time.Time
}

type Option func(*UseCase)

func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

func New(gemini adapter.Gemini, repo repository.Repository, opts ...Option) *UseCase {
	u := &UseCase{
		gemini: gemini,
		repo:   repo,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type resolveOutput struct {
	Intent       model.ConflictIntent `json:"intent"`
	ConflictType model.ConflictType   `json:"conflictType"`
	Resolution   string               `json:"resolution"`
}

// Resolve classifies the scenario, generates a resolution and stores the record
func (u *UseCase) Resolve(ctx context.Context, scenario string) (*model.ConflictRecord, error) {
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return nil, goerr.Wrap(model.ErrValidation, "scenario is required")
	}
	if len(scenario) > MaxScenarioLength {
		return nil, goerr.Wrap(model.ErrValidation, "scenario is too long",
			goerr.V("length", len(scenario)),
			goerr.V("max", MaxScenarioLength))
	}

	var buf bytes.Buffer
	if err := resolvePromptTmpl.Execute(&buf, map[string]any{
		"Scenario": scenario,
		"Intents":  model.ConflictIntents,
		"Types":    model.ConflictTypes,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute resolve prompt template")
	}

	resp, err := u.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(buf.String(), genai.RoleUser)},
		responseConfig())
	if err != nil {
		if errors.Is(err, model.ErrExternalService) {
			return nil, goerr.Wrap(err, "failed to generate resolution")
		}
		return nil, goerr.Wrap(model.ErrExternalService, "failed to generate resolution", goerr.V("cause", err.Error()))
	}

	output, err := parseOutput(resp)
	if err != nil {
		return nil, err
	}

	record := &model.ConflictRecord{
		ID:           model.NewConflictRecordID(),
		Scenario:     scenario,
		Resolution:   output.Resolution,
		Intent:       output.Intent,
		ConflictType: output.ConflictType,
		CreatedAt:    u.now().UTC(),
	}
	if err := record.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrExternalService, "invalid resolution from Gemini",
			goerr.V("intent", output.Intent),
			goerr.V("conflict_type", output.ConflictType),
			goerr.V("cause", err.Error()))
	}

	if err := u.repo.PutConflictRecord(ctx, record); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("conflict resolved",
		"record_id", record.ID,
		"intent", record.Intent,
		"conflict_type", record.ConflictType)
	return record, nil
}

// List returns stored records, newest first
func (u *UseCase) List(ctx context.Context, limit int) ([]*model.ConflictRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	records, err := u.repo.ListConflictRecords(ctx, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*model.ConflictRecord{}
	}
	return records, nil
}

func responseConfig() *genai.GenerateContentConfig {
	intents := make([]string, 0, len(model.ConflictIntents))
	for _, i := range model.ConflictIntents {
		intents = append(intents, string(i))
	}
	types := make([]string, 0, len(model.ConflictTypes))
	for _, t := range model.ConflictTypes {
		types = append(types, string(t))
	}

	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"intent": {
					Type:        genai.TypeString,
					Description: "Recommended action",
					Enum:        intents,
				},
				"conflictType": {
					Type:        genai.TypeString,
					Description: "Kind of scheduling conflict",
					Enum:        types,
				},
				"resolution": {
					Type:        genai.TypeString,
					Description: "Short recommendation for the user",
				},
			},
			Required: []string{"intent", "conflictType", "resolution"},
		},
	}
}

func parseOutput(resp *genai.GenerateContentResponse) (*resolveOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.Wrap(model.ErrExternalService, "empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	var output resolveOutput
	if err := json.Unmarshal([]byte(text.String()), &output); err != nil {
		return nil, goerr.Wrap(model.ErrExternalService, "failed to parse resolution",
			goerr.V("text", text.String()),
			goerr.V("cause", err.Error()))
	}
	output.Resolution = strings.TrimSpace(output.Resolution)
	return &output, nil
}
