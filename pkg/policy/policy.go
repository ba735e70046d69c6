// Package policy evaluates Rego scheduling rules against meetings before they are
// written. Rules live in package "meeting" and add messages to the deny set.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

const denyQuery = "data.meeting.deny"

// regoPrintHook forwards Rego print() output to the context logger
type regoPrintHook struct {
	ctx context.Context
}

func (h *regoPrintHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Policy holds the prepared deny query
type Policy struct {
	deny *rego.PreparedEvalQuery
}

// Input is the document exposed to rules as `input`
type Input struct {
	Action  model.AuditAction `json:"action"`
	Meeting *model.Meeting    `json:"meeting"`
}

// Load reads every .rego file in dir. It returns nil when the directory has no
// policy files, in which case nothing is denied.
func Load(ctx context.Context, dir string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	modules := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		modules[file] = string(data)
	}

	return New(ctx, modules)
}

// New prepares the deny query from module sources keyed by file name
func New(ctx context.Context, modules map[string]string) (*Policy, error) {
	options := make([]func(*rego.Rego), 0, len(modules)+1)
	options = append(options, rego.Query(denyQuery))
	for name, src := range modules {
		options = append(options, rego.Module(name, src))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.V("query", denyQuery))
	}

	return &Policy{deny: &prepared}, nil
}

// Check evaluates the rules for a meeting about to be written. A nil Policy
// allows everything.
func (p *Policy) Check(ctx context.Context, action model.AuditAction, meeting *model.Meeting) error {
	if p == nil {
		return nil
	}

	input, err := toDocument(&Input{Action: action, Meeting: meeting})
	if err != nil {
		return err
	}

	rs, err := p.deny.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{ctx: ctx}))
	if err != nil {
		return goerr.Wrap(err, "failed to evaluate policy", goerr.V("meeting_id", meeting.ID))
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil
	}

	reasons, err := denyReasons(rs[0].Expressions[0].Value)
	if err != nil {
		return err
	}
	if len(reasons) == 0 {
		return nil
	}

	return goerr.Wrap(model.ErrValidation, "denied by policy: "+strings.Join(reasons, "; "),
		goerr.V("meeting_id", meeting.ID),
		goerr.V("reasons", reasons))
}

func toDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal policy input")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal policy input")
	}
	return doc, nil
}

func denyReasons(value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, goerr.New("deny must be a set of strings", goerr.V("type", fmt.Sprintf("%T", value)))
	}

	reasons := make([]string, 0, len(items))
	for _, item := range items {
		reasons = append(reasons, fmt.Sprint(item))
	}
	sort.Strings(reasons)
	return reasons, nil
}
