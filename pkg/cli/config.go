package cli

import (
	"context"
	"os"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/adapter"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/interfaces"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/model"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/policy"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/repository"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/session"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Store backends selectable with --backend
const (
	backendMemory    = "memory"
	backendSQLite    = "sqlite"
	backendFirestore = "firestore"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Meeting store
	backend       string
	sqlitePath    string
	project       string
	database      string
	schemaVariant string
	policyDir     string
	auditDataset  string
	auditTable    string

	// Gemini
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Sessions
	sessionBucket    string
	sessionPrefix    string
	defaultSessionID string

	closers []func() error
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("CONFLICT_AGENT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("CONFLICT_AGENT_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// storeFlags returns flags for the meeting store and write pipeline
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Meeting store backend (memory, sqlite, firestore)",
			Value:       backendMemory,
			Sources:     cli.EnvVars("CONFLICT_AGENT_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file",
			Value:       "meetings.db",
			Sources:     cli.EnvVars("CONFLICT_AGENT_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "schema-variant",
			Usage:       "Meeting schema (full, minimal)",
			Value:       string(model.SchemaFull),
			Sources:     cli.EnvVars("CONFLICT_AGENT_SCHEMA_VARIANT"),
			Destination: &cfg.schemaVariant,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory with Rego scheduling policies (package meeting)",
			Sources:     cli.EnvVars("CONFLICT_AGENT_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "audit-dataset",
			Usage:       "BigQuery dataset for the mutation audit trail",
			Sources:     cli.EnvVars("CONFLICT_AGENT_AUDIT_DATASET"),
			Destination: &cfg.auditDataset,
		},
		&cli.StringFlag{
			Name:        "audit-table",
			Usage:       "BigQuery table for the mutation audit trail",
			Value:       "meeting_audit",
			Sources:     cli.EnvVars("CONFLICT_AGENT_AUDIT_TABLE"),
			Destination: &cfg.auditTable,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       adapter.DefaultGeminiModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// sessionFlags returns flags for conversation history storage
func sessionFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-bucket",
			Usage:       "Cloud Storage bucket for conversation history. In-memory when empty",
			Sources:     cli.EnvVars("CONFLICT_AGENT_SESSION_BUCKET"),
			Destination: &cfg.sessionBucket,
		},
		&cli.StringFlag{
			Name:        "session-prefix",
			Usage:       "Object key prefix for conversation history",
			Sources:     cli.EnvVars("CONFLICT_AGENT_SESSION_PREFIX"),
			Destination: &cfg.sessionPrefix,
		},
		&cli.StringFlag{
			Name:        "default-session-id",
			Usage:       "Session used when a request carries none",
			Value:       string(model.DefaultSessionID),
			Sources:     cli.EnvVars("CONFLICT_AGENT_DEFAULT_SESSION_ID"),
			Destination: &cfg.defaultSessionID,
		},
	}
}

// setupLogger installs the default logger from the log flags
func (cfg *config) setupLogger() error {
	logger, err := logging.NewWithFormat(logging.Format(cfg.logFormat), cfg.logLevel, os.Stderr)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	return nil
}

func (cfg *config) onClose(fn func() error) {
	cfg.closers = append(cfg.closers, fn)
}

// close releases clients opened by the factory methods
func (cfg *config) close() {
	for i := len(cfg.closers) - 1; i >= 0; i-- {
		if err := cfg.closers[i](); err != nil {
			logging.Default().Warn("failed to close client", "error", err)
		}
	}
	cfg.closers = nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository() (repository.Repository, error) {
	switch cfg.backend {
	case backendMemory:
		return repository.NewMemory(), nil

	case backendSQLite:
		if cfg.sqlitePath == "" {
			return nil, goerr.New("sqlite-path is required")
		}
		repo := repository.NewSQLite(cfg.sqlitePath)
		cfg.onClose(repo.Close)
		return repo, nil

	case backendFirestore:
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo := repository.NewFirestore(cfg.project, cfg.database)
		cfg.onClose(repo.Close)
		return repo, nil

	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// hasGemini reports whether Gemini is configured
func (cfg *config) hasGemini() bool {
	return cfg.geminiProject != ""
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}
	return gemini, nil
}

// newSessionStore returns a Cloud Storage backed store when a bucket is set
func (cfg *config) newSessionStore(ctx context.Context) (session.Store, error) {
	if cfg.sessionBucket == "" {
		return session.NewMemory(), nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.sessionBucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return session.NewStorage(storage, cfg.sessionPrefix), nil
}

func (cfg *config) newPolicy(ctx context.Context) (*policy.Policy, error) {
	if cfg.policyDir == "" {
		return nil, nil
	}
	p, err := policy.Load(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load policy", goerr.V("dir", cfg.policyDir))
	}
	return p, nil
}

// newAuditor returns nil when no audit dataset is configured
func (cfg *config) newAuditor(ctx context.Context) (interfaces.Auditor, error) {
	if cfg.auditDataset == "" {
		return nil, nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required for the audit trail")
	}
	if cfg.auditTable == "" {
		return nil, goerr.New("audit-table is required")
	}

	bq, err := adapter.NewBigQuery(ctx, cfg.project)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}
	cfg.onClose(bq.Close)
	return meeting.NewBigQueryAuditor(bq, cfg.auditDataset, cfg.auditTable), nil
}

// newMeetingUseCase wires the store, policy and audit trail into the meeting use case
func (cfg *config) newMeetingUseCase(ctx context.Context, metrics interfaces.Metrics) (*meeting.UseCase, repository.Repository, error) {
	variant := model.SchemaVariant(cfg.schemaVariant)
	if err := variant.Validate(); err != nil {
		return nil, nil, err
	}

	repo, err := cfg.newRepository()
	if err != nil {
		return nil, nil, err
	}

	opts := []meeting.Option{meeting.WithSchemaVariant(variant)}

	p, err := cfg.newPolicy(ctx)
	if err != nil {
		return nil, nil, err
	}
	if p != nil {
		opts = append(opts, meeting.WithPolicy(p))
	}

	auditor, err := cfg.newAuditor(ctx)
	if err != nil {
		return nil, nil, err
	}
	if auditor != nil {
		opts = append(opts, meeting.WithAuditor(auditor))
	}

	if metrics != nil {
		opts = append(opts, meeting.WithMetrics(metrics))
	}

	return meeting.New(repo, opts...), repo, nil
}
