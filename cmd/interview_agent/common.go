package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/store"
)

// resolveConfig merges flags over the --config file over environment variables.
func resolveConfig() (config.Config, error) {
	cfg := config.Config{
		DatabaseURL:  databaseURL,
		APIKey:       apiKey,
		SettingsFile: settingsPath,
		CandidateID:  candidateArg,
		Verbose:      verbose,
	}

	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*loaded)
		cfg.Verbose = cfg.Verbose || loaded.Verbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// candidateID returns the owning candidate, uuid.Nil when anonymous.
func candidateID(cfg config.Config) uuid.UUID {
	if cfg.CandidateID == "" {
		return uuid.Nil
	}
	// Validate already checked the format
	return uuid.MustParse(cfg.CandidateID)
}

// newLogger logs to stderr. The CLI stays quiet below warn unless verbose or LOG_LEVEL is set.
func newLogger(cfg config.Config) (*logging.Logger, error) {
	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if os.Getenv("LOG_LEVEL") == "" && !cfg.Verbose {
		logCfg.Level = zapcore.WarnLevel
	}
	if os.Getenv("LOG_FORMAT") == "" {
		logCfg.Format = "console"
	}
	return logging.NewLogger(logCfg)
}

// app is the wiring shared by the orchestrator commands.
type app struct {
	cfg          config.Config
	log          *logging.Logger
	orchestrator *interview.Orchestrator
	db           *db.DB
	candidate    uuid.UUID
	printer      *observability.Printer
	out          io.Writer
	closers      []func()
}

// appOptions selects the backing store.
type appOptions struct {
	inMemory bool // Use a MemoryStore instead of Postgres
}

func newApp(ctx context.Context, out io.Writer, opts appOptions) (*app, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		candidate: candidateID(cfg),
		printer:   observability.NewPrinter(out),
		out:       out,
	}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	m := metrics.NewMetrics()
	completion, err := a.newCompletion(ctx, settings, m)
	if err != nil {
		a.Close()
		return nil, err
	}

	var sessions store.SessionStore
	if opts.inMemory {
		sessions = store.NewMemoryStore()
	} else {
		if cfg.DatabaseURL == "" {
			a.Close()
			return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = database
		a.closers = append(a.closers, database.Close)
		sessions = database
	}

	a.orchestrator, err = interview.New(interview.Deps{
		Store:      sessions,
		Completion: completion,
		Roles:      settings.RoleSettings(),
		WindowSize: settings.WindowSize,
		Logger:     log,
		Metrics:    m,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newCompletion builds the Gemini or scripted service wrapped in the retry policy.
func (a *app) newCompletion(ctx context.Context, settings *config.Settings, m *metrics.Metrics) (llm.CompletionService, error) {
	var base llm.CompletionService
	if mockMode {
		base = llm.NewScriptedService(llm.DefaultScript())
	} else {
		if a.cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required (or use --mock)")
		}
		gemini, err := llm.NewService(ctx, llm.DefaultConfig(), a.cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion service: %w", err)
		}
		a.closers = append(a.closers, func() { _ = gemini.Close() })
		base = gemini
	}

	return llm.NewRetryingService(base, settings.RetryPolicy(),
		llm.WithRateLimit(settings.RateLimit.PerSecond, settings.RateLimit.Burst),
		llm.WithAttemptObserver(func(role, outcome string, attempt int, err error) {
			m.CompletionAttempt(role, outcome)
			if err != nil {
				a.log.Warn(ctx, "completion attempt failed",
					zap.String("role", role), zap.String("outcome", outcome),
					zap.Int("attempt", attempt), zap.Error(err))
			}
		}),
	), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// writeJSON prints v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseInterviewID validates the positional interview ID.
func parseInterviewID(args []string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("exactly one interview ID is required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid interview ID %q: %w", args[0], err)
	}
	return id, nil
}
