package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dinarko/dinarko/internal/domain/currency"
	ingesthandler "github.com/dinarko/dinarko/internal/domain/ingest/handler"
	"github.com/dinarko/dinarko/internal/domain/ingest/recorder"
	"github.com/dinarko/dinarko/internal/domain/ingest/repository"
	"github.com/dinarko/dinarko/internal/domain/ingest/service"
	"github.com/dinarko/dinarko/internal/domain/rules"

	"github.com/dinarko/dinarko/pkg/config"
	"github.com/dinarko/dinarko/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Tables
	Rules      *rules.Tables
	Currencies *currency.Table

	// Repositories
	CandidateRepo repository.CandidateRepository

	// Services
	Pipeline *service.PipelineService
	Recorder *recorder.Recorder
	Notifier service.Notifier

	// Handlers
	IngestHandler *ingesthandler.IngestHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initTables(); err != nil {
		return nil, fmt.Errorf("failed to init tables: %w", err)
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initServices()
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initTables loads the keyword and currency tables, either from the
// configured YAML files or from the built-in defaults.
func (d *Dependencies) initTables() error {
	if d.Config.RulesPath != "" {
		t, err := rules.Load(d.Config.RulesPath)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
		d.Rules = t
	} else {
		d.Rules = rules.Default()
	}

	if d.Config.CurrenciesPath != "" {
		t, err := currency.Load(d.Config.CurrenciesPath)
		if err != nil {
			return fmt.Errorf("failed to load currencies: %w", err)
		}
		d.Currencies = t
	} else {
		d.Currencies = currency.Default()
	}

	d.Logger.Info("tables loaded",
		slog.String("base_currency", d.Currencies.Base().Code),
		slog.Int("category_groups", len(d.Rules.Categories)))
	return nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.DatabaseURL,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initServices initializes the repository, pipeline, and recorder.
func (d *Dependencies) initServices() {
	d.CandidateRepo = repository.NewPostgresCandidateRepository(d.DB.Pool)
	d.Pipeline = service.NewPipelineService(d.Rules, d.Currencies, d.CandidateRepo, d.Config.DailyAllowance, d.Logger)
	d.Recorder = recorder.New(d.CandidateRepo, d.Config.DedupWindow, d.Logger)
	d.Notifier = service.NewLogNotifier(d.Logger)

	d.Logger.Info("services initialized",
		slog.Duration("dedup_window", d.Recorder.Window()))
}

// initHandlers initializes the HTTP handlers.
func (d *Dependencies) initHandlers() {
	d.IngestHandler = ingesthandler.NewIngestHandler(
		d.Pipeline,
		d.Recorder,
		d.Notifier,
		ingesthandler.StaticPreferences{TrackIncome: d.Config.AutoTrackIncome},
		d.Config.Sources(),
		d.Logger,
	)
}

// Cleanup releases held resources.
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
}
