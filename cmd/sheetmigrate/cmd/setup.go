package cmd

import (
	"context"
	"fmt"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
	"github.com/sheetwise/sheetmigrate/internal/config"
	"github.com/sheetwise/sheetmigrate/internal/destdb"
	"github.com/sheetwise/sheetmigrate/internal/logger"
	"github.com/sheetwise/sheetmigrate/internal/mapping"
	"github.com/sheetwise/sheetmigrate/internal/migrate"
	"github.com/sheetwise/sheetmigrate/internal/verify"
)

// env bundles the collaborators every command wires up: config, logger,
// source client, destination connection, and the mapping store.
type env struct {
	cfg      *config.Config
	log      *logger.Logger
	client   *bubble.Client
	manager  *destdb.Manager
	mappings *mapping.Store
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.BatchSize, overrides.PageDelay, overrides.SkipVerify)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildEnv constructs the shared collaborators and connects to the
// destination. The caller must defer e.close().
func buildEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := bubble.NewClient(cfg.Source, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create source client: %w", err)
	}

	manager := destdb.NewManager(&cfg.Destination)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}

	mappings, err := mapping.NewStore(manager.DB, log)
	if err != nil {
		manager.Close()
		return nil, err
	}
	if err := mappings.EnsureSchema(ctx); err != nil {
		manager.Close()
		return nil, err
	}

	return &env{
		cfg:      cfg,
		log:      log,
		client:   client,
		manager:  manager,
		mappings: mappings,
	}, nil
}

func (e *env) close() {
	e.manager.Close()
	e.log.Sync()
}

// buildDriver assembles the migration driver with the default entity set.
func (e *env) buildDriver() (*migrate.Driver, error) {
	var verifier *verify.Verifier
	if !e.cfg.Verification.SkipVerification {
		v, err := verify.NewVerifier(e.manager.DB, e.mappings, e.log)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	driver, err := migrate.NewDriver(
		e.manager.DB,
		migrate.ClientSource{Client: e.client},
		e.mappings,
		verifier,
		e.log,
		e.cfg.Processing.BatchSize,
	)
	if err != nil {
		return nil, err
	}

	for _, m := range migrate.DefaultMigrators() {
		if err := driver.Register(m); err != nil {
			return nil, err
		}
	}
	return driver, nil
}
