package migrate

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/pressly/goose/v3"
)

// AutoRun applies pending embedded migrations at process start. It only acts
// in dev with TMS_AUTO_MIGRATE set; every other environment migrates through
// the CLI.
func AutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.DB.Driver == db.DriverSQLite {
		logg.Warn(ctx, "auto-migrate skipped: migrations target postgres")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	fsys, err := fs.Sub(Embedded, EmbeddedDir)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	// The provider shares sqlDB with the client, so it is never closed here.
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}
	for _, res := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(results)), "auto-migrate complete")
	return nil
}
