package migrate

import (
	"context"
	"fmt"

	"github.com/designcraft/designcraft-backend/pkg/config"
	"github.com/designcraft/designcraft-backend/pkg/db"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

// MaybeRun applies pending migrations on boot when the auto-migrate flag is set
// or the app is running in dev mode.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil {
		return nil
	}
	if !cfg.App.IsDev() && !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dialect": client.DialectName()}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Run(ctx, sqlDB, client.DialectName(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
