package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"leconn/internal/config"
	"leconn/internal/models"
	"leconn/internal/observability"

	"gorm.io/gorm"
)

// SchemaMode is the DB_SCHEMA_MODE setting.
type SchemaMode string

const (
	// SchemaModeHybrid runs SQL migrations, then AutoMigrate outside staging and production.
	SchemaModeHybrid SchemaMode = "hybrid"
	SchemaModeSQL    SchemaMode = "sql"
	SchemaModeAuto   SchemaMode = "auto"
)

// ManagedModels are the GORM models whose tables the schema step owns.
func ManagedModels() []any {
	return []any{
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Follow{},
		&models.Repost{},
	}
}

// SchemaPlan says which schema steps ApplySchema takes for a configuration.
type SchemaPlan struct {
	Mode SchemaMode
	Env  string
	SQL  bool
	Auto bool
}

// PlanSchema resolves the schema mode against the driver and environment.
// SQLite always uses AutoMigrate since the SQL files target postgres.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: SchemaMode(strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))), Env: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	if cfg.DBDriver == "sqlite" {
		plan.Auto = true
		return plan, nil
	}

	guarded := releaseEnv(cfg.Env)
	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !guarded
	case SchemaModeAuto:
		if guarded && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %s needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unknown DB_SCHEMA_MODE %q", cfg.DBSchemaMode)
	}
	return plan, nil
}

func releaseEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// ApplySchema brings db up to date following PlanSchema.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if !plan.Auto {
		return nil
	}

	if releaseEnv(cfg.Env) {
		observability.Logger.WarnContext(ctx, "AutoMigrate enabled in a release environment", slog.String("env", cfg.Env))
	}
	observability.Logger.InfoContext(ctx, "running AutoMigrate", slog.String("mode", string(plan.Mode)))
	if err := db.WithContext(ctx).AutoMigrate(ManagedModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus is a SchemaPlan plus the migration ledger state.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending []Migration
}

// GetSchemaStatus reports what ApplySchema would do without changing db.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	status.Applied, status.Pending, err = NewMigrator(db, registered).Pending(ctx)
	if err != nil {
		return nil, err
	}
	return status, nil
}
