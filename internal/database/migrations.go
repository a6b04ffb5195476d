package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"leconn/internal/observability"

	"gorm.io/gorm"
)

// Migration is one versioned SQL change and the script that undoes it.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// ID is the file stem the migration was loaded from, e.g. 000001_init.
func (m Migration) ID() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embedded embed.FS

var registered = mustParse(embedded)

func mustParse(fsys fs.FS) []Migration {
	set, err := ParseMigrations(fsys, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return set
}

// Registered returns the migrations compiled into the binary, oldest first.
func Registered() []Migration {
	return slices.Clone(registered)
}

// Lookup finds a registered migration by version.
func Lookup(version int) (Migration, bool) {
	for _, m := range registered {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

// ParseMigrations reads <version>_<name>.up.sql files from dir together with
// their .down.sql partner. Files without a numeric version prefix are skipped.
func ParseMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var set []Migration
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if entry.IsDir() || !ok {
			continue
		}

		prefix, name, ok := strings.Cut(stem, "_")
		if !ok {
			observability.Logger.Warn("ignoring migration file", slog.String("file", entry.Name()))
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: version %q is not a number", entry.Name(), prefix)
		}

		up, err := fs.ReadFile(fsys, path.Join(dir, stem+".up.sql"))
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, stem+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", stem, err)
		}

		set = append(set, Migration{Version: version, Name: name, Up: string(up), Down: string(down)})
	}

	slices.SortFunc(set, func(a, b Migration) int { return a.Version - b.Version })
	return set, nil
}

// schemaVersion is one row of the applied-migrations ledger.
type schemaVersion struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

func (schemaVersion) TableName() string { return "schema_versions" }

// Migrator applies and reverts a set of migrations against one database,
// recording progress in the schema_versions table.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

// NewMigrator returns a Migrator over set, which must be sorted by version.
func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set}
}

// Applied lists recorded versions in ascending order. A database that has
// never been migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&schemaVersion{}) {
		return nil, nil
	}
	var versions []int
	if err := db.Model(&schemaVersion{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema_versions: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations of the set not yet recorded. It fails when
// the ledger holds a version the set does not know about, which means the
// database was migrated by a newer build.
func (m *Migrator) Pending(ctx context.Context) (applied []int, pending []Migration, err error) {
	applied, err = m.Applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := m.checkLedger(applied); err != nil {
		return nil, nil, err
	}
	for _, mig := range m.set {
		if !slices.Contains(applied, mig.Version) {
			pending = append(pending, mig)
		}
	}
	return applied, pending, nil
}

func (m *Migrator) checkLedger(applied []int) error {
	var foreign []string
	for _, v := range applied {
		if !slices.ContainsFunc(m.set, func(mig Migration) bool { return mig.Version == v }) {
			foreign = append(foreign, fmt.Sprintf("%06d", v))
		}
	}
	if len(foreign) > 0 {
		return fmt.Errorf("schema_versions has versions this build does not ship: %s", strings.Join(foreign, ", "))
	}
	return nil
}

// Up applies every pending migration, each in its own transaction, and
// reports how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&schemaVersion{}); err != nil {
		return 0, fmt.Errorf("create schema_versions: %w", err)
	}
	_, pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		if err := m.apply(ctx, mig); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Up).Error; err != nil {
			return err
		}
		return tx.Create(&schemaVersion{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}).Error
	})
	if err != nil {
		return fmt.Errorf("migration %s: %w", mig.ID(), err)
	}
	observability.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.ID()))
	return nil
}

// Down runs the down script of an applied version and removes it from the
// ledger in the same transaction.
func (m *Migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.set, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("no migration with version %d", version)
	}
	mig := m.set[idx]

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s is not applied", mig.ID())
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return err
		}
		return tx.Delete(&schemaVersion{}, "version = ?", version).Error
	})
	if err != nil {
		return fmt.Errorf("revert %s: %w", mig.ID(), err)
	}
	observability.Logger.InfoContext(ctx, "migration reverted", slog.String("migration", mig.ID()))
	return nil
}

// RunMigrations applies the registered migrations that db has not seen.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db, registered).Up(ctx)
	return err
}

// RollbackMigration reverts one registered migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, registered).Down(ctx, version)
}
