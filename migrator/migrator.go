package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/stakesnap/pkg/pgxdb"
	"github.com/screwyprof/stakesnap/snapshot"
	"github.com/screwyprof/stakesnap/snapshot/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_report_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrSeedFailed         = errors.New("seeding report failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	_, err := applyMigrations(db, m.migrationsDir)
	return err
}

// SeededMigrator applies schema migrations and stores one report
// Used for tests that need an existing snapshot in the database
type SeededMigrator struct {
	migrationsDir string
	report        snapshot.Report
}

// NewSeededMigrator creates a migrator that applies schema + stores report
func NewSeededMigrator(migrationsDir string, report snapshot.Report) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		report:        report,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return seededHashPrefix + baseHash +
		"_" + strconv.FormatInt(m.report.TakenAt.UnixNano(), 10) +
		"_" + strconv.Itoa(len(m.report.Rows)), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if _, err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}

	pool, err := pgxdb.NewConnection(ctx, conf.URL(), pgxdb.WithMaxConns(2))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}
	store, closer := pgxstore.New(pool)
	defer closer()

	if err := store.WriteReport(ctx, m.report); err != nil {
		return fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}
	return nil
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
// and returns the number of migrations applied
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) (int, error) {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) (int, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	n, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return n, nil
}

func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}
