package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/stakesnap/snapshot"
	"github.com/screwyprof/stakesnap/snapshot/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrSnapshotFailed    = errors.New("snapshot insert failed")
	ErrChainFailed       = errors.New("chain summary insert failed")
	ErrTempTableFailed   = errors.New("temporary table operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrInsertFailed      = errors.New("insert operation failed")
)

// Store implements snapshot.ReportWriter using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// WriteReport stores the whole report in one transaction and returns once it is committed
func (s *Store) WriteReport(ctx context.Context, report snapshot.Report) error {
	_, err := s.SaveReport(ctx, report)
	return err
}

// SaveReport stores the report and returns the new snapshot id.
// Delegators are bulk loaded with CopyFrom through a temporary table.
func (s *Store) SaveReport(ctx context.Context, report snapshot.Report) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	var snapshotID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO snapshots (taken_at, output_prefix, delegators, total_amount)
		VALUES ($1, $2, $3, $4::text::numeric)
		RETURNING id
	`, report.TakenAt, report.OutputPrefix, report.Overall.Count, report.Overall.Total.String()).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSnapshotFailed, err)
	}

	for i, c := range report.Chains {
		args := append([]any{snapshotID}, dbrow.ChainArgs(i, c)...)
		_, err = tx.Exec(ctx, `
			INSERT INTO snapshot_chains (
				snapshot_id, position, chain, state, error, validators, dropped_validators, dropped_delegators,
				delegators, total_amount, mean_amount, median_amount, max_amount, mean_validators, duration_ms
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8,
				$9, $10::text::numeric, $11::text::numeric, $12::text::numeric, $13::text::numeric, $14::text::numeric, $15
			)
		`, args...)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrChainFailed, c.Chain, err)
		}
	}

	if len(report.Rows) > 0 {
		if err := copyDelegators(ctx, tx, snapshotID, report.Rows); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return snapshotID, nil
}

func copyDelegators(ctx context.Context, tx pgx.Tx, snapshotID int64, rows []snapshot.AggregatedDelegator) error {
	_, err := tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_snapshot_delegators (
			position INTEGER,
			address TEXT,
			original_address TEXT,
			amount TEXT,
			validators TEXT[],
			chain TEXT
		) ON COMMIT DROP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempTableFailed, err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_snapshot_delegators"},
		dbrow.DelegatorColumns,
		pgx.CopyFromRows(dbrow.DelegatorsToRows(rows)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	// Amounts travel as text so NUMERIC keeps every digit
	_, err = tx.Exec(ctx, `
		INSERT INTO snapshot_delegators (snapshot_id, position, address, original_address, amount, validators, chain)
		SELECT $1, position, address, original_address, amount::numeric, validators, chain
		FROM temp_snapshot_delegators
	`, snapshotID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return nil
}
