// Package csvstore writes snapshot reports as CSV files.
package csvstore

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/screwyprof/stakesnap/snapshot"
)

// Header is the first line of every report file
var Header = []string{"address", "amount", "validators", "original_address", "chain"}

// Sentinel errors for store operations
var (
	ErrCreateFailed = errors.New("creating report file failed")
	ErrWriteFailed  = errors.New("writing report failed")
	ErrCommitFailed = errors.New("committing report file failed")
)

// Store writes the report to a single file path
type Store struct {
	path string
}

// New creates a store writing to path
func New(path string) *Store {
	return &Store{path: path}
}

// WriteReport writes all rows to a temporary file next to the target and renames it into place,
// so readers never see a partial report.
func (s *Store) WriteReport(ctx context.Context, report snapshot.Report) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := Write(tmp, report.Rows); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	return nil
}

// Write encodes rows with a header line. Validator sets are written as JSON arrays.
func Write(w io.Writer, rows []snapshot.AggregatedDelegator) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	for _, r := range rows {
		validators, err := json.Marshal(nonNil(r.Validators))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
		record := []string{r.Address, r.Amount.String(), string(validators), r.OriginalAddress, r.Chain}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func nonNil(validators []string) []string {
	if validators == nil {
		return []string{}
	}
	return validators
}
