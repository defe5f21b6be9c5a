package dbrow

import (
	"github.com/screwyprof/stakesnap/snapshot"
)

// Delegator represents a report row as stored in the database
type Delegator struct {
	SnapshotID      int64    `db:"snapshot_id"`
	Position        int      `db:"position"`
	Address         string   `db:"address"`
	OriginalAddress string   `db:"original_address"`
	Amount          string   `db:"amount"` // NUMERIC, passed as text to keep it exact
	Validators      []string `db:"validators"`
	Chain           string   `db:"chain"`
}

// DelegatorColumns lists the columns filled by DelegatorsToRows, in order
var DelegatorColumns = []string{"position", "address", "original_address", "amount", "validators", "chain"}

// DelegatorsToRows converts report rows directly to [][]any for pgx.CopyFromRows
func DelegatorsToRows(rows []snapshot.AggregatedDelegator) [][]any {
	out := make([][]any, len(rows))

	for i, r := range rows {
		validators := r.Validators
		if validators == nil {
			validators = []string{}
		}
		out[i] = []any{
			i,
			r.Address,
			r.OriginalAddress,
			r.Amount.String(),
			validators,
			r.Chain,
		}
	}

	return out
}

// ChainArgs returns the insert arguments of one chain summary after the snapshot id
func ChainArgs(position int, c snapshot.ChainSummary) []any {
	var errText *string
	if c.Err != nil {
		msg := c.Err.Error()
		errText = &msg
	}

	return []any{
		position,
		c.Chain,
		c.State.String(),
		errText,
		c.Validators,
		c.DroppedValidators,
		c.DroppedDelegators,
		c.Stats.Count,
		c.Stats.Total.String(),
		c.Stats.Mean.String(),
		c.Stats.Median.String(),
		c.Stats.Max.String(),
		c.Stats.MeanValidators.String(),
		c.Duration.Milliseconds(),
	}
}
