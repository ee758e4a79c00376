// Package loader implements the coalescer / loader: it
// merges every per-person partition file into one consolidated row set,
// assigns a dense row-number id, maps the party_id=0 sentinel back to
// NULL, and hands the result to internal/sink for the atomic
// versioned-table swap.
package loader

import (
	"fmt"
	"sort"

	"github.com/mysociety/policyscore/internal/columnar"
	"github.com/mysociety/policyscore/internal/model"
)

// Coalesce reads every partition file in dir, in a stable (sorted)
// filename order, concatenates their rows, and assigns a dense
// monotonically increasing id. party_id is left as the partition's raw
// int64; NilSentinelParties then maps the model.NoPartyID sentinel to
// nil so the sink column is written as SQL NULL. id assignment order
// follows partition read order, not any semantic key: it is dense but
// not semantically meaningful.
func Coalesce(dir string) ([]model.VoteDistribution, error) {
	paths, err := columnar.ListPartitionFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: listing partitions: %w", err)
	}
	sort.Strings(paths)

	var out []model.VoteDistribution
	for _, path := range paths {
		partition, err := columnar.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loader: reading partition %s: %w", path, err)
		}
		out = append(out, partition.Rows()...)
	}

	for i := range out {
		out[i].ID = int64(i + 1)
	}
	NilSentinelParties(out)
	return out, nil
}

// NilSentinelParties maps every row's party_id=model.NoPartyID sentinel
// to nil in place, so the final write treats "no comparator party" as
// SQL NULL rather than a real party key.
func NilSentinelParties(rows []model.VoteDistribution) {
	for i := range rows {
		if rows[i].PartyID != nil && *rows[i].PartyID == model.NoPartyID {
			rows[i].PartyID = nil
		}
	}
}

// WriteConsolidated writes rows to path as the single coalesced
// artifact (conventionally named policy_calc_to_load.parquet) that
// internal/sink streams into the versioned table.
func WriteConsolidated(path string, rows []model.VoteDistribution) error {
	return columnar.WriteFile(path, columnar.FromRows(rows))
}
