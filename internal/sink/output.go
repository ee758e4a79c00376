package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mysociety/policyscore/internal/model"
)

// ListPreviousVoteDistribution reads back the active vote_distribution
// table's (person_id, policy_id, policy_hash) rows, the input the hash-
// diff planner compares its current hashes against.
func (db *DB) ListPreviousVoteDistribution(ctx context.Context) ([]model.VoteDistribution, error) {
	rows, err := db.pool.Query(ctx, `SELECT DISTINCT person_id, policy_id, policy_hash FROM vote_distribution`)
	if err != nil {
		return nil, fmt.Errorf("sink: list previous vote distribution: %w", err)
	}
	defer rows.Close()

	var out []model.VoteDistribution
	for rows.Next() {
		var v model.VoteDistribution
		if err := rows.Scan(&v.PersonID, &v.PolicyID, &v.PolicyHash); err != nil {
			return nil, fmt.Errorf("sink: scan previous vote distribution: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MaterializeVoteDistribution performs the atomic sink swap: rows are
// bulk-loaded into a fresh vote_distribution_vN table,
// which is then swapped for the live vote_distribution name inside one
// transaction (DROP the previous generation, rename the new one over
// it) so readers never observe an empty or partial table. generation
// should be a monotonically increasing run counter (e.g. unix time or a
// sequence); it only needs to be unique across concurrent runs.
func (db *DB) MaterializeVoteDistribution(ctx context.Context, rows []model.VoteDistribution, generation int64) error {
	newTable := fmt.Sprintf("vote_distribution_v%d", generation)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("sink: begin materialize tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE %s (LIKE vote_distribution INCLUDING ALL)`, pgx.Identifier{newTable}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("sink: create %s: %w", newTable, err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{newTable},
		[]string{
			"id", "policy_id", "person_id", "period_id", "chamber_id", "party_id", "is_target",
			"num_strong_votes_same", "num_weak_votes_same",
			"num_strong_votes_different", "num_weak_votes_different",
			"num_strong_votes_absent", "num_weak_votes_absent",
			"num_strong_votes_abstain", "num_weak_votes_abstain",
			"num_strong_agreements_same", "num_weak_agreements_same",
			"num_strong_agreements_different", "num_weak_agreements_different",
			"start_year", "end_year", "distance_score", "policy_hash",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.ID, r.PolicyID, r.PersonID, r.PeriodID, r.ChamberID, r.PartyID, r.IsTarget,
				r.NumStrongVotesSame, r.NumWeakVotesSame,
				r.NumStrongVotesDifferent, r.NumWeakVotesDifferent,
				r.NumStrongVotesAbsent, r.NumWeakVotesAbsent,
				r.NumStrongVotesAbstain, r.NumWeakVotesAbstain,
				r.NumStrongAgreementsSame, r.NumWeakAgreementsSame,
				r.NumStrongAgreementsDifferent, r.NumWeakAgreementsDifferent,
				r.StartYear, r.EndYear, r.DistanceScore, r.PolicyHash,
			}, nil
		}),
	); err != nil {
		return fmt.Errorf("sink: copy into %s: %w", newTable, err)
	}

	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS vote_distribution`); err != nil {
		return fmt.Errorf("sink: drop previous vote_distribution: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		`ALTER TABLE %s RENAME TO vote_distribution`, pgx.Identifier{newTable}.Sanitize(),
	)); err != nil {
		return fmt.Errorf("sink: rename %s to vote_distribution: %w", newTable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("sink: commit materialize: %w", err)
	}

	payload := fmt.Sprintf(`{"generation":%d,"rows":%d,"at":%q}`, generation, len(rows), time.Now().UTC().Format(time.RFC3339))
	if err := db.Notify(ctx, ChannelPolicyMaterialized, payload); err != nil {
		db.logger.Warn("sink: notify after materialize failed", "error", err)
	}

	return nil
}
