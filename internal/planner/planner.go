// Package planner implements the hash-diff planner: it
// compares each relevant (person, policy) pair's current policy_hash
// against the hash recorded for that pair in the last materialized
// vote_distribution, and emits the set of person_ids needing
// recomputation.
package planner

import (
	"sort"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/staging"
)

// PersonPolicyKey identifies one (person, policy) pair in the relevance
// and hash tables.
type PersonPolicyKey struct {
	PersonID int64
	PolicyID int64
}

// BuildPreviousHashes indexes a person's previously materialized
// VoteDistribution rows (read back from the vote_distribution table by
// sink.ListPreviousVoteDistribution before planning) by
// (person_id, policy_id) -> policy_hash. Rows for
// the same (person, policy) are expected to agree on policy_hash; the
// last one wins if they don't.
func BuildPreviousHashes(rows []model.VoteDistribution) map[PersonPolicyKey]string {
	out := make(map[PersonPolicyKey]string, len(rows))
	for _, r := range rows {
		out[PersonPolicyKey{PersonID: r.PersonID, PolicyID: r.PolicyID}] = r.PolicyHash
	}
	return out
}

// Plan returns the sorted, deduplicated set of person_ids whose
// materialized policy_hash for at least one relevant policy differs
// from the policy's current hash, or is missing entirely. relevant
// restricts the (person, policy) cartesian product to pairs with at
// least one vote or agreement touching that policy.
func Plan(
	relevant []staging.RelevantPersonPolicyPeriod,
	policies map[int64]model.Policy,
	previous map[PersonPolicyKey]string,
) []int64 {
	seenPairs := make(map[PersonPolicyKey]bool)
	needsRecompute := make(map[int64]bool)

	for _, r := range relevant {
		key := PersonPolicyKey{PersonID: r.PersonID, PolicyID: r.PolicyID}
		if seenPairs[key] {
			continue
		}
		seenPairs[key] = true

		policy, ok := policies[r.PolicyID]
		if !ok {
			continue
		}
		priorHash, ok := previous[key]
		if !ok || priorHash != policy.PolicyHash {
			needsRecompute[r.PersonID] = true
		}
	}

	out := make([]int64, 0, len(needsRecompute))
	for personID := range needsRecompute {
		out = append(out, personID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
