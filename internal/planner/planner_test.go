package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/staging"
)

func TestPlan_RecomputesOnMissingOrChangedHash(t *testing.T) {
	relevant := []staging.RelevantPersonPolicyPeriod{
		{PersonID: 1, PolicyID: 10, ChamberID: 1, PartyID: 5, PeriodID: 1},
		{PersonID: 2, PolicyID: 10, ChamberID: 1, PartyID: 5, PeriodID: 1},
		{PersonID: 3, PolicyID: 11, ChamberID: 1, PartyID: 5, PeriodID: 1},
	}
	policies := map[int64]model.Policy{
		10: {ID: 10, PolicyHash: "aaaa1111"},
		11: {ID: 11, PolicyHash: "bbbb2222"},
	}
	previous := map[PersonPolicyKey]string{
		{PersonID: 1, PolicyID: 10}: "aaaa1111",  // unchanged
		{PersonID: 2, PolicyID: 10}: "stale0000", // changed
		// person 3 / policy 11 missing entirely
	}

	result := Plan(relevant, policies, previous)
	assert.Equal(t, []int64{2, 3}, result)
}

func TestPlan_IdempotentAfterFullMaterialization(t *testing.T) {
	relevant := []staging.RelevantPersonPolicyPeriod{
		{PersonID: 1, PolicyID: 10, ChamberID: 1, PartyID: 5, PeriodID: 1},
	}
	policies := map[int64]model.Policy{10: {ID: 10, PolicyHash: "aaaa1111"}}

	materialized := []model.VoteDistribution{
		{PersonID: 1, PolicyID: 10, PolicyHash: "aaaa1111", IsTarget: true},
		{PersonID: 1, PolicyID: 10, PolicyHash: "aaaa1111", IsTarget: false},
	}
	previous := BuildPreviousHashes(materialized)

	result := Plan(relevant, policies, previous)
	assert.Empty(t, result, "running the planner immediately after a full materialization must yield the empty set")
}

func TestPlan_DeduplicatesAcrossMultiplePolicies(t *testing.T) {
	relevant := []staging.RelevantPersonPolicyPeriod{
		{PersonID: 1, PolicyID: 10, ChamberID: 1, PartyID: 5, PeriodID: 1},
		{PersonID: 1, PolicyID: 11, ChamberID: 1, PartyID: 5, PeriodID: 1},
	}
	policies := map[int64]model.Policy{
		10: {ID: 10, PolicyHash: "aaaa1111"},
		11: {ID: 11, PolicyHash: "bbbb2222"},
	}
	result := Plan(relevant, policies, map[PersonPolicyKey]string{})
	assert.Equal(t, []int64{1}, result)
}
