package main

import (
	"context"
	"fmt"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/sink"
	"github.com/mysociety/policyscore/internal/staging"
	"github.com/mysociety/policyscore/internal/writer"
)

// universe is every precomputed relation and lookup table one driver
// invocation needs, assembled once from internal/sink's input tables and
// shared read-only across planning and writing.
type universe struct {
	policies map[int64]model.Policy
	relevant []staging.RelevantPersonPolicyPeriod
	staging  writer.StagingData
}

// loadUniverse reads every input table from db and builds the staging
// relations (internal/staging) the planner and writer both need.
func loadUniverse(ctx context.Context, db *sink.DB) (universe, error) {
	memberships, err := db.ListMemberships(ctx)
	if err != nil {
		return universe{}, err
	}
	divisions, err := db.ListDivisions(ctx)
	if err != nil {
		return universe{}, err
	}
	agreements, err := db.ListAgreements(ctx)
	if err != nil {
		return universe{}, err
	}
	votes, err := db.ListVotes(ctx)
	if err != nil {
		return universe{}, err
	}
	periods, err := db.ListPolicyComparisonPeriods(ctx)
	if err != nil {
		return universe{}, err
	}
	policyList, err := db.ListPolicies(ctx)
	if err != nil {
		return universe{}, err
	}
	divisionLinks, err := db.ListPolicyDivisionLinks(ctx)
	if err != nil {
		return universe{}, err
	}
	agreementLinks, err := db.ListPolicyAgreementLinks(ctx)
	if err != nil {
		return universe{}, err
	}

	policies := make(map[int64]model.Policy, len(policyList))
	for _, p := range policyList {
		policies[p.ID] = p
	}

	divisionRows := staging.BuildPolicyDivisionsRelevant(divisions, divisionLinks, periods)
	agreementRows := staging.BuildPolicyAgreementsRelevant(agreements, agreementLinks, periods)
	voteRows := staging.BuildVotesRelevant(votes, divisionRows, memberships)
	collectiveRows := staging.BuildCollectiveRelevant(agreementRows, agreements, memberships)
	relevant := staging.BuildRelevantPersonPolicyPeriod(divisionRows, voteRows, agreementRows, collectiveRows)

	return universe{
		policies: policies,
		relevant: relevant,
		staging: writer.StagingData{
			Memberships: memberships,
			Divisions:   divisionRows,
			Agreements:  agreementRows,
			Votes:       voteRows,
			Collective:  collectiveRows,
		},
	}, nil
}

// tasksForPersons returns the distinct (person, chamber, party) triples
// from u.relevant restricted to personIDs. A nil personIDs set means
// "every relevant person" (a full recompute).
func tasksForPersons(u universe, personIDs map[int64]bool) []writer.Task {
	seen := make(map[writer.Task]bool)
	var out []writer.Task
	for _, r := range u.relevant {
		if personIDs != nil && !personIDs[r.PersonID] {
			continue
		}
		t := writer.Task{PersonID: r.PersonID, ChamberID: r.ChamberID, PartyID: r.PartyID}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func toSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// filterRelevantByPolicies restricts u.relevant to rows touching one of
// policyIDs, the same "select which people are included, not which
// policies get recomputed for them" semantics generate_policy_distributions
// uses for its own --policy-ids flag.
func filterRelevantByPolicies(relevant []staging.RelevantPersonPolicyPeriod, policyIDs map[int64]bool) []staging.RelevantPersonPolicyPeriod {
	if policyIDs == nil {
		return relevant
	}
	var out []staging.RelevantPersonPolicyPeriod
	for _, r := range relevant {
		if policyIDs[r.PolicyID] {
			out = append(out, r)
		}
	}
	return out
}

func validatePolicyIDs(policies map[int64]model.Policy, policyIDs []int64) error {
	for _, id := range policyIDs {
		if _, ok := policies[id]; !ok {
			return fmt.Errorf("policy id %d not found", id)
		}
	}
	return nil
}
