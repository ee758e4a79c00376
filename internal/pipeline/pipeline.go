// Package pipeline implements the alignment pipeline: it
// turns one person's policy_alignment and agreement_count macro results
// into the pivoted VoteDistribution rows that get scored and written to
// a partition file.
//
// The fractionalization and pivot run in plain Go over the rows
// internal/macro already fetched into memory, rather than as further
// SQL. internal/macro keeps the genuine relational joins (the
// target-membership restriction, the comparator-party filter); this
// package owns the arithmetic.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/mysociety/policyscore/internal/macro"
	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/scoring"
)

// divisionOutcome is one division's contribution to a (policy, period,
// is_target) group, after is_target=0 fractionalization.
type divisionOutcome struct {
	year      int
	strongInt int
	agreed    float64
	disagreed float64
	abstained float64
	absent    float64
}

// bucket accumulates a (policy, period, is_target) group's pivoted
// counts before scoring.
type bucket struct {
	policyID, periodID int64
	isTarget           bool

	same, different, absent, abstain scoring.Pair

	startYear, endYear int
	sawYear            bool
}

func (b *bucket) addDivision(o divisionOutcome) {
	add := func(p *scoring.Pair, weight float64) {
		if o.strongInt == 1 {
			p.Strong += weight
		} else {
			p.Weak += weight
		}
	}
	add(&b.same, o.agreed)
	add(&b.different, o.disagreed)
	add(&b.abstain, o.abstained)
	add(&b.absent, o.absent)

	if !b.sawYear {
		b.startYear, b.endYear = o.year, o.year
		b.sawYear = true
	} else {
		if o.year < b.startYear {
			b.startYear = o.year
		}
		if o.year > b.endYear {
			b.endYear = o.year
		}
	}
}

type groupKey struct {
	policyID, periodID int64
	isTarget           bool
}

type divisionKey struct {
	policyID, periodID, divisionID int64
	isTarget                       bool
}

// Run builds the VoteDistribution rows for one (person, chamber, party)
// triple from its raw alignment and agreement rows. policies must map
// every policy_id referenced in alignment or agreementCounts to its
// Policy record, for strength-meaning dispatch and the policy_hash
// carried into the output.
func Run(
	alignment []macro.AlignmentRow,
	agreementCounts []macro.AgreementCountRow,
	policies map[int64]model.Policy,
	personID, chamberID, partyID int64,
) ([]model.VoteDistribution, error) {
	// Step 1: group policy_alignment rows by division, separating the
	// target's own row from the comparator cohort, and fractionalize
	// the cohort so each division contributes an outcome vector summing
	// to 1 (comparisons_by_policy_vote).
	divisions := make(map[divisionKey]*divisionAccumulator)
	var order []divisionKey
	for _, r := range alignment {
		key := divisionKey{r.PolicyID, r.PeriodID, r.DivisionID, r.IsTarget}
		acc, ok := divisions[key]
		if !ok {
			acc = &divisionAccumulator{strongInt: r.StrongInt, year: r.Date.Year()}
			divisions[key] = acc
			order = append(order, key)
		}
		acc.agreed += float64(r.Agreed)
		acc.disagreed += float64(r.Disagreed)
		acc.abstained += float64(r.Abstained)
		acc.absent += float64(r.Absent)
		acc.voters++
	}

	// Step 2: pivot the (possibly fractionalized) division outcomes into
	// (policy, period, is_target) buckets (comparisons_by_policy_vote_pivot).
	buckets := make(map[groupKey]*bucket)
	var groupOrder []groupKey
	for _, key := range order {
		acc := divisions[key]
		if acc.voters == 0 {
			// Zero comparators for this division omits it entirely
			// rather than dividing by zero.
			continue
		}

		outcome := divisionOutcome{year: acc.year, strongInt: acc.strongInt}
		if key.isTarget {
			// The target's own row is already 0/1; no normalization.
			outcome.agreed, outcome.disagreed = acc.agreed, acc.disagreed
			outcome.abstained, outcome.absent = acc.abstained, acc.absent
		} else {
			n := float64(acc.voters)
			outcome.agreed = acc.agreed / n
			outcome.disagreed = acc.disagreed / n
			outcome.abstained = acc.abstained / n
			outcome.absent = acc.absent / n
		}

		gk := groupKey{key.policyID, key.periodID, key.isTarget}
		b, ok := buckets[gk]
		if !ok {
			b = &bucket{policyID: gk.policyID, periodID: gk.periodID, isTarget: gk.isTarget}
			buckets[gk] = b
			groupOrder = append(groupOrder, gk)
		}
		b.addDivision(outcome)
	}

	// Step 3: join agreement_count onto the is_target=1 row of each
	// (policy, period) pair. Agreement counts carry no is_target
	// dimension of their own; when a (policy, period) pair has
	// agreement data but no vote pivot row at all, the full outer join
	// coalesces is_target to 0 for the synthesized row.
	type agreementTotals struct {
		same, different scoring.Pair
	}
	agreementByPolicyPeriod := make(map[[2]int64]agreementTotals)
	for _, a := range agreementCounts {
		k := [2]int64{a.PolicyID, a.PeriodID}
		agreementByPolicyPeriod[k] = agreementTotals{
			same:      scoring.Pair{Weak: a.NumWeakAgreementsSame, Strong: a.NumStrongAgreementsSame},
			different: scoring.Pair{Weak: a.NumWeakAgreementsDifferent, Strong: a.NumStrongAgreementsDifferent},
		}
	}

	targetAgreements := make(map[[2]int64]agreementTotals)
	for gk := range buckets {
		if !gk.isTarget {
			continue
		}
		if tot, ok := agreementByPolicyPeriod[[2]int64{gk.policyID, gk.periodID}]; ok {
			targetAgreements[[2]int64{gk.policyID, gk.periodID}] = tot
		}
	}

	var out []model.VoteDistribution
	for _, gk := range groupOrder {
		b := buckets[gk]
		row, err := toVoteDistribution(b, policies, personID, chamberID, partyID)
		if err != nil {
			return nil, err
		}
		if gk.isTarget {
			if ag, ok := targetAgreements[[2]int64{gk.policyID, gk.periodID}]; ok {
				row.NumWeakAgreementsSame = ag.same.Weak
				row.NumStrongAgreementsSame = ag.same.Strong
				row.NumWeakAgreementsDifferent = ag.different.Weak
				row.NumStrongAgreementsDifferent = ag.different.Strong
				if err := score(&row, policies); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, row)
	}

	// Policy/period pairs present only in agreement_count (no vote
	// pivot row at all) still need to surface; the full outer join
	// coalesces is_target to 0 for these synthesized rows.
	for k, tot := range agreementByPolicyPeriod {
		policyID, periodID := k[0], k[1]
		if _, ok := buckets[groupKey{policyID, periodID, true}]; ok {
			continue
		}
		if _, ok := buckets[groupKey{policyID, periodID, false}]; ok {
			continue
		}
		b := &bucket{policyID: policyID, periodID: periodID, isTarget: false}
		row, err := toVoteDistribution(b, policies, personID, chamberID, partyID)
		if err != nil {
			return nil, err
		}
		row.NumWeakAgreementsSame = tot.same.Weak
		row.NumStrongAgreementsSame = tot.same.Strong
		row.NumWeakAgreementsDifferent = tot.different.Weak
		row.NumStrongAgreementsDifferent = tot.different.Strong
		if err := score(&row, policies); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	// Rows are produced in (period, is_target, policy) order within one
	// invocation; consumers may not rely on cross-invocation order.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PeriodID != b.PeriodID {
			return a.PeriodID < b.PeriodID
		}
		if a.IsTarget != b.IsTarget {
			return !a.IsTarget
		}
		return a.PolicyID < b.PolicyID
	})

	return out, nil
}

// divisionAccumulator sums raw policy_alignment outcomes for one
// division before fractionalization.
type divisionAccumulator struct {
	strongInt int
	year      int
	agreed    float64
	disagreed float64
	abstained float64
	absent    float64
	voters    int
}

func toVoteDistribution(
	b *bucket,
	policies map[int64]model.Policy,
	personID, chamberID, partyID int64,
) (model.VoteDistribution, error) {
	policy, ok := policies[b.policyID]
	if !ok {
		return model.VoteDistribution{}, fmt.Errorf("pipeline: no policy record for policy_id %d", b.policyID)
	}

	party := partyID
	row := model.VoteDistribution{
		PolicyID:  b.policyID,
		PersonID:  personID,
		PeriodID:  b.periodID,
		ChamberID: chamberID,
		PartyID:   &party,
		IsTarget:  b.isTarget,

		NumWeakVotesSame:        b.same.Weak,
		NumStrongVotesSame:      b.same.Strong,
		NumWeakVotesDifferent:   b.different.Weak,
		NumStrongVotesDifferent: b.different.Strong,
		NumWeakVotesAbsent:      b.absent.Weak,
		NumStrongVotesAbsent:    b.absent.Strong,
		NumWeakVotesAbstain:     b.abstain.Weak,
		NumStrongVotesAbstain:   b.abstain.Strong,

		StartYear:  b.startYear,
		EndYear:    b.endYear,
		PolicyHash: policy.PolicyHash,
	}
	if err := score(&row, policies); err != nil {
		return model.VoteDistribution{}, err
	}
	return row, nil
}

// score (re-)computes DistanceScore from row's current count buckets.
// Called once in toVoteDistribution and again after agreement counts
// are joined onto a target row, since the kernel input changes.
func score(row *model.VoteDistribution, policies map[int64]model.Policy) error {
	policy, ok := policies[row.PolicyID]
	if !ok {
		return fmt.Errorf("pipeline: no policy record for policy_id %d", row.PolicyID)
	}
	in := scoring.Input{
		VotesSame:           scoring.Pair{Weak: row.NumWeakVotesSame, Strong: row.NumStrongVotesSame},
		VotesDifferent:      scoring.Pair{Weak: row.NumWeakVotesDifferent, Strong: row.NumStrongVotesDifferent},
		VotesAbsent:         scoring.Pair{Weak: row.NumWeakVotesAbsent, Strong: row.NumStrongVotesAbsent},
		VotesAbstain:        scoring.Pair{Weak: row.NumWeakVotesAbstain, Strong: row.NumStrongVotesAbstain},
		AgreementsSame:      scoring.Pair{Weak: row.NumWeakAgreementsSame, Strong: row.NumStrongAgreementsSame},
		AgreementsDifferent: scoring.Pair{Weak: row.NumWeakAgreementsDifferent, Strong: row.NumStrongAgreementsDifferent},
	}
	result, err := scoring.Score(scoring.Meaning(policy.StrengthMeaning), in)
	if err != nil {
		return fmt.Errorf("pipeline: scoring policy %d: %w", row.PolicyID, err)
	}
	row.DistanceScore = result
	return nil
}
