// Package staging builds the precomputed relations consumed by the
// alignment pipeline: divisions and agreements restricted
// to the ones referenced by policy links, votes restricted to those
// divisions, a person/agreement presence table, and the person/chamber/
// party/policy/period universe the core must consider.
//
// The inputs are already-loaded Go slices (read from internal/sink),
// so the joins are expressed as plain indexed loops rather than SQL;
// the staging layer sits upstream of internal/macro's SQL session.
package staging

import (
	"time"

	"github.com/mysociety/policyscore/internal/model"
)

// PolicyDivisionRow is one row of policy_divisions_relevant: a division
// joined to the policy link and comparison period it falls in.
type PolicyDivisionRow struct {
	PolicyID   int64
	PeriodID   int64
	DivisionID int64
	ChamberID  int64
	Date       time.Time // carried through so the macro layer can apply the
	// target-membership-span join predicate
	Alignment model.PolicyDirection
	StrongInt int // 1 iff the link strength is Strong
	AgreeInt  int // 1 iff Alignment == Agree
}

// PolicyAgreementRow is the agreement analogue of PolicyDivisionRow.
type PolicyAgreementRow struct {
	PolicyID    int64
	PeriodID    int64
	AgreementID int64
	ChamberID   int64
	Date        time.Time
	Alignment   model.PolicyDirection
	StrongInt   int
	AgreeInt    int
}

// VoteRow is a vote restricted to a division present in
// PolicyDivisionRow, annotated with the voter's effective party at the
// time of the vote.
type VoteRow struct {
	DivisionID       int64
	PersonID         int64
	MembershipID     int64
	Position         model.VotePosition
	EffectivePartyID int64
	ChamberID        int64
}

// CollectiveRow is one row of policy_collective_relevant: a person who
// held a membership in the agreement's chamber covering the agreement's
// date, i.e. "was a member" for presence-counting purposes.
type CollectiveRow struct {
	AgreementID      int64
	PersonID         int64
	ChamberID        int64
	EffectivePartyID int64
}

// RelevantPersonPolicyPeriod is one row of the universe of
// (person, chamber, party, policy, period) tuples the core considers.
type RelevantPersonPolicyPeriod struct {
	PersonID  int64
	ChamberID int64
	PartyID   int64
	PolicyID  int64
	PeriodID  int64
}

func strongInt(s model.PolicyStrength) int {
	if s == model.StrengthStrong {
		return 1
	}
	return 0
}

func agreeInt(d model.PolicyDirection) int {
	if d == model.DirectionAgree {
		return 1
	}
	return 0
}

// BuildPolicyDivisionsRelevant joins divisions to policy_division_links
// and the comparison period the division's date falls in. A division
// whose date falls in no comparison period for its chamber is dropped.
func BuildPolicyDivisionsRelevant(
	divisions []model.Division,
	links []model.PolicyDivisionLink,
	periods []model.PolicyComparisonPeriod,
) []PolicyDivisionRow {
	divByID := make(map[int64]model.Division, len(divisions))
	for _, d := range divisions {
		divByID[d.ID] = d
	}

	var out []PolicyDivisionRow
	for _, link := range links {
		if link.Alignment == model.DirectionNeutral {
			// Neutral links mark a decision as considered, not scored;
			// agree_int's binary encoding has no slot for them.
			continue
		}
		div, ok := divByID[link.DivisionID]
		if !ok {
			continue
		}
		for _, period := range periods {
			if period.ChamberID != div.ChamberID {
				continue
			}
			if !period.Contains(div.Date) {
				continue
			}
			out = append(out, PolicyDivisionRow{
				PolicyID:   link.PolicyID,
				PeriodID:   period.ID,
				DivisionID: div.ID,
				ChamberID:  div.ChamberID,
				Date:       div.Date,
				Alignment:  link.Alignment,
				StrongInt:  strongInt(link.Strength),
				AgreeInt:   agreeInt(link.Alignment),
			})
		}
	}
	return out
}

// BuildPolicyAgreementsRelevant is the agreement analogue of
// BuildPolicyDivisionsRelevant.
func BuildPolicyAgreementsRelevant(
	agreements []model.Agreement,
	links []model.PolicyAgreementLink,
	periods []model.PolicyComparisonPeriod,
) []PolicyAgreementRow {
	agrByID := make(map[int64]model.Agreement, len(agreements))
	for _, a := range agreements {
		agrByID[a.ID] = a
	}

	var out []PolicyAgreementRow
	for _, link := range links {
		if link.Alignment == model.DirectionNeutral {
			continue
		}
		agr, ok := agrByID[link.AgreementID]
		if !ok {
			continue
		}
		for _, period := range periods {
			if period.ChamberID != agr.ChamberID {
				continue
			}
			if !period.Contains(agr.Date) {
				continue
			}
			out = append(out, PolicyAgreementRow{
				PolicyID:    link.PolicyID,
				PeriodID:    period.ID,
				AgreementID: agr.ID,
				ChamberID:   agr.ChamberID,
				Date:        agr.Date,
				Alignment:   link.Alignment,
				StrongInt:   strongInt(link.Strength),
				AgreeInt:    agreeInt(link.Alignment),
			})
		}
	}
	return out
}

// BuildVotesRelevant restricts votes to divisions present in
// divisionRows and attaches each vote's effective party at the time,
// looked up via its membership.
func BuildVotesRelevant(
	votes []model.Vote,
	divisionRows []PolicyDivisionRow,
	memberships []model.Membership,
) []VoteRow {
	relevantDivisions := make(map[int64]bool, len(divisionRows))
	for _, r := range divisionRows {
		relevantDivisions[r.DivisionID] = true
	}

	membByID := make(map[int64]model.Membership, len(memberships))
	for _, m := range memberships {
		membByID[m.ID] = m
	}

	var out []VoteRow
	for _, v := range votes {
		if !relevantDivisions[v.DivisionID] {
			continue
		}
		memb, ok := membByID[v.MembershipID]
		if !ok {
			continue
		}
		out = append(out, VoteRow{
			DivisionID:       v.DivisionID,
			PersonID:         v.PersonID,
			MembershipID:     v.MembershipID,
			Position:         v.EffectivePosition(),
			EffectivePartyID: memb.EffectivePartyID,
			ChamberID:        memb.ChamberID,
		})
	}
	return out
}

// BuildCollectiveRelevant returns one row per (person, agreement) for
// every membership covering the agreement's date in the agreement's
// chamber — "person was a member" for presence-counting.
func BuildCollectiveRelevant(
	agreementRows []PolicyAgreementRow,
	agreements []model.Agreement,
	memberships []model.Membership,
) []CollectiveRow {
	agrByID := make(map[int64]model.Agreement, len(agreements))
	for _, a := range agreements {
		agrByID[a.ID] = a
	}

	seenAgreements := make(map[int64]bool)
	var relevantAgreementIDs []int64
	for _, r := range agreementRows {
		if !seenAgreements[r.AgreementID] {
			seenAgreements[r.AgreementID] = true
			relevantAgreementIDs = append(relevantAgreementIDs, r.AgreementID)
		}
	}

	var out []CollectiveRow
	for _, agrID := range relevantAgreementIDs {
		agr, ok := agrByID[agrID]
		if !ok {
			continue
		}
		for _, m := range memberships {
			if m.ChamberID != agr.ChamberID {
				continue
			}
			if !m.Covers(agr.Date) {
				continue
			}
			out = append(out, CollectiveRow{
				AgreementID:      agrID,
				PersonID:         m.PersonID,
				ChamberID:        m.ChamberID,
				EffectivePartyID: m.EffectivePartyID,
			})
		}
	}
	return out
}

// BuildRelevantPersonPolicyPeriod unions the people found via votes
// and via collective presence into the universe of
// (person, chamber, party, policy, period) tuples the core must
// consider.
func BuildRelevantPersonPolicyPeriod(
	divisionRows []PolicyDivisionRow,
	voteRows []VoteRow,
	agreementRows []PolicyAgreementRow,
	collectiveRows []CollectiveRow,
) []RelevantPersonPolicyPeriod {
	divisionByID := make(map[int64][]PolicyDivisionRow, len(divisionRows))
	for _, r := range divisionRows {
		divisionByID[r.DivisionID] = append(divisionByID[r.DivisionID], r)
	}
	agreementByID := make(map[int64][]PolicyAgreementRow, len(agreementRows))
	for _, r := range agreementRows {
		agreementByID[r.AgreementID] = append(agreementByID[r.AgreementID], r)
	}

	seen := make(map[RelevantPersonPolicyPeriod]bool)
	var out []RelevantPersonPolicyPeriod

	add := func(row RelevantPersonPolicyPeriod) {
		if !seen[row] {
			seen[row] = true
			out = append(out, row)
		}
	}

	for _, v := range voteRows {
		for _, div := range divisionByID[v.DivisionID] {
			add(RelevantPersonPolicyPeriod{
				PersonID:  v.PersonID,
				ChamberID: v.ChamberID,
				PartyID:   v.EffectivePartyID,
				PolicyID:  div.PolicyID,
				PeriodID:  div.PeriodID,
			})
		}
	}

	for _, c := range collectiveRows {
		for _, agr := range agreementByID[c.AgreementID] {
			add(RelevantPersonPolicyPeriod{
				PersonID:  c.PersonID,
				ChamberID: c.ChamberID,
				PartyID:   c.EffectivePartyID,
				PolicyID:  agr.PolicyID,
				PeriodID:  agr.PeriodID,
			})
		}
	}

	return out
}
