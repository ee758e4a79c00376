// Package validate implements the "slow path" cross-check oracle:
// a direct linear scan over loaded model entities that recomputes one
// (person, policy, period)'s vote and agreement counts with no SQL and
// no macros, for testing internal/pipeline's macro-engine results
// against an independently-derived answer.
package validate

import (
	"math"
	"time"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/scoring"
)

// Result holds one (person, policy, period)'s target counts and the
// fractionalized comparator-cohort counts, computed by direct scan.
type Result struct {
	TargetVotesSame, TargetVotesDifferent, TargetVotesAbsent, TargetVotesAbstain                 scoring.Pair
	ComparatorVotesSame, ComparatorVotesDifferent, ComparatorVotesAbsent, ComparatorVotesAbstain scoring.Pair
	AgreementsSame, AgreementsDifferent                                                          scoring.Pair
}

// Compute recomputes personID's target and comparator-cohort counts for
// one (policyID, periodID) pair in chamberID, comparing against party
// partyID, by iterating every division, agreement and membership
// directly rather than staging tables or an engine session.
func Compute(
	personID, chamberID, partyID, policyID, periodID int64,
	divisions []model.Division,
	divisionLinks []model.PolicyDivisionLink,
	agreements []model.Agreement,
	agreementLinks []model.PolicyAgreementLink,
	periods []model.PolicyComparisonPeriod,
	votes []model.Vote,
	memberships []model.Membership,
) Result {
	period := findPeriod(periods, periodID, chamberID)

	divByID := make(map[int64]model.Division, len(divisions))
	for _, d := range divisions {
		divByID[d.ID] = d
	}
	agrByID := make(map[int64]model.Agreement, len(agreements))
	for _, a := range agreements {
		agrByID[a.ID] = a
	}

	var result Result

	for _, link := range divisionLinks {
		if link.PolicyID != policyID || link.Alignment == model.DirectionNeutral {
			continue
		}
		div, ok := divByID[link.DivisionID]
		if !ok || div.ChamberID != chamberID || period == nil || !period.Contains(div.Date) {
			continue
		}
		strong := link.Strength == model.StrengthStrong

		if memberCovering(memberships, personID, chamberID, div.Date) != nil {
			pos := votePosition(votes, link.DivisionID, personID)
			addVoteOutcome(&result.TargetVotesSame, &result.TargetVotesDifferent,
				&result.TargetVotesAbstain, &result.TargetVotesAbsent, strong, link.Alignment, pos, 1)
		}

		var sameCount, differentCount, abstainCount, absentCount float64
		var voters float64
		for _, m := range memberships {
			if m.PersonID == personID || m.ChamberID != chamberID || m.EffectivePartyID != partyID {
				continue
			}
			if !m.Covers(div.Date) {
				continue
			}
			voters++
			pos := votePosition(votes, link.DivisionID, m.PersonID)
			switch outcomeOf(link.Alignment, pos) {
			case outcomeAgreed:
				sameCount++
			case outcomeDisagreed:
				differentCount++
			case outcomeAbstained:
				abstainCount++
			case outcomeAbsent:
				absentCount++
			}
		}
		if voters == 0 {
			continue // zero comparators omits the division
		}
		addFraction(&result.ComparatorVotesSame, strong, sameCount/voters)
		addFraction(&result.ComparatorVotesDifferent, strong, differentCount/voters)
		addFraction(&result.ComparatorVotesAbstain, strong, abstainCount/voters)
		addFraction(&result.ComparatorVotesAbsent, strong, absentCount/voters)
	}

	for _, link := range agreementLinks {
		if link.PolicyID != policyID || link.Alignment == model.DirectionNeutral {
			continue
		}
		agr, ok := agrByID[link.AgreementID]
		if !ok || agr.ChamberID != chamberID || period == nil || !period.Contains(agr.Date) {
			continue
		}
		if memberCovering(memberships, personID, chamberID, agr.Date) == nil {
			continue
		}
		strong := link.Strength == model.StrengthStrong
		if link.Alignment == model.DirectionAgree {
			addFraction(&result.AgreementsSame, strong, 1)
		} else if link.Alignment == model.DirectionAgainst {
			addFraction(&result.AgreementsDifferent, strong, 1)
		}
	}

	return result
}

// CountsClose reports whether two Pair-valued counts agree within an
// absolute tolerance of 0.05.
func CountsClose(a, b scoring.Pair) bool {
	const tol = 0.05
	return math.Abs(a.Weak-b.Weak) <= tol && math.Abs(a.Strong-b.Strong) <= tol
}

type voteOutcome int

const (
	outcomeAgreed voteOutcome = iota
	outcomeDisagreed
	outcomeAbstained
	outcomeAbsent
)

func outcomeOf(alignment model.PolicyDirection, pos model.VotePosition) voteOutcome {
	switch pos.EffectivePosition() {
	case model.PositionAbstain:
		return outcomeAbstained
	case model.PositionAbsent:
		return outcomeAbsent
	case model.PositionAye:
		if alignment == model.DirectionAgree {
			return outcomeAgreed
		}
		return outcomeDisagreed
	case model.PositionNo:
		if alignment == model.DirectionAgree {
			return outcomeDisagreed
		}
		return outcomeAgreed
	default:
		return outcomeAbsent
	}
}

func addVoteOutcome(same, different, abstain, absent *scoring.Pair, strong bool, alignment model.PolicyDirection, pos model.VotePosition, weight float64) {
	switch outcomeOf(alignment, pos) {
	case outcomeAgreed:
		addFraction(same, strong, weight)
	case outcomeDisagreed:
		addFraction(different, strong, weight)
	case outcomeAbstained:
		addFraction(abstain, strong, weight)
	case outcomeAbsent:
		addFraction(absent, strong, weight)
	}
}

func addFraction(p *scoring.Pair, strong bool, v float64) {
	if strong {
		p.Strong += v
	} else {
		p.Weak += v
	}
}

func votePosition(votes []model.Vote, divisionID, personID int64) model.VotePosition {
	for _, v := range votes {
		if v.DivisionID == divisionID && v.PersonID == personID {
			return v.EffectivePosition()
		}
	}
	return model.PositionAbsent
}

func memberCovering(memberships []model.Membership, personID, chamberID int64, date time.Time) *model.Membership {
	for i := range memberships {
		m := &memberships[i]
		if m.PersonID == personID && m.ChamberID == chamberID && m.Covers(date) {
			return m
		}
	}
	return nil
}

func findPeriod(periods []model.PolicyComparisonPeriod, periodID, chamberID int64) *model.PolicyComparisonPeriod {
	for i := range periods {
		if periods[i].ID == periodID && periods[i].ChamberID == chamberID {
			return &periods[i]
		}
	}
	return nil
}
