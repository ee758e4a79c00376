// Package model defines the parliamentary entities the alignment pipeline
// reads and writes: people, chambers, parties, memberships, decisions
// (divisions and agreements), policies and their decision links, and the
// VoteDistribution output row.
package model

import "fmt"

// ChamberSlug identifies a legislative chamber.
type ChamberSlug string

const (
	ChamberCommons  ChamberSlug = "commons"
	ChamberLords    ChamberSlug = "lords"
	ChamberScotland ChamberSlug = "scotland"
	ChamberSenedd   ChamberSlug = "senedd"
	ChamberNI       ChamberSlug = "ni"
)

// IsValid reports whether the slug is one of the known chambers.
func (c ChamberSlug) IsValid() bool {
	switch c {
	case ChamberCommons, ChamberLords, ChamberScotland, ChamberSenedd, ChamberNI:
		return true
	default:
		return false
	}
}

// ChamberFromParlparse maps an upstream parlparse-style chamber label
// to a ChamberSlug.
func ChamberFromParlparse(label string) (ChamberSlug, error) {
	switch label {
	case "house-of-commons":
		return ChamberCommons, nil
	case "house-of-lords":
		return ChamberLords, nil
	case "scottish-parliament":
		return ChamberScotland, nil
	case "senedd":
		return ChamberSenedd, nil
	case "northern-ireland-assembly":
		return ChamberNI, nil
	default:
		return "", fmt.Errorf("model: unknown parlparse chamber label %q", label)
	}
}

// PolicyStatus is the lifecycle state of a Policy.
type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusCandidate PolicyStatus = "candidate"
	PolicyStatusDraft     PolicyStatus = "draft"
	PolicyStatusRejected  PolicyStatus = "rejected"
	PolicyStatusRetired   PolicyStatus = "retired"
)

// StrengthMeaning selects the scoring function a policy uses.
// Only Simplified is in scope; Classic is retained as a named value
// because it appears in upstream data, but the scoring kernel rejects it.
type StrengthMeaning string

const (
	StrengthMeaningClassic    StrengthMeaning = "classic"
	StrengthMeaningSimplified StrengthMeaning = "simplified"
)

// PolicyDirection is the relation of a decision to a policy.
type PolicyDirection string

const (
	DirectionAgree   PolicyDirection = "agree"
	DirectionAgainst PolicyDirection = "against"
	DirectionNeutral PolicyDirection = "neutral"
)

// PolicyStrength marks whether a link contributes to the score.
type PolicyStrength string

const (
	StrengthWeak   PolicyStrength = "weak"
	StrengthStrong PolicyStrength = "strong"
)

// VotePosition is a voter's recorded stance on a division.
type VotePosition string

const (
	PositionAye        VotePosition = "aye"
	PositionNo         VotePosition = "no"
	PositionAbstain    VotePosition = "abstain"
	PositionAbsent     VotePosition = "absent"
	PositionTellAye    VotePosition = "tellaye"
	PositionTellNo     VotePosition = "tellno"
	PositionCollective VotePosition = "collective"
)

// EffectivePosition folds tellers into the side they tell for.
func (p VotePosition) EffectivePosition() VotePosition {
	switch p {
	case PositionTellAye:
		return PositionAye
	case PositionTellNo:
		return PositionNo
	default:
		return p
	}
}

// VoteInt returns the effective_vote_int encoding used by the votes
// staging table: -1 for No, 1 for Aye, 0 otherwise.
func (p VotePosition) VoteInt() int {
	switch p.EffectivePosition() {
	case PositionAye:
		return 1
	case PositionNo:
		return -1
	default:
		return 0
	}
}

// AbstainInt reports the abstain_int encoding: 1 iff the effective
// position is Abstain.
func (p VotePosition) AbstainInt() int {
	if p.EffectivePosition() == PositionAbstain {
		return 1
	}
	return 0
}

// AbsentInt reports the absent_int encoding: 1 iff the effective
// position is Absent.
func (p VotePosition) AbsentInt() int {
	if p.EffectivePosition() == PositionAbsent {
		return 1
	}
	return 0
}

// NoPartyID is the sentinel party_id meaning "no comparator party".
// It is mapped back to SQL NULL by the coalescer and must
// never be used as a legitimate party key.
const NoPartyID = 0

// HardCutoffDate is the date before which policy decision links are
// excluded at the ingestion layer (2010-01-01).
const HardCutoffDate = "2010-01-01"
