package model

import "time"

// Person is the identity key for a representative.
type Person struct {
	ID   int64
	Name string
}

// Chamber is a legislative chamber.
type Chamber struct {
	ID   int64
	Slug ChamberSlug
}

// Party is a political organization (Organization in upstream terms).
type Party struct {
	ID   int64
	Slug string
}

// Membership records a person's tenure in a chamber under a party.
// EffectivePartyID collapses label variants (e.g. joint party labels)
// to one canonical party id; memberships in the same chamber must not
// overlap after collapsing by effective party.
type Membership struct {
	ID               int64
	PersonID         int64
	ChamberID        int64
	PartyID          int64
	EffectivePartyID int64
	StartDate        time.Time
	EndDate          time.Time // sentinel 9999-12-31 for open-ended memberships
}

// Covers reports whether the membership's interval contains date.
func (m Membership) Covers(date time.Time) bool {
	return !date.Before(m.StartDate) && !date.After(m.EndDate)
}

// Division is a recorded vote.
type Division struct {
	ID             int64
	Key            string // stable slug, e.g. "pw-2020-01-01-123-commons"
	ChamberID      int64
	Date           time.Time
	DivisionNumber int
	MotionID       *int64
}

// Agreement is a non-voted decision where presence counts.
type Agreement struct {
	ID          int64
	Key         string // e.g. "a-commons-2020-01-01-123"
	ChamberID   int64
	Date        time.Time
	DecisionRef string
	MotionID    *int64
}

// Vote is one person's recorded stance on one division.
// Invariant: exactly one row per (DivisionID, PersonID) for people who
// were members on the division's date; non-attending members appear
// with Position = PositionAbsent.
type Vote struct {
	DivisionID   int64
	PersonID     int64
	MembershipID int64
	Position     VotePosition
}

// EffectivePosition folds tellers into their side.
func (v Vote) EffectivePosition() VotePosition {
	return v.Position.EffectivePosition()
}

// PolicyComparisonPeriod is a closed date interval scoping a run.
type PolicyComparisonPeriod struct {
	ID        int64
	Slug      string
	ChamberID int64
	StartDate time.Time
	EndDate   time.Time
}

// Contains reports whether date falls within the closed interval.
func (p PolicyComparisonPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// Policy is a curated set of decision links with a deterministic hash
// over its own definition (see internal/hashkey).
type Policy struct {
	ID              int64
	ChamberID       int64
	Status          PolicyStatus
	StrengthMeaning StrengthMeaning
	PolicyHash      string
}

// PolicyDivisionLink ties a policy to a division with a direction and
// a strength tier.
type PolicyDivisionLink struct {
	PolicyID   int64
	DivisionID int64
	Alignment  PolicyDirection
	Strength   PolicyStrength
}

// PolicyAgreementLink ties a policy to an agreement.
type PolicyAgreementLink struct {
	PolicyID    int64
	AgreementID int64
	Alignment   PolicyDirection
	Strength    PolicyStrength
}

// VoteDistribution is the core's output row: one per (policy, person,
// period, chamber, party, is_target). For a given (policy, person,
// period, chamber, party) there is at most one row with IsTarget=true
// and at most one with IsTarget=false.
type VoteDistribution struct {
	ID        int64 // assigned by the coalescer; zero until loaded
	PolicyID  int64
	PersonID  int64
	PeriodID  int64
	ChamberID int64
	PartyID   *int64 // nil when upstream sentinel was NoPartyID
	IsTarget  bool

	NumStrongVotesSame      float64
	NumWeakVotesSame        float64
	NumStrongVotesDifferent float64
	NumWeakVotesDifferent   float64
	NumStrongVotesAbsent    float64
	NumWeakVotesAbsent      float64
	NumStrongVotesAbstain   float64
	NumWeakVotesAbstain     float64

	NumStrongAgreementsSame      float64
	NumWeakAgreementsSame        float64
	NumStrongAgreementsDifferent float64
	NumWeakAgreementsDifferent   float64

	StartYear     int
	EndYear       int
	DistanceScore float64
	PolicyHash    string
}

// TotalVotes sums every vote-count bucket.
func (v VoteDistribution) TotalVotes() float64 {
	return v.NumStrongVotesSame + v.NumWeakVotesSame +
		v.NumStrongVotesDifferent + v.NumWeakVotesDifferent +
		v.NumStrongVotesAbsent + v.NumWeakVotesAbsent +
		v.NumStrongVotesAbstain + v.NumWeakVotesAbstain
}
