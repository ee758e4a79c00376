package staging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysociety/policyscore/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildPolicyDivisionsRelevant_DropsDivisionsOutsideAnyPeriod(t *testing.T) {
	divisions := []model.Division{
		{ID: 1, ChamberID: 1, Date: date("2020-01-01")},
		{ID: 2, ChamberID: 1, Date: date("2025-01-01")}, // outside the only period
	}
	links := []model.PolicyDivisionLink{
		{PolicyID: 1, DivisionID: 1, Alignment: model.DirectionAgree, Strength: model.StrengthStrong},
		{PolicyID: 1, DivisionID: 2, Alignment: model.DirectionAgree, Strength: model.StrengthStrong},
	}
	periods := []model.PolicyComparisonPeriod{
		{ID: 1, ChamberID: 1, StartDate: date("2019-01-01"), EndDate: date("2021-01-01")},
	}

	rows := BuildPolicyDivisionsRelevant(divisions, links, periods)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].DivisionID)
	assert.Equal(t, 1, rows[0].StrongInt)
	assert.Equal(t, 1, rows[0].AgreeInt)
}

func TestBuildVotesRelevant_RestrictsToRelevantDivisions(t *testing.T) {
	divisionRows := []PolicyDivisionRow{{DivisionID: 1, PolicyID: 1, PeriodID: 1, ChamberID: 1}}
	memberships := []model.Membership{
		{ID: 100, PersonID: 10, ChamberID: 1, EffectivePartyID: 5, StartDate: date("2019-01-01"), EndDate: date("2021-01-01")},
	}
	votes := []model.Vote{
		{DivisionID: 1, PersonID: 10, MembershipID: 100, Position: model.PositionAye},
		{DivisionID: 2, PersonID: 10, MembershipID: 100, Position: model.PositionNo}, // irrelevant division
	}

	rows := BuildVotesRelevant(votes, divisionRows, memberships)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].DivisionID)
	assert.Equal(t, int64(5), rows[0].EffectivePartyID)
}

func TestBuildCollectiveRelevant_OnlyCoveringMemberships(t *testing.T) {
	agreements := []model.Agreement{{ID: 1, ChamberID: 1, Date: date("2020-06-01")}}
	agreementRows := []PolicyAgreementRow{{AgreementID: 1, PolicyID: 1, PeriodID: 1, ChamberID: 1}}
	memberships := []model.Membership{
		{ID: 1, PersonID: 1, ChamberID: 1, EffectivePartyID: 5, StartDate: date("2019-01-01"), EndDate: date("2021-01-01")},
		{ID: 2, PersonID: 2, ChamberID: 1, EffectivePartyID: 5, StartDate: date("2021-01-01"), EndDate: date("2022-01-01")}, // doesn't cover
	}

	rows := BuildCollectiveRelevant(agreementRows, agreements, memberships)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].PersonID)
}

func TestBuildRelevantPersonPolicyPeriod_UnionsVotesAndCollective(t *testing.T) {
	divisionRows := []PolicyDivisionRow{{DivisionID: 1, PolicyID: 1, PeriodID: 1, ChamberID: 1}}
	voteRows := []VoteRow{{DivisionID: 1, PersonID: 10, ChamberID: 1, EffectivePartyID: 5}}
	agreementRows := []PolicyAgreementRow{{AgreementID: 1, PolicyID: 2, PeriodID: 1, ChamberID: 1}}
	collectiveRows := []CollectiveRow{{AgreementID: 1, PersonID: 20, ChamberID: 1, EffectivePartyID: 6}}

	rows := BuildRelevantPersonPolicyPeriod(divisionRows, voteRows, agreementRows, collectiveRows)
	require.Len(t, rows, 2)

	assert.Contains(t, rows, RelevantPersonPolicyPeriod{PersonID: 10, ChamberID: 1, PartyID: 5, PolicyID: 1, PeriodID: 1})
	assert.Contains(t, rows, RelevantPersonPolicyPeriod{PersonID: 20, ChamberID: 1, PartyID: 6, PolicyID: 2, PeriodID: 1})
}

func TestBuildRelevantPersonPolicyPeriod_Deduplicates(t *testing.T) {
	divisionRows := []PolicyDivisionRow{
		{DivisionID: 1, PolicyID: 1, PeriodID: 1, ChamberID: 1},
		{DivisionID: 2, PolicyID: 1, PeriodID: 1, ChamberID: 1},
	}
	voteRows := []VoteRow{
		{DivisionID: 1, PersonID: 10, ChamberID: 1, EffectivePartyID: 5},
		{DivisionID: 2, PersonID: 10, ChamberID: 1, EffectivePartyID: 5},
	}

	rows := BuildRelevantPersonPolicyPeriod(divisionRows, voteRows, nil, nil)
	assert.Len(t, rows, 1)
}
