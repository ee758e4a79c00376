package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mysociety/policyscore/internal/model"
	"github.com/mysociety/policyscore/internal/scoring"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// TestCompute_ReferentialScenario reproduces the same scenario
// internal/macro's and internal/pipeline's tests exercise, via the
// independent linear-scan oracle.
func TestCompute_ReferentialScenario(t *testing.T) {
	divisions := []model.Division{{ID: 10, ChamberID: 1, Date: d("2020-01-01")}}
	divisionLinks := []model.PolicyDivisionLink{
		{PolicyID: 1, DivisionID: 10, Alignment: model.DirectionAgree, Strength: model.StrengthStrong},
	}
	periods := []model.PolicyComparisonPeriod{
		{ID: 1, ChamberID: 1, StartDate: d("2019-01-01"), EndDate: d("2021-01-01")},
	}

	memberships := []model.Membership{
		{ID: 1, PersonID: 1, ChamberID: 1, EffectivePartyID: 5, StartDate: d("2019-01-01"), EndDate: d("2021-01-01")},
	}
	var votes []model.Vote
	votes = append(votes, model.Vote{DivisionID: 10, PersonID: 1, Position: model.PositionAye})
	for i := int64(0); i < 50; i++ {
		memberships = append(memberships, model.Membership{
			ID: 100 + i, PersonID: 10 + i, ChamberID: 1, EffectivePartyID: 5,
			StartDate: d("2019-01-01"), EndDate: d("2021-01-01"),
		})
		votes = append(votes, model.Vote{DivisionID: 10, PersonID: 10 + i, Position: model.PositionAye})
	}
	for i := int64(50); i < 90; i++ {
		memberships = append(memberships, model.Membership{
			ID: 100 + i, PersonID: 10 + i, ChamberID: 1, EffectivePartyID: 5,
			StartDate: d("2019-01-01"), EndDate: d("2021-01-01"),
		})
		votes = append(votes, model.Vote{DivisionID: 10, PersonID: 10 + i, Position: model.PositionNo})
	}
	for i := int64(90); i < 100; i++ {
		memberships = append(memberships, model.Membership{
			ID: 100 + i, PersonID: 10 + i, ChamberID: 1, EffectivePartyID: 5,
			StartDate: d("2019-01-01"), EndDate: d("2021-01-01"),
		})
		votes = append(votes, model.Vote{DivisionID: 10, PersonID: 10 + i, Position: model.PositionAbsent})
	}

	result := Compute(1, 1, 5, 1, 1, divisions, divisionLinks, nil, nil, periods, votes, memberships)

	assert.True(t, CountsClose(result.TargetVotesSame, scoring.Pair{Strong: 1}))
	assert.True(t, CountsClose(result.ComparatorVotesSame, scoring.Pair{Strong: 0.5}))
	assert.True(t, CountsClose(result.ComparatorVotesDifferent, scoring.Pair{Strong: 0.4}))
	assert.True(t, CountsClose(result.ComparatorVotesAbsent, scoring.Pair{Strong: 0.1}))
}

func TestCompute_ZeroComparatorsOmitsDivision(t *testing.T) {
	divisions := []model.Division{{ID: 20, ChamberID: 1, Date: d("2021-03-01")}}
	divisionLinks := []model.PolicyDivisionLink{
		{PolicyID: 1, DivisionID: 20, Alignment: model.DirectionAgree, Strength: model.StrengthStrong},
	}
	periods := []model.PolicyComparisonPeriod{
		{ID: 1, ChamberID: 1, StartDate: d("2020-01-01"), EndDate: d("2022-01-01")},
	}
	memberships := []model.Membership{
		{ID: 1, PersonID: 1, ChamberID: 1, EffectivePartyID: 5, StartDate: d("2020-01-01"), EndDate: d("2022-01-01")},
	}
	votes := []model.Vote{{DivisionID: 20, PersonID: 1, Position: model.PositionAye}}

	result := Compute(1, 1, 5, 1, 1, divisions, divisionLinks, nil, nil, periods, votes, memberships)
	assert.True(t, CountsClose(result.TargetVotesSame, scoring.Pair{Strong: 1}))
	assert.Equal(t, scoring.Pair{}, result.ComparatorVotesSame)
}

func TestCompute_AgreementPresenceCountsForTargetOnly(t *testing.T) {
	agreements := []model.Agreement{{ID: 1, ChamberID: 1, Date: d("2020-06-01")}}
	agreementLinks := []model.PolicyAgreementLink{
		{PolicyID: 1, AgreementID: 1, Alignment: model.DirectionAgree, Strength: model.StrengthStrong},
	}
	periods := []model.PolicyComparisonPeriod{
		{ID: 1, ChamberID: 1, StartDate: d("2019-01-01"), EndDate: d("2021-01-01")},
	}
	memberships := []model.Membership{
		{ID: 1, PersonID: 1, ChamberID: 1, EffectivePartyID: 5, StartDate: d("2019-01-01"), EndDate: d("2021-01-01")},
	}

	result := Compute(1, 1, 5, 1, 1, nil, nil, agreements, agreementLinks, periods, nil, memberships)
	assert.True(t, CountsClose(result.AgreementsSame, scoring.Pair{Strong: 1}))
	assert.Equal(t, scoring.Pair{}, result.AgreementsDifferent)
}
