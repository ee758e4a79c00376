package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysociety/policyscore/internal/macro"
	"github.com/mysociety/policyscore/internal/model"
)

func policyMap(p model.Policy) map[int64]model.Policy {
	return map[int64]model.Policy{p.ID: p}
}

// TestRun_ReferentialScenario reproduces a worked reference scenario: one
// policy with one strong-Agree division; the target voted Aye; the
// target's party had 100 other members (50 Aye, 40 No, 10 Absent).
func TestRun_ReferentialScenario(t *testing.T) {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var alignment []macro.AlignmentRow
	alignment = append(alignment, macro.AlignmentRow{
		PolicyID: 1, PeriodID: 1, DivisionID: 10, Date: date,
		IsTarget: true, StrongInt: 1, Agreed: 1,
	})
	for i := 0; i < 50; i++ {
		alignment = append(alignment, macro.AlignmentRow{
			PolicyID: 1, PeriodID: 1, DivisionID: 10, Date: date,
			IsTarget: false, StrongInt: 1, Agreed: 1,
		})
	}
	for i := 0; i < 40; i++ {
		alignment = append(alignment, macro.AlignmentRow{
			PolicyID: 1, PeriodID: 1, DivisionID: 10, Date: date,
			IsTarget: false, StrongInt: 1, Disagreed: 1,
		})
	}
	for i := 0; i < 10; i++ {
		alignment = append(alignment, macro.AlignmentRow{
			PolicyID: 1, PeriodID: 1, DivisionID: 10, Date: date,
			IsTarget: false, StrongInt: 1, Absent: 1,
		})
	}

	policy := model.Policy{ID: 1, StrengthMeaning: model.StrengthMeaningSimplified, PolicyHash: "abc12345"}
	rows, err := Run(alignment, nil, policyMap(policy), 1, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var target, comparator *model.VoteDistribution
	for i := range rows {
		if rows[i].IsTarget {
			target = &rows[i]
		} else {
			comparator = &rows[i]
		}
	}
	require.NotNil(t, target)
	require.NotNil(t, comparator)

	assert.Equal(t, 1.0, target.NumStrongVotesSame)
	assert.Equal(t, 0.0, target.NumStrongVotesDifferent)

	assert.InDelta(t, 0.5, comparator.NumStrongVotesSame, 1e-9)
	assert.InDelta(t, 0.4, comparator.NumStrongVotesDifferent, 1e-9)
	assert.InDelta(t, 0.1, comparator.NumStrongVotesAbsent, 1e-9)
	assert.Equal(t, 0.0, comparator.NumStrongVotesAbstain)

	assert.Equal(t, "abc12345", target.PolicyHash)
	assert.Equal(t, "abc12345", comparator.PolicyHash)
	assert.Equal(t, 2020, target.StartYear)
	assert.Equal(t, 2020, target.EndYear)
}

// TestRun_ZeroComparatorsOmitsDivision covers the case where a division
// the target voted on has no comparator with a recorded position: it
// must not appear as a comparator row at all.
func TestRun_ZeroComparatorsOmitsDivision(t *testing.T) {
	date := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	alignment := []macro.AlignmentRow{
		{PolicyID: 1, PeriodID: 1, DivisionID: 20, Date: date, IsTarget: true, StrongInt: 1, Agreed: 1},
	}
	policy := model.Policy{ID: 1, StrengthMeaning: model.StrengthMeaningSimplified, PolicyHash: "deadbeef"}

	rows, err := Run(alignment, nil, policyMap(policy), 1, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsTarget)
}

// TestRun_AgreementCountsAttachOnlyToTargetRow covers the Open Question
// decision: agreement_count has no is_target dimension of its own, so
// it attaches exclusively to the is_target=1 row of a (policy, period)
// pair that also has vote data.
func TestRun_AgreementCountsAttachOnlyToTargetRow(t *testing.T) {
	date := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	alignment := []macro.AlignmentRow{
		{PolicyID: 2, PeriodID: 1, DivisionID: 30, Date: date, IsTarget: true, StrongInt: 1, Agreed: 1},
		{PolicyID: 2, PeriodID: 1, DivisionID: 30, Date: date, IsTarget: false, StrongInt: 1, Agreed: 1},
	}
	agreements := []macro.AgreementCountRow{
		{PolicyID: 2, PeriodID: 1, NumStrongAgreementsSame: 3},
	}
	policy := model.Policy{ID: 2, StrengthMeaning: model.StrengthMeaningSimplified, PolicyHash: "feedface"}

	rows, err := Run(alignment, agreements, policyMap(policy), 1, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, r := range rows {
		if r.IsTarget {
			assert.Equal(t, 3.0, r.NumStrongAgreementsSame)
		} else {
			assert.Equal(t, 0.0, r.NumStrongAgreementsSame)
		}
	}
}

// TestRun_AgreementOnlyPolicySynthesizesIsTargetZeroRow covers the case
// where a (policy, period) pair has agreement data but no vote pivot
// row at all: the full outer join coalesces is_target to 0 for the
// synthesized row.
func TestRun_AgreementOnlyPolicySynthesizesIsTargetZeroRow(t *testing.T) {
	agreements := []macro.AgreementCountRow{
		{PolicyID: 3, PeriodID: 1, NumStrongAgreementsDifferent: 2},
	}
	policy := model.Policy{ID: 3, StrengthMeaning: model.StrengthMeaningSimplified, PolicyHash: "0badc0de"}

	rows, err := Run(nil, agreements, policyMap(policy), 1, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsTarget)
	assert.Equal(t, 2.0, rows[0].NumStrongAgreementsDifferent)
}

func TestRun_MissingPolicyRecordErrors(t *testing.T) {
	alignment := []macro.AlignmentRow{
		{PolicyID: 99, PeriodID: 1, DivisionID: 1, IsTarget: true, StrongInt: 1, Agreed: 1},
	}
	_, err := Run(alignment, nil, map[int64]model.Policy{}, 1, 1, 5)
	assert.Error(t, err)
}
