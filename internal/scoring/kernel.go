// Package scoring implements the policy alignment scoring kernel: a pure,
// total, deterministic function from vote and agreement counts to a scalar
// alignment score.
package scoring

import "fmt"

// strongWeight is the per-vote weight applied to strong votes and
// agreements. Weak votes contribute zero weight; they exist for
// informational display only.
const strongWeight = 10.0

// NoData is the sentinel score meaning "no strong evidence either way".
// It is returned exactly when available == 0 and under no other condition.
const NoData = -1.0

// Pair is a (weak, strong) count pair. Both fields are nonnegative reals;
// fractional values arise from the comparator cohort's averaged counts
// (see internal/pipeline).
type Pair struct {
	Weak   float64
	Strong float64
}

// Add returns the elementwise sum of two pairs.
func (p Pair) Add(o Pair) Pair {
	return Pair{Weak: p.Weak + o.Weak, Strong: p.Strong + o.Strong}
}

// Meaning selects which scoring function a policy uses. Only Simplified
// is implemented; Classic is named so upstream data carrying it can be
// rejected with a clear error rather than silently misscored.
type Meaning string

const (
	MeaningSimplified Meaning = "simplified"
	MeaningClassic    Meaning = "classic"
)

// Input bundles the six count pairs the kernel consumes.
type Input struct {
	VotesSame           Pair
	VotesDifferent      Pair
	VotesAbsent         Pair
	VotesAbstain        Pair
	AgreementsSame      Pair
	AgreementsDifferent Pair
}

// Score dispatches to the scoring function named by meaning. SimplifiedScore
// is the only in-scope variant; Classic returns an error rather than being
// silently approximated.
func Score(meaning Meaning, in Input) (float64, error) {
	switch meaning {
	case MeaningSimplified:
		return SimplifiedScore(in), nil
	case MeaningClassic:
		return 0, fmt.Errorf("scoring: classic strength meaning is not supported")
	default:
		return 0, fmt.Errorf("scoring: unknown strength meaning %q", meaning)
	}
}

// SimplifiedScore computes the alignment score for a single row of counts.
//
// points = 10*votes_different.strong + 5*votes_abstain.strong + 10*agreements_different.strong
// available = 10*(votes_same.strong + votes_different.strong) +
//
//	10*(agreements_same.strong + agreements_different.strong) + 10*votes_abstain.strong
//
// Returns NoData when available is zero. Otherwise returns points/available,
// clamped according to the absence caps below.
//
//   - votes_absent.strong > 1                     -> clamp into [0.06, 0.94]
//   - votes_absent.strong >= total_strong/3 (and >0) -> clamp into [0.16, 0.84]
//
// Both caps may apply; the tighter one (0.16/0.84) wins when both conditions
// hold, since it is applied after the wider one.
func SimplifiedScore(in Input) float64 {
	points := strongWeight*in.VotesDifferent.Strong +
		(strongWeight/2)*in.VotesAbstain.Strong +
		strongWeight*in.AgreementsDifferent.Strong

	available := strongWeight*(in.VotesSame.Strong+in.VotesDifferent.Strong) +
		strongWeight*(in.AgreementsSame.Strong+in.AgreementsDifferent.Strong) +
		strongWeight*in.VotesAbstain.Strong

	if available == 0 {
		return NoData
	}

	score := points / available

	totalStrong := in.VotesSame.Strong + in.VotesDifferent.Strong +
		in.VotesAbsent.Strong + in.VotesAbstain.Strong

	if in.VotesAbsent.Strong > 1 {
		score = clamp(score, 0.06, 0.94)
	}
	if totalStrong > 0 && in.VotesAbsent.Strong >= totalStrong/3 {
		score = clamp(score, 0.16, 0.84)
	}
	return score
}

// ScoreBatch applies SimplifiedScore to every row, the vectorized path
// required by the alignment pipeline. It is a thin wrapper
// over the scalar path: row i of the result is exactly SimplifiedScore(ins[i]).
func ScoreBatch(ins []Input) []float64 {
	out := make([]float64, len(ins))
	for i, in := range ins {
		out[i] = SimplifiedScore(in)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
