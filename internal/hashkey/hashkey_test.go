package hashkey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mysociety/policyscore/internal/model"
)

func TestCompositeKey_SortsLinkKeysRegardlessOfInputOrder(t *testing.T) {
	a := CompositeKey(42, model.ChamberCommons, model.StrengthMeaningSimplified,
		[]string{"pw-2020-01-02-2-commons-agree-strong", "pw-2020-01-01-1-commons-agree-strong"})
	b := CompositeKey(42, model.ChamberCommons, model.StrengthMeaningSimplified,
		[]string{"pw-2020-01-01-1-commons-agree-strong", "pw-2020-01-02-2-commons-agree-strong"})

	assert.Equal(t, a, b)
}

func TestCompositeKey_NoLinks(t *testing.T) {
	got := CompositeKey(1, model.ChamberLords, model.StrengthMeaningSimplified, nil)
	assert.Equal(t, "1-lords-simplified", got)
}

func TestHash_IsEightHexDigits(t *testing.T) {
	h := Hash("1-lords-simplified")
	assert.Len(t, h, 8)
	for _, r := range h {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'))
	}
}

func TestComputePolicyHash_Deterministic(t *testing.T) {
	links := []string{"pw-2020-01-01-1-commons-agree-strong"}
	a := ComputePolicyHash(1, model.ChamberCommons, model.StrengthMeaningSimplified, links)
	b := ComputePolicyHash(1, model.ChamberCommons, model.StrengthMeaningSimplified, links)
	assert.Equal(t, a, b)

	other := ComputePolicyHash(2, model.ChamberCommons, model.StrengthMeaningSimplified, links)
	assert.NotEqual(t, a, other)
}

func TestLinkKey(t *testing.T) {
	got := LinkKey("pw-2020-01-01-1-commons", model.DirectionAgree, model.StrengthStrong)
	assert.Equal(t, "pw-2020-01-01-1-commons-agree-strong", got)
}
