package policy_test

import (
	"testing"

	"github.com/astralhq/chatgate/pkg/policy"
	"github.com/stretchr/testify/assert"
)

func TestBudgetFor(t *testing.T) {
	assert.Equal(t, 500, policy.BudgetFor(0.2))
	assert.Equal(t, 1000, policy.BudgetFor(0.45))
	assert.Equal(t, 2000, policy.BudgetFor(0.8))

	// Band edges.
	assert.Equal(t, 500, policy.BudgetFor(0))
	assert.Equal(t, 1000, policy.BudgetFor(0.3))
	assert.Equal(t, 2000, policy.BudgetFor(0.6))
	assert.Equal(t, 2000, policy.BudgetFor(1))
}

func TestConfidence_BaselineScenario(t *testing.T) {
	// trust 0.5, not cached, long reply: 0.7 * (0.5 + 0.25) = 0.525
	assert.InDelta(t, 0.525, policy.Confidence(false, 200, 0.5), 1e-9)
}

func TestConfidence_Deterministic(t *testing.T) {
	first := policy.Confidence(true, 150, 0.73)
	second := policy.Confidence(true, 150, 0.73)
	assert.Equal(t, first, second)
}

func TestConfidence_AlwaysWithinBounds(t *testing.T) {
	for _, cached := range []bool{true, false} {
		for _, tokens := range []int{0, 1, 199, 200, 5000, 100000} {
			for _, trust := range []float64{0, 0.1, 0.3, 0.5, 0.77, 1} {
				c := policy.Confidence(cached, tokens, trust)
				assert.GreaterOrEqual(t, c, 0.3)
				assert.LessOrEqual(t, c, 0.95)
			}
		}
	}
}

func TestConfidence_CachedShortHighTrustHitsCeiling(t *testing.T) {
	// 1.0 * 1.0 = 1.0, clamped to 0.95.
	assert.Equal(t, 0.95, policy.Confidence(true, 10, 1))
}

func TestConfidence_ZeroTrustHitsFloor(t *testing.T) {
	// 0.7 * 0.5 = 0.35, above the floor; floor only clamps lower values.
	assert.InDelta(t, 0.35, policy.Confidence(false, 1000, 0), 1e-9)
}
