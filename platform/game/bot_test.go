package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buyFrequency(t *testing.T, money, price, trials int) float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	bought := 0
	for i := 0; i < trials; i++ {
		if ShouldBuy(money, price, rng) {
			bought++
		}
	}
	return float64(bought) / float64(trials)
}

func TestShouldBuyNeverWhenUnaffordable(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		assert.False(t, ShouldBuy(99, 100, rng))
	}
}

// The policy is a probability distribution, so these assert empirical
// frequencies against the configured thresholds with sampling slack.
func TestShouldBuyCheapPropertyFrequency(t *testing.T) {
	freq := buyFrequency(t, 1000, 100, 1000)
	assert.InDelta(t, 0.8, freq, 0.05, "cheap properties are bought at 0.8")
}

func TestShouldBuyComfortablyAffordableFrequency(t *testing.T) {
	// ratio (2000-200)/2000 = 0.9 > 0.5
	freq := buyFrequency(t, 2000, 200, 1000)
	assert.InDelta(t, 0.7, freq, 0.05)
}

func TestShouldBuyModeratelyAffordableFrequency(t *testing.T) {
	// ratio (300-180)/300 = 0.4, between 0.3 and 0.5
	freq := buyFrequency(t, 300, 180, 1000)
	assert.InDelta(t, 0.5, freq, 0.05)
}

func TestShouldBuyStretchPurchaseFrequency(t *testing.T) {
	// ratio (200-180)/200 = 0.1 <= 0.3
	freq := buyFrequency(t, 200, 180, 1000)
	assert.InDelta(t, 0.3, freq, 0.05)
}
