package bgnbd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyp2f1_ClosedForms(t *testing.T) {
	// 2F1(1, 1; 2; z) = −ln(1−z)/z
	for _, z := range []float64{0.1, 0.5, 0.9} {
		want := -math.Log(1-z) / z
		assert.InDelta(t, want, hyp2f1(1, 1, 2, z), 1e-8, "z=%v", z)
	}

	// 2F1(a, b; b; z) = (1−z)^−a
	assert.InDelta(t, math.Pow(0.7, -2.5), hyp2f1(2.5, 3, 3, 0.3), 1e-8)
}

func TestHyp2f1_ZeroArgument(t *testing.T) {
	assert.Equal(t, 1.0, hyp2f1(0.5, 2, 3, 0))
}
