package bgnbd

import "math"

const (
	hypMaxTerms = 20000
	hypTol      = 1e-11
)

// hyp2f1 évalue la fonction hypergéométrique de Gauss 2F1(a, b; c; z) par sa
// série entière. Les arguments issus du modèle donnent toujours 0 ≤ z < 1,
// où la série converge.
func hyp2f1(a, b, c, z float64) float64 {
	if z == 0 {
		return 1
	}
	sum := 1.0
	term := 1.0
	for n := 0; n < hypMaxTerms; n++ {
		fn := float64(n)
		term *= (a + fn) * (b + fn) / ((c + fn) * (fn + 1)) * z
		sum += term
		if math.Abs(term) < hypTol*math.Abs(sum) {
			return sum
		}
	}
	return sum
}
