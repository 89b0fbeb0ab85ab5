// Package bgnbd implémente le modèle BG/NBD d'achats répétés : taux d'achat
// latent Gamma(r, alpha) et probabilité d'abandon latente Beta(a, b) au
// niveau de la population, ajustés par maximum de vraisemblance sur les
// résumés (frequency, recency, T).
package bgnbd

import (
	"math"

	"clv-forecast/pkg/mle"
	"clv-forecast/pkg/models"
)

const modelName = "BG/NBD"

// Model porte les quatre paramètres ajustés. Immuable : l'ajustement produit
// la valeur une fois, la notation est pure ensuite.
type Model struct {
	R     float64
	Alpha float64
	A     float64
	B     float64
}

// Fit estime (r, alpha, a, b) par maximum de vraisemblance sur l'ensemble
// des résumés, y compris les clients à fréquence nulle. Le pénaliseur L2
// s'ajoute à la log-vraisemblance négative moyenne.
func Fit(summaries []models.CustomerSummary, penalizer float64, opts mle.Options) (*Model, error) {
	if len(summaries) == 0 {
		return nil, &models.FittingError{Model: modelName, Reason: "aucun client dans le résumé"}
	}

	negLL := func(params []float64) float64 {
		return negativeLogLikelihood(params, summaries, penalizer)
	}
	params, err := mle.Fit(mle.Problem{
		Model: modelName,
		NegLL: negLL,
		Init:  []float64{1, 1, 1, 1},
	}, opts)
	if err != nil {
		return nil, err
	}
	return &Model{R: params[0], Alpha: params[1], A: params[2], B: params[3]}, nil
}

// negativeLogLikelihood est la log-vraisemblance négative moyenne BG/NBD,
// plus penalizer × Σ params².
func negativeLogLikelihood(params []float64, summaries []models.CustomerSummary, penalizer float64) float64 {
	r, alpha, a, b := params[0], params[1], params[2], params[3]

	var sum float64
	for _, s := range summaries {
		x, tx, t := s.Frequency, s.Recency, s.T

		a1 := lgamma(r+x) - lgamma(r) + r*math.Log(alpha)
		a2 := lgamma(a+b) + lgamma(b+x) - lgamma(b) - lgamma(a+b+x)
		a3 := -(r + x) * math.Log(alpha+t)

		ll := a1 + a2
		if x > 0 {
			a4 := math.Log(a) - math.Log(b+x-1) - (r+x)*math.Log(alpha+tx)
			ll += logAddExp(a3, a4)
		} else {
			ll += a3
		}
		sum += ll
	}

	penalty := penalizer * (r*r + alpha*alpha + a*a + b*b)
	return -sum/float64(len(summaries)) + penalty
}

// ExpectedFutureTransactions retourne l'espérance conditionnelle du nombre
// d'achats du client sur les horizonDays prochains jours, étant donné son
// historique (frequency, recency, T). Toujours finie et ≥ 0, y compris pour
// un client à fréquence nulle avec T = recency = 0.
func (m *Model) ExpectedFutureTransactions(s models.CustomerSummary, horizonDays float64) float64 {
	if horizonDays <= 0 {
		return 0
	}
	r, alpha, a, b := m.R, m.Alpha, m.A, m.B
	x, tx, t := s.Frequency, s.Recency, s.T

	z := horizonDays / (alpha + t + horizonDays)
	hyp := hyp2f1(r+x, b+x, a+b+x-1, z)

	first := (a + b + x - 1) / (a - 1)
	second := 1 - math.Exp((r+x)*math.Log((alpha+t)/(alpha+t+horizonDays)))*hyp
	numerator := first * second

	denominator := 1.0
	if x > 0 {
		denominator += (a / (b + x - 1)) * math.Exp((r+x)*math.Log((alpha+t)/(alpha+tx)))
	}

	expected := numerator / denominator
	if math.IsNaN(expected) || math.IsInf(expected, 0) || expected < 0 {
		return 0
	}
	return expected
}

// ProbabilityAlive retourne la probabilité a posteriori que le client soit
// encore actif à la fin de la fenêtre d'observation. 1 pour un client sans
// achat répété.
func (m *Model) ProbabilityAlive(s models.CustomerSummary) float64 {
	if s.Frequency == 0 {
		return 1
	}
	r, alpha, a, b := m.R, m.Alpha, m.A, m.B
	x, tx, t := s.Frequency, s.Recency, s.T

	logOdds := math.Log(a) - math.Log(b+x-1) + (r+x)*math.Log((alpha+t)/(alpha+tx))
	// 1 / (1 + exp(logOdds)), stable pour les deux signes.
	if logOdds > 0 {
		return math.Exp(-logOdds) / (1 + math.Exp(-logOdds))
	}
	return 1 / (1 + math.Exp(logOdds))
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// logAddExp calcule log(exp(a) + exp(b)) sans débordement.
func logAddExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}
