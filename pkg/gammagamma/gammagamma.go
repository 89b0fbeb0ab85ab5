// Package gammagamma implémente le modèle Gamma-Gamma de la valeur des
// transactions : panier individuel Gamma(p, ν) avec ν lui-même Gamma(q, γ)
// dans la population. Ajusté uniquement sur les clients à achats répétés ;
// le modèle suppose la dépense indépendante de la fréquence (hypothèse non
// vérifiée ici, à contrôler en amont par l'analyste).
package gammagamma

import (
	"math"

	"clv-forecast/pkg/mle"
	"clv-forecast/pkg/models"
)

const modelName = "Gamma-Gamma"

// Model porte les trois paramètres ajustés, en lecture seule après Fit.
type Model struct {
	P     float64
	Q     float64
	Gamma float64
}

// Fit estime (p, q, gamma) par maximum de vraisemblance sur les résumés dont
// Frequency ≥ minFrequency (la valeur monétaire n'est définie que pour les
// clients à achats répétés). Moins d'un client qualifié → FittingError.
func Fit(summaries []models.CustomerSummary, minFrequency, penalizer float64, opts mle.Options) (*Model, error) {
	qualified := make([]models.CustomerSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Frequency >= minFrequency && s.MonetaryValue > 0 {
			qualified = append(qualified, s)
		}
	}
	if len(qualified) == 0 {
		return nil, &models.FittingError{Model: modelName, Reason: "aucun client à achats répétés"}
	}

	negLL := func(params []float64) float64 {
		return negativeLogLikelihood(params, qualified, penalizer)
	}
	params, err := mle.Fit(mle.Problem{
		Model: modelName,
		NegLL: negLL,
		Init:  []float64{1, 1, 1},
	}, opts)
	if err != nil {
		return nil, err
	}
	return &Model{P: params[0], Q: params[1], Gamma: params[2]}, nil
}

func negativeLogLikelihood(params []float64, qualified []models.CustomerSummary, penalizer float64) float64 {
	p, q, g := params[0], params[1], params[2]

	var sum float64
	for _, s := range qualified {
		x, m := s.Frequency, s.MonetaryValue
		ll := lgamma(p*x+q) - lgamma(p*x) - lgamma(q) +
			q*math.Log(g) +
			(p*x-1)*math.Log(m) +
			p*x*math.Log(x) -
			(p*x+q)*math.Log(x*m+g)
		sum += ll
	}

	penalty := penalizer * (p*p + q*q + g*g)
	return -sum/float64(len(qualified)) + penalty
}

// PopulationMean retourne la dépense moyenne par transaction au niveau de la
// population, E[M] = γp/(q−1).
func (m *Model) PopulationMean() float64 {
	return m.Gamma * m.P / (m.Q - 1)
}

// ExpectedAverageValue retourne l'estimation rétrécie du panier moyen futur
// du client : moyenne pondérée entre la moyenne de population et la moyenne
// observée du client, le poids individuel croissant avec la fréquence.
// Un client à fréquence nulle n'est pas une entrée valide du modèle et
// retourne une InputError ; le combineur applique sa politique de repli
// (valeur nulle) sans passer par ici.
func (m *Model) ExpectedAverageValue(s models.CustomerSummary) (float64, error) {
	if s.Frequency <= 0 {
		return 0, &models.InputError{Reason: "ExpectedAverageValue exige frequency ≥ 1"}
	}
	w := m.P * s.Frequency / (m.P*s.Frequency + m.Q - 1)
	v := (1-w)*m.PopulationMean() + w*s.MonetaryValue
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		// q ≤ 1 rend la moyenne de population dégénérée ; la notation reste
		// définie et bornée à zéro.
		return 0, nil
	}
	return v, nil
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
