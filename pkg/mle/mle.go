// Package mle ajuste des paramètres strictement positifs par maximum de
// vraisemblance : Nelder-Mead (gonum) sur le log des paramètres, ce qui
// transforme la contrainte de positivité en optimisation libre.
package mle

import (
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"

	"clv-forecast/pkg/models"
)

// Problem décrit une log-vraisemblance négative à minimiser sur des
// paramètres strictement positifs.
type Problem struct {
	Model string // nom du modèle, repris dans les FittingError
	NegLL func(params []float64) float64
	Init  []float64 // point de départ, strictement positif
}

// Options borne l'optimisation. Les zéros laissent les défauts de gonum.
type Options struct {
	MaxIterations int
	Timeout       time.Duration // plafond temps-mur ; dépassé → FittingError
}

// Fit minimise p.NegLL et retourne les paramètres optimaux (positifs).
// Non-convergence, plafond dépassé ou optimum non fini → FittingError.
func Fit(p Problem, opts Options) ([]float64, error) {
	theta0 := make([]float64, len(p.Init))
	for i, v := range p.Init {
		theta0[i] = math.Log(v)
	}

	objective := func(theta []float64) float64 {
		params := make([]float64, len(theta))
		for i, t := range theta {
			params[i] = math.Exp(t)
		}
		v := p.NegLL(params)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	settings := &optimize.Settings{}
	if opts.MaxIterations > 0 {
		settings.MajorIterations = opts.MaxIterations
	}
	if opts.Timeout > 0 {
		settings.Runtime = opts.Timeout
	}

	result, err := optimize.Minimize(optimize.Problem{Func: objective}, theta0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, &models.FittingError{Model: p.Model, Reason: "optimiseur en échec", Err: err}
	}
	switch result.Status {
	case optimize.IterationLimit:
		return nil, &models.FittingError{Model: p.Model, Reason: "plafond d'itérations atteint sans convergence"}
	case optimize.RuntimeLimit:
		return nil, &models.FittingError{Model: p.Model, Reason: "plafond de temps atteint sans convergence"}
	}
	if math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return nil, &models.FittingError{Model: p.Model, Reason: "optimum non fini"}
	}

	params := make([]float64, len(result.X))
	for i, t := range result.X {
		params[i] = math.Exp(t)
		if math.IsInf(params[i], 0) || math.IsNaN(params[i]) {
			return nil, &models.FittingError{Model: p.Model, Reason: "paramètre non fini après optimisation"}
		}
	}
	return params, nil
}
