package rfm

import (
	"sort"
	"time"

	"clv-forecast/pkg/models"
)

const hoursPerDay = 24.0

// DefaultObservationEnd retourne la borne par défaut de la fenêtre
// d'observation : le lendemain de la dernière transaction (UTC).
func DefaultObservationEnd(txns []models.ValidTransaction) time.Time {
	var max time.Time
	for _, t := range txns {
		if t.Timestamp.After(max) {
			max = t.Timestamp
		}
	}
	if max.IsZero() {
		return time.Time{}
	}
	return truncateDay(max).AddDate(0, 0, 1)
}

// Summarize agrège les transactions valides en un CustomerSummary par client.
// Les achats d'un même jour calendaire comptent pour un seul jour d'achat.
// Frequency = jours d'achat distincts − 1 (le premier achat, l'acquisition,
// est exclu). Recency = jours entre premier et dernier jour d'achat.
// T = jours entre premier jour d'achat et observationEnd.
// MonetaryValue = panier moyen des transactions postérieures au premier jour
// d'achat ; 0 quand le client n'a qu'un seul jour d'achat.
func Summarize(txns []models.ValidTransaction, observationEnd time.Time) []models.CustomerSummary {
	if observationEnd.IsZero() {
		observationEnd = DefaultObservationEnd(txns)
	}

	byCustomer := map[uint64][]models.ValidTransaction{}
	for _, t := range txns {
		byCustomer[t.CustomerID] = append(byCustomer[t.CustomerID], t)
	}

	out := make([]models.CustomerSummary, 0, len(byCustomer))
	for id, group := range byCustomer {
		out = append(out, summarizeCustomer(id, group, observationEnd))
	}

	// Ordre stable pour les sorties et les logs.
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func summarizeCustomer(id uint64, group []models.ValidTransaction, observationEnd time.Time) models.CustomerSummary {
	days := map[time.Time]struct{}{}
	first := truncateDay(group[0].Timestamp)
	last := first
	for _, t := range group {
		d := truncateDay(t.Timestamp)
		days[d] = struct{}{}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	// Panier moyen des transactions après le premier jour d'achat.
	var repeatSum float64
	var repeatCount int
	for _, t := range group {
		if truncateDay(t.Timestamp).After(first) {
			repeatSum += t.LineTotal
			repeatCount++
		}
	}
	monetary := 0.0
	if repeatCount > 0 {
		monetary = repeatSum / float64(repeatCount)
	}

	frequency := float64(len(days) - 1)
	if frequency < 0 {
		frequency = 0
	}
	recency := daysBetween(first, last)
	age := daysBetween(first, observationEnd)
	if age < recency {
		// Une borne d'observation antérieure au dernier achat violerait recency ≤ T.
		age = recency
	}
	return models.CustomerSummary{
		CustomerID:    id,
		Frequency:     frequency,
		Recency:       recency,
		T:             age,
		MonetaryValue: monetary,
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) float64 {
	d := to.Sub(from).Hours() / hoursPerDay
	if d < 0 {
		return 0
	}
	return d
}
