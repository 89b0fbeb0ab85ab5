package calculator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"clv-forecast/pkg/bgnbd"
	"clv-forecast/pkg/cleaner"
	"clv-forecast/pkg/gammagamma"
	"clv-forecast/pkg/mle"
	"clv-forecast/pkg/models"
	"clv-forecast/pkg/rfm"

	"github.com/schollz/progressbar/v3"
)

// DaysPerMonth est la durée moyenne d'un mois, utilisée pour convertir les
// horizons en mois et pour l'actualisation mensuelle.
const DaysPerMonth = 30.4375

const (
	defaultHorizonDays  = 6 * DaysPerMonth
	defaultMinFrequency = 1.0
	defaultTopN         = 10
)

// Result porte les tables intermédiaires et finales du pipeline : résumé
// par client, les deux modèles ajustés, et la table CLV (triée par client).
type Result struct {
	Summaries []models.CustomerSummary
	Purchase  *bgnbd.Model
	Spend     *gammagamma.Model
	CLV       []models.CLVResult

	byCustomer map[uint64]int // index dans Summaries / CLV
}

// Run exécute le pipeline complet : nettoyage → résumé RFM → ajustement des
// deux modèles (en parallèle) → combinaison en une table CLV. Un échec
// d'ajustement est fatal : aucune table partielle n'est produite.
func Run(ctx context.Context, raw []models.RawTransaction, cfg models.Config) (*Result, error) {
	cfg = withDefaults(cfg)
	bar := progressbar.Default(4)

	// 1) Nettoyage
	valid := cleaner.Clean(raw)
	if len(valid) == 0 {
		return nil, fmt.Errorf("clean: aucune transaction valide sur %d lignes", len(raw))
	}
	_ = bar.Add(1)
	if cfg.Verbose {
		log.Printf("[INFO] nettoyage: %d lignes brutes -> %d transactions valides", len(raw), len(valid))
	}

	// 2) Résumé RFM
	summaries := rfm.Summarize(valid, cfg.ObservationEnd)
	_ = bar.Add(1)
	if cfg.Verbose {
		repeat := 0
		for _, s := range summaries {
			if s.Frequency >= cfg.MinFrequency {
				repeat++
			}
		}
		log.Printf("[INFO] résumé: %d clients dont %d avec achats répétés", len(summaries), repeat)
	}

	// 3) Ajustements : indépendants l'un de l'autre, lancés en parallèle ;
	// le combineur attend les deux.
	opts := mle.Options{Timeout: cfg.FitTimeout}
	var purchase *bgnbd.Model
	var spend *gammagamma.Model
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := bgnbd.Fit(summaries, cfg.Penalizer, opts)
		if err != nil {
			return err
		}
		purchase = m
		return nil
	})
	g.Go(func() error {
		m, err := gammagamma.Fit(summaries, cfg.MinFrequency, cfg.Penalizer, opts)
		if err != nil {
			return err
		}
		spend = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Add(1)
	if cfg.Verbose {
		log.Printf("[INFO] BG/NBD: r=%.4f alpha=%.4f a=%.4f b=%.4f",
			purchase.R, purchase.Alpha, purchase.A, purchase.B)
		log.Printf("[INFO] Gamma-Gamma: p=%.4f q=%.4f gamma=%.4f", spend.P, spend.Q, spend.Gamma)
	}

	// 4) Combinaison
	res := &Result{
		Summaries:  summaries,
		Purchase:   purchase,
		Spend:      spend,
		CLV:        make([]models.CLVResult, 0, len(summaries)),
		byCustomer: make(map[uint64]int, len(summaries)),
	}
	discount := DiscountFactor(cfg.HorizonDays, cfg.DiscountRate)
	for i, s := range summaries {
		res.CLV = append(res.CLV, combine(purchase, spend, s, cfg, discount))
		res.byCustomer[s.CustomerID] = i
	}
	_ = bar.Add(1)
	if cfg.Verbose {
		log.Printf("[INFO] CLV calculée pour %d clients (horizon %.0f jours, actualisation %.3f)",
			len(res.CLV), cfg.HorizonDays, cfg.DiscountRate)
	}
	return res, nil
}

// combine applique CLV = achats attendus × panier attendu × actualisation.
// Politique de repli pour frequency < minimum : panier attendu nul, le
// client reste dans la table avec une CLV de 0.
func combine(purchase *bgnbd.Model, spend *gammagamma.Model, s models.CustomerSummary, cfg models.Config, discount float64) models.CLVResult {
	purchases := purchase.ExpectedFutureTransactions(s, cfg.HorizonDays)
	avg := 0.0
	if s.Frequency >= cfg.MinFrequency && s.MonetaryValue > 0 {
		v, err := spend.ExpectedAverageValue(s)
		if err == nil {
			avg = v
		}
	}
	return models.CLVResult{
		CustomerID:         s.CustomerID,
		HorizonDays:        cfg.HorizonDays,
		PredictedPurchases: purchases,
		PredictedAvgValue:  avg,
		PredictedCLV:       purchases * avg * discount,
	}
}

// PredictCustomer retourne la ligne CLV d'un client du résumé ; un
// identifiant inconnu est une InputError.
func (r *Result) PredictCustomer(customerID uint64) (models.CLVResult, error) {
	i, ok := r.byCustomer[customerID]
	if !ok {
		return models.CLVResult{}, &models.InputError{
			Reason: fmt.Sprintf("client %d absent du résumé", customerID),
		}
	}
	return r.CLV[i], nil
}

// RankedByCLV retourne une copie de la table triée par CLV décroissante,
// limitée à topN (≤ 0 = tous). La table d'origine reste triée par client.
func (r *Result) RankedByCLV(topN int) []models.CLVResult {
	ranked := make([]models.CLVResult, len(r.CLV))
	copy(ranked, r.CLV)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PredictedCLV > ranked[j].PredictedCLV
	})
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// DiscountFactor retourne (1+d)^(−H/30.4375) pour un taux mensuel d, 1 si
// d ≤ 0.
func DiscountFactor(horizonDays, monthlyRate float64) float64 {
	if monthlyRate <= 0 {
		return 1
	}
	return math.Pow(1+monthlyRate, -horizonDays/DaysPerMonth)
}

func withDefaults(cfg models.Config) models.Config {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = defaultHorizonDays
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = defaultMinFrequency
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	return cfg
}
