package calculator

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clv-forecast/pkg/bgnbd"
	"clv-forecast/pkg/gammagamma"
	"clv-forecast/pkg/models"
)

func rawTxn(customer uint64, day int, qty int, price float64) models.RawTransaction {
	return models.RawTransaction{
		InvoiceID:   "536365",
		CustomerID:  customer,
		HasCustomer: true,
		Quantity:    qty,
		UnitPrice:   price,
		Timestamp:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day),
	}
}

// Jeu synthétique : cinq clients à achats répétés, deux à achat unique,
// plus une ligne annulée et une ligne sans client qui doivent disparaître.
func sampleTransactions() []models.RawTransaction {
	txns := []models.RawTransaction{}
	add := func(customer uint64, days []int, qty int, price float64) {
		for _, d := range days {
			txns = append(txns, rawTxn(customer, d, qty, price))
		}
	}
	add(1, []int{0, 5, 12, 20, 33, 41, 55}, 2, 12.50)
	add(2, []int{3, 18, 36, 60}, 1, 45.00)
	add(3, []int{1, 2, 9, 15, 22, 28, 35, 49, 58}, 3, 6.75)
	add(4, []int{10, 40}, 1, 80.00)
	add(5, []int{7, 21, 52}, 2, 19.90)
	add(6, []int{25}, 1, 30.00) // achat unique
	add(7, []int{59}, 4, 5.00)  // achat unique tardif
	txns = append(txns,
		models.RawTransaction{InvoiceID: "C536400", CustomerID: 1, HasCustomer: true, Quantity: 1, UnitPrice: 10, Timestamp: rawTxn(1, 30, 1, 10).Timestamp},
		models.RawTransaction{InvoiceID: "536401", Quantity: 1, UnitPrice: 10, Timestamp: rawTxn(0, 30, 1, 10).Timestamp},
	)
	return txns
}

func runSample(t *testing.T) *Result {
	t.Helper()
	res, err := Run(context.Background(), sampleTransactions(), models.Config{
		ObservationEnd: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		HorizonDays:    183,
		Penalizer:      0.1,
		FitTimeout:     30 * time.Second,
	})
	require.NoError(t, err)
	return res
}

func TestRun_EveryCustomerGetsACLVRow(t *testing.T) {
	res := runSample(t)
	require.Len(t, res.Summaries, 7)
	require.Len(t, res.CLV, 7)

	seen := map[uint64]bool{}
	for _, c := range res.CLV {
		seen[c.CustomerID] = true
		assert.GreaterOrEqual(t, c.PredictedCLV, 0.0, "client %d", c.CustomerID)
		assert.Equal(t, 183.0, c.HorizonDays)
	}
	for id := uint64(1); id <= 7; id++ {
		assert.True(t, seen[id], "client %d absent de la table", id)
	}
}

func TestRun_SinglePurchaseCustomersFallBackToZeroValue(t *testing.T) {
	res := runSample(t)
	for _, id := range []uint64{6, 7} {
		row, err := res.PredictCustomer(id)
		require.NoError(t, err)
		assert.Equal(t, 0.0, row.PredictedAvgValue)
		assert.Equal(t, 0.0, row.PredictedCLV)
	}
}

func TestCombine_RepeatCustomerGetsPositiveCLV(t *testing.T) {
	// Paramètres publiés (CDNOW) pour une combinaison déterministe.
	purchase := &bgnbd.Model{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426}
	spend := &gammagamma.Model{P: 6.25, Q: 3.74, Gamma: 15.44}
	cfg := models.Config{HorizonDays: 183, MinFrequency: 1}

	s := models.CustomerSummary{CustomerID: 3, Frequency: 8, Recency: 57, T: 73, MonetaryValue: 20.25}
	row := combine(purchase, spend, s, cfg, 1.0)
	assert.Greater(t, row.PredictedPurchases, 0.0)
	assert.Greater(t, row.PredictedAvgValue, 0.0)
	assert.Greater(t, row.PredictedCLV, 0.0)
	assert.InDelta(t, row.PredictedPurchases*row.PredictedAvgValue, row.PredictedCLV, 1e-9)
}

func TestCombine_AppliesDiscountFactor(t *testing.T) {
	purchase := &bgnbd.Model{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426}
	spend := &gammagamma.Model{P: 6.25, Q: 3.74, Gamma: 15.44}
	cfg := models.Config{HorizonDays: 183, MinFrequency: 1}
	s := models.CustomerSummary{CustomerID: 3, Frequency: 8, Recency: 57, T: 73, MonetaryValue: 20.25}

	full := combine(purchase, spend, s, cfg, 1.0)
	half := combine(purchase, spend, s, cfg, 0.5)
	assert.InDelta(t, full.PredictedCLV*0.5, half.PredictedCLV, 1e-9)
}

func TestRun_DroppedRowsNeverReachSummary(t *testing.T) {
	res := runSample(t)
	_, err := res.PredictCustomer(0)
	var ie *models.InputError
	require.True(t, errors.As(err, &ie))
}

func TestPredictCustomer_UnknownID(t *testing.T) {
	res := runSample(t)
	_, err := res.PredictCustomer(9999)
	var ie *models.InputError
	require.True(t, errors.As(err, &ie))
}

func TestRankedByCLV_SortedDescendingAndCapped(t *testing.T) {
	res := runSample(t)
	ranked := res.RankedByCLV(3)
	require.Len(t, ranked, 3)
	assert.True(t, sort.SliceIsSorted(ranked, func(i, j int) bool {
		return ranked[i].PredictedCLV > ranked[j].PredictedCLV
	}))

	// La table d'origine reste triée par client, pas par CLV.
	for i := 1; i < len(res.CLV); i++ {
		assert.Less(t, res.CLV[i-1].CustomerID, res.CLV[i].CustomerID)
	}
}

func TestRun_NoValidTransactions(t *testing.T) {
	_, err := Run(context.Background(), []models.RawTransaction{
		{InvoiceID: "C1", CustomerID: 1, HasCustomer: true, Quantity: 1, UnitPrice: 5, Timestamp: time.Now()},
	}, models.Config{})
	require.Error(t, err)
}

func TestDiscountFactor(t *testing.T) {
	assert.Equal(t, 1.0, DiscountFactor(183, 0))
	assert.Equal(t, 1.0, DiscountFactor(183, -0.5))

	// Six mois à 1 % mensuel ≈ (1.01)^−6.
	got := DiscountFactor(6*DaysPerMonth, 0.01)
	assert.InDelta(t, 0.9420, got, 1e-3)
	assert.Less(t, got, 1.0)
}
