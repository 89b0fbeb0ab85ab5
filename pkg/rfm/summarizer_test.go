package rfm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clv-forecast/pkg/models"
)

func txn(customer uint64, day int, qty int, price float64) models.ValidTransaction {
	ts := time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC).AddDate(0, 0, day)
	return models.ValidTransaction{
		InvoiceID:  "536365",
		CustomerID: customer,
		Quantity:   qty,
		UnitPrice:  price,
		LineTotal:  float64(qty) * price,
		Timestamp:  ts,
	}
}

func obsEnd(day int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
}

func TestSummarize_ThreePurchaseScenario(t *testing.T) {
	// Client A : jour 0 (2×5=10), jour 10 (1×20=20), jour 30 (3×10=30),
	// fin d'observation jour 40.
	got := Summarize([]models.ValidTransaction{
		txn(1, 0, 2, 5),
		txn(1, 10, 1, 20),
		txn(1, 30, 3, 10),
	}, obsEnd(40))

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, uint64(1), s.CustomerID)
	assert.Equal(t, 2.0, s.Frequency)
	assert.Equal(t, 30.0, s.Recency)
	assert.Equal(t, 40.0, s.T)
	assert.InDelta(t, 25.0, s.MonetaryValue, 1e-9)
}

func TestSummarize_SinglePurchaseCustomer(t *testing.T) {
	got := Summarize([]models.ValidTransaction{txn(7, 0, 1, 9.99)}, obsEnd(15))

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, 0.0, s.Frequency)
	assert.Equal(t, 0.0, s.Recency)
	assert.Equal(t, 15.0, s.T)
	assert.Equal(t, 0.0, s.MonetaryValue)
}

func TestSummarize_SameDayPurchasesCountOnce(t *testing.T) {
	// Deux factures le même jour calendaire = un seul jour d'achat.
	got := Summarize([]models.ValidTransaction{
		txn(3, 0, 1, 5),
		txn(3, 0, 2, 7),
		txn(3, 5, 1, 12),
	}, obsEnd(10))

	require.Len(t, got, 1)
	s := got[0]
	assert.Equal(t, 1.0, s.Frequency)
	assert.Equal(t, 5.0, s.Recency)
	assert.InDelta(t, 12.0, s.MonetaryValue, 1e-9)
}

func TestSummarize_RecencyNeverExceedsT(t *testing.T) {
	txns := []models.ValidTransaction{
		txn(1, 0, 1, 5), txn(1, 12, 1, 5), txn(1, 31, 2, 4),
		txn(2, 3, 1, 8),
		txn(3, 1, 1, 2), txn(3, 2, 1, 2),
	}
	for _, s := range Summarize(txns, obsEnd(45)) {
		assert.LessOrEqual(t, s.Recency, s.T, "client %d", s.CustomerID)
		assert.GreaterOrEqual(t, s.Frequency, 0.0)
	}
}

func TestSummarize_GroupsPerCustomerSortedByID(t *testing.T) {
	got := Summarize([]models.ValidTransaction{
		txn(42, 0, 1, 5),
		txn(7, 0, 1, 5),
		txn(19, 0, 1, 5),
	}, obsEnd(10))

	require.Len(t, got, 3)
	assert.Equal(t, uint64(7), got[0].CustomerID)
	assert.Equal(t, uint64(19), got[1].CustomerID)
	assert.Equal(t, uint64(42), got[2].CustomerID)
}

func TestDefaultObservationEnd_DayAfterLastTransaction(t *testing.T) {
	end := DefaultObservationEnd([]models.ValidTransaction{
		txn(1, 0, 1, 5),
		txn(1, 9, 1, 5),
	})
	assert.Equal(t, obsEnd(10), end)
}

func TestSummarize_DefaultsObservationEndWhenZero(t *testing.T) {
	got := Summarize([]models.ValidTransaction{
		txn(1, 0, 1, 5),
		txn(1, 9, 1, 5),
	}, time.Time{})

	require.Len(t, got, 1)
	// max(date) + 1 jour → T = 10 jours depuis le premier achat.
	assert.Equal(t, 10.0, got[0].T)
}
