package cleaner

import (
	"strings"

	"clv-forecast/pkg/models"
)

// Préfixe des numéros de facture annulés (avoirs / retours).
const cancellationPrefix = "C"

// Clean filtre les transactions brutes en transactions valides : client
// présent, facture non annulée, quantité et prix strictement positifs.
// Les lignes écartées le sont silencieusement : les données transactionnelles
// malformées sont attendues. Déterministe et idempotent.
func Clean(raw []models.RawTransaction) []models.ValidTransaction {
	out := make([]models.ValidTransaction, 0, len(raw))
	for _, r := range raw {
		if !r.HasCustomer {
			continue
		}
		if IsCancellation(r.InvoiceID) {
			continue
		}
		if r.Quantity <= 0 || r.UnitPrice <= 0 {
			continue
		}
		out = append(out, models.ValidTransaction{
			InvoiceID:  r.InvoiceID,
			CustomerID: r.CustomerID,
			Quantity:   r.Quantity,
			UnitPrice:  r.UnitPrice,
			LineTotal:  float64(r.Quantity) * r.UnitPrice,
			Timestamp:  r.Timestamp,
		})
	}
	return out
}

// IsCancellation indique si un numéro de facture marque une commande annulée.
func IsCancellation(invoiceID string) bool {
	return strings.HasPrefix(strings.TrimSpace(invoiceID), cancellationPrefix)
}
