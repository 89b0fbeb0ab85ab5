// Package export écrit les tables CLV : fichier plat délimité pour tous les
// clients, et tableau lisible des meilleurs clients pour l'affichage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"clv-forecast/pkg/models"
)

// WriteCSV écrit la table complète {customer_id, predicted_clv}, une ligne
// par client, dans l'ordre reçu.
func WriteCSV(w io.Writer, results []models.CLVResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "predicted_clv"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		record := []string{
			strconv.FormatUint(r.CustomerID, 10),
			strconv.FormatFloat(r.PredictedCLV, 'f', 6, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write client %d: %w", r.CustomerID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile écrit la table complète dans un fichier.
func WriteCSVFile(path string, results []models.CLVResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, results); err != nil {
		return err
	}
	return f.Close()
}

// RenderRanking affiche le classement (déjà trié, déjà limité) en colonnes
// alignées.
func RenderRanking(w io.Writer, ranked []models.CLVResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "rang\tclient\tachats_prévus\tpanier_prévu\tclv_prévue")
	for i, r := range ranked {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.2f\t%.2f\n",
			i+1, r.CustomerID, r.PredictedPurchases, r.PredictedAvgValue, r.PredictedCLV)
	}
	return tw.Flush()
}
