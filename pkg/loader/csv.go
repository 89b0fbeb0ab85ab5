// Package loader lit une source de transactions au format CSV (export plat
// du type "Online Retail") vers des RawTransaction. Les colonnes sont
// reconnues par leur en-tête, insensible à la casse et aux underscores.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"clv-forecast/pkg/models"
)

// Noms d'en-tête acceptés par colonne logique.
var columnAliases = map[string][]string{
	"invoice":  {"invoice", "invoiceno", "invoiceid"},
	"customer": {"customerid", "customer"},
	"quantity": {"quantity", "qty"},
	"price":    {"unitprice", "price"},
	"date":     {"invoicedate", "date", "timestamp"},
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// LoadCSV charge toutes les lignes du fichier. Colonne requise absente ou
// valeur illisible → DataError immédiate, aucun chargement partiel.
func LoadCSV(path string) ([]models.RawTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, path)
}

// ReadCSV lit les transactions depuis r ; source n'est utilisé que pour les
// messages d'erreur.
func ReadCSV(r io.Reader, source string) ([]models.RawTransaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &models.DataError{Source: source, Reason: fmt.Sprintf("en-tête illisible: %v", err)}
	}
	cols, err := mapColumns(header, source)
	if err != nil {
		return nil, err
	}

	var out []models.RawTransaction
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.DataError{Source: source, Reason: fmt.Sprintf("ligne %d illisible: %v", line+1, err)}
		}
		line++

		txn, err := parseRecord(record, cols, source, line)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, nil
}

func mapColumns(header []string, source string) (map[string]int, error) {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.NewReplacer("_", "", " ", "", "\uFEFF", "").Replace(s)
	}
	byName := map[string]int{}
	for i, h := range header {
		byName[norm(h)] = i
	}

	cols := map[string]int{}
	for logical, aliases := range columnAliases {
		found := false
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				cols[logical] = i
				found = true
				break
			}
		}
		if !found {
			return nil, &models.DataError{Source: source, Reason: fmt.Sprintf("colonne requise absente: %s", logical)}
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int, source string, line int) (models.RawTransaction, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var txn models.RawTransaction
	txn.InvoiceID = field("invoice")

	// Un client absent est attendu (lignes anonymes) ; le nettoyage les écarte.
	if raw := field("customer"); raw != "" {
		id, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return txn, &models.DataError{Source: source, Reason: fmt.Sprintf("ligne %d: customer_id illisible %q", line, raw)}
		}
		txn.CustomerID = uint64(id)
		txn.HasCustomer = true
	}

	qty, err := strconv.Atoi(field("quantity"))
	if err != nil {
		return txn, &models.DataError{Source: source, Reason: fmt.Sprintf("ligne %d: quantité illisible %q", line, field("quantity"))}
	}
	txn.Quantity = qty

	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil {
		return txn, &models.DataError{Source: source, Reason: fmt.Sprintf("ligne %d: prix illisible %q", line, field("price"))}
	}
	txn.UnitPrice = price

	ts, err := parseDate(field("date"))
	if err != nil {
		return txn, &models.DataError{Source: source, Reason: fmt.Sprintf("ligne %d: date illisible %q", line, field("date"))}
	}
	txn.Timestamp = ts
	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("format de date inconnu: %q", s)
}
