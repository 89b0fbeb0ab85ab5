package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"clv-forecast/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// DefaultTable est la table de transactions lue par défaut.
const DefaultTable = "Transactions"

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplet (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadTransactions lit toutes les lignes de commande de la table donnée,
// telles quelles : aucune validation ici, c'est le nettoyage qui écarte les
// lignes invalides en aval. CustomerID NULL devient HasCustomer=false.
func LoadTransactions(ctx context.Context, db *sql.DB, tableName string, verbose bool) ([]models.RawTransaction, error) {
	if tableName == "" {
		tableName = DefaultTable
	}
	if !tableNameRe.MatchString(tableName) {
		return nil, fmt.Errorf("table invalide")
	}

	q := fmt.Sprintf(`
		SELECT
			t.InvoiceNo,
			t.CustomerID,
			COALESCE(t.Quantity, 0) AS quantity,
			COALESCE(t.UnitPrice, 0) AS unitPrice,
			t.InvoiceDate
		FROM %s t
		ORDER BY t.InvoiceDate
	`, tableName)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	var out []models.RawTransaction
	for rows.Next() {
		var (
			invoice    sql.NullString
			customerID sql.NullInt64
			quantity   int
			unitPrice  float64
			date       sql.NullTime
		)
		if err := rows.Scan(&invoice, &customerID, &quantity, &unitPrice, &date); err != nil {
			return nil, fmt.Errorf("scan %s: %w", tableName, err)
		}
		txn := models.RawTransaction{
			InvoiceID: invoice.String,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
		if customerID.Valid && customerID.Int64 > 0 {
			txn.CustomerID = uint64(customerID.Int64)
			txn.HasCustomer = true
		}
		if date.Valid {
			txn.Timestamp = date.Time.UTC()
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", tableName, err)
	}

	if verbose {
		log.Printf("[INFO] %d lignes lues depuis %s", len(out), tableName)
	}
	return out, nil
}
