package models

import (
	"time"
)

/*
LOAD → types simples pour charger les transactions brutes (fichier CSV ou base de données).
*/

// RawTransaction représente une ligne de commande brute telle qu'elle est lue depuis la source.
// HasCustomer vaut false quand la ligne source n'a pas d'identifiant client.
type RawTransaction struct {
	InvoiceID   string
	CustomerID  uint64
	HasCustomer bool
	Quantity    int
	UnitPrice   float64
	Timestamp   time.Time
}

// ValidTransaction représente une transaction ayant passé le nettoyage : client présent,
// pas une annulation, quantité et prix unitaire strictement positifs.
// LineTotal = Quantity × UnitPrice, toujours > 0.
type ValidTransaction struct {
	InvoiceID  string
	CustomerID uint64
	Quantity   int
	UnitPrice  float64
	LineTotal  float64
	Timestamp  time.Time
}

/*
COMPUTE → résumé comportemental par client et résultat CLV.
*/

// CustomerSummary contient le résumé RFM consommé par les deux modèles.
// Frequency compte les jours d'achat répétés (jours d'achat distincts moins un).
// Recency et T sont en jours ; Recency ≤ T est un invariant.
// MonetaryValue est le panier moyen des transactions postérieures au premier
// jour d'achat ; vaut 0 et n'a pas de sens quand Frequency == 0.
type CustomerSummary struct {
	CustomerID    uint64
	Frequency     float64
	Recency       float64
	T             float64
	MonetaryValue float64
}

// CLVResult contient l'estimation finale pour un client sur un horizon donné.
type CLVResult struct {
	CustomerID         uint64
	HorizonDays        float64 // Horizon de prévision (jours).
	PredictedPurchases float64 // Nombre d'achats attendus sur l'horizon.
	PredictedAvgValue  float64 // Panier moyen attendu.
	PredictedCLV       float64 // CLV = achats × panier × facteur d'actualisation.
}

/*
CONFIG → paramètres globaux
*/

// Config contient les paramètres de configuration passés au pipeline.
type Config struct {
	ObservationEnd time.Time     // borne haute de la fenêtre d'observation (UTC) ; zéro = max(date)+1j
	HorizonDays    float64       // fenêtre de prévision en jours
	DiscountRate   float64       // taux d'actualisation mensuel (0 = pas d'actualisation)
	MinFrequency   float64       // fréquence minimale pour le modèle de dépense (défaut 1)
	Penalizer      float64       // coefficient de régularisation L2 des deux ajustements
	FitTimeout     time.Duration // plafond temps-mur par optimisation (0 = illimité)
	TopN           int           // nombre de clients affichés
	Verbose        bool          // Flag pour activer les logs détaillés.
}
