package models

import "fmt"

/*
ERREURS → trois familles : données d'entrée, ajustement des modèles, requête de prédiction.
*/

// DataError signale une source de transactions inexploitable : colonne
// requise absente, date ou nombre illisible. Les lignes individuellement
// malformées sont écartées silencieusement au nettoyage, pas ici.
type DataError struct {
	Source string // fichier ou table concerné
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data %s: %s", e.Source, e.Reason)
}

// FittingError signale un ajustement de modèle impossible : optimiseur non
// convergent, plafond de temps dépassé, ou trop peu de clients qualifiés.
// Fatal : aucune prédiction ne peut être produite.
type FittingError struct {
	Model  string // "BG/NBD" ou "Gamma-Gamma"
	Reason string
	Err    error
}

func (e *FittingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fit %s: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("fit %s: %s", e.Model, e.Reason)
}

func (e *FittingError) Unwrap() error { return e.Err }

// InputError signale une requête de prédiction invalide : client inconnu du
// résumé, ou appel au modèle de dépense pour un client sans achat répété.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input: %s", e.Reason)
}
