package services

import (
	"github.com/codyseavey/decklist-companion/internal/catalog"
	"github.com/codyseavey/decklist-companion/internal/models"
)

// LegalityVector holds one flag per format: true while every resolved deck
// card is playable there.
type LegalityVector map[models.Format]bool

// NewLegalityVector starts with every format legal; the aggregator only
// ever flips flags to false.
func NewLegalityVector() LegalityVector {
	v := make(LegalityVector, len(models.AllFormats()))
	for _, f := range models.AllFormats() {
		v[f] = true
	}
	return v
}

// CheckLegality AND-reduces per-card legality across the decklist. Names
// the catalog cannot resolve leave every flag untouched; once a format
// flips false it stays false. Deck-size and singleton rules are not
// checked, only per-card status.
func CheckLegality(decklist []models.CollectionCard, store *catalog.Store) LegalityVector {
	vector := NewLegalityVector()
	for _, card := range decklist {
		entry := store.ByName(card.Name)
		if entry == nil {
			continue
		}
		for format, still := range vector {
			if !still {
				continue
			}
			vector[format] = entry.Legalities[format].Playable()
		}
	}
	return vector
}
