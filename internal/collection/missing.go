package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codyseavey/decklist-companion/internal/models"
)

// FindMissing compares the decklist against the collection and returns the
// cards (with quantities) the collection cannot supply, in decklist order.
// A nil result means nothing is missing, which downstream distinguishes
// from "no diff computed yet".
func FindMissing(collection, decklist []models.CollectionCard) []models.CollectionCard {
	var missing []models.CollectionCard
	for _, want := range decklist {
		found := false
		for _, have := range collection {
			if !namesMatch(want.Name, have.Name) {
				continue
			}
			found = true
			if have.Quantity < want.Quantity {
				missing = append(missing, models.CollectionCard{
					Name:     want.Name,
					Quantity: want.Quantity - have.Quantity,
				})
			}
			break
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}

// namesMatch applies folded equality plus the dual-face rules: a full
// "Front // Back" name on either side matches the other side's bare front
// face. First hit wins; names are never rewritten for display.
func namesMatch(deckName, collectionName string) bool {
	deckFolded := models.Fold(deckName)
	collFolded := models.Fold(collectionName)
	if deckFolded == collFolded {
		return true
	}
	if strings.Contains(collectionName, "//") &&
		models.Fold(models.FrontFace(collectionName)) == deckFolded {
		return true
	}
	if strings.Contains(deckName, "//") &&
		models.Fold(models.FrontFace(deckName)) == collFolded {
		return true
	}
	return false
}

// FormatMissing renders the missing list in the decklist line format, one
// card per line. This is the clipboard and file export payload.
func FormatMissing(missing []models.CollectionCard) string {
	var b strings.Builder
	for _, card := range missing {
		fmt.Fprintf(&b, "%s\n", card)
	}
	return b.String()
}

// SaveMissing writes the missing list next to its decklist as
// missing_<decklist-stem>.txt and returns the written path.
func SaveMissing(missing []models.CollectionCard, decklistPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(decklistPath), filepath.Ext(decklistPath))
	out := filepath.Join(filepath.Dir(decklistPath), fmt.Sprintf("missing_%s.txt", stem))
	if err := os.WriteFile(out, []byte(FormatMissing(missing)), 0o644); err != nil {
		return "", fmt.Errorf("write missing list: %w", err)
	}
	return out, nil
}
