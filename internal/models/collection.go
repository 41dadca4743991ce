package models

import "fmt"

// CollectionCard is the canonical name/quantity record shared by the
// collection (inventory) and decklist readers. Names are preserved
// verbatim, diacritics and the "//" face separator included; folding only
// happens at comparison time.
type CollectionCard struct {
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
}

// String renders the decklist line form, which is also the clipboard and
// missing-file export format.
func (c CollectionCard) String() string {
	return fmt.Sprintf("%d %s", c.Quantity, c.Name)
}
