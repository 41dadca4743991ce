// Package catalog holds the in-memory card reference index and the on-disk
// lifecycle of the Scryfall bulk files that feed it.
package catalog

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"github.com/codyseavey/decklist-companion/internal/models"
)

const lookupCacheSize = 1024

// SpellCheckNote is appended to a missing-card line whose name resolves to
// nothing in the catalog.
const SpellCheckNote = " <------ This card was not found in database.  Check spelling?"

// byNameLayouts gates the contains-fallback for ByName: only layouts whose
// full name is "Front // Back" may match a single-face query. Kept small so
// "Go" cannot match "Goblin".
var byNameLayouts = map[models.Layout]bool{
	models.LayoutTransform: true,
	models.LayoutFlip:      true,
	models.LayoutSplit:     true,
	models.LayoutModalDFC:  true,
}

// findAllLayouts additionally admits Adventure cards, whose printed name
// also carries both halves. Pricing wants those printings too.
var findAllLayouts = map[models.Layout]bool{
	models.LayoutTransform: true,
	models.LayoutFlip:      true,
	models.LayoutSplit:     true,
	models.LayoutModalDFC:  true,
	models.LayoutAdventure: true,
}

// Store is the name-indexed catalog. One entry is retained per name: the
// printing with the lowest positive price in the configured currency, with
// any priced printing beating an unpriced one.
type Store struct {
	cards    []models.ScryfallCard
	byFolded map[string]int
	currency models.Currency

	// lookupCache memoizes the linear fallback scan ByName does for
	// dual-face names; value is an index into cards, -1 for a miss.
	lookupCache *lru.Cache[string, int]
}

// NewStore builds the index from decoded records. Records are assumed to
// have survived the lenient codec; duplicates collapse under the min-price
// rule.
func NewStore(records []models.ScryfallCard, currency models.Currency) *Store {
	s := &Store{
		byFolded: make(map[string]int),
		currency: currency,
	}
	s.lookupCache, _ = lru.New[string, int](lookupCacheSize)

	for _, rec := range records {
		folded := models.Fold(rec.Name)
		i, seen := s.byFolded[folded]
		if !seen {
			s.byFolded[folded] = len(s.cards)
			s.cards = append(s.cards, rec)
			continue
		}
		if cheaper(rec, s.cards[i], currency) {
			s.cards[i] = rec
		}
	}
	return s
}

// cheaper reports whether a should displace b under the retention rule.
func cheaper(a, b models.ScryfallCard, currency models.Currency) bool {
	ap, aok := positivePrice(a, currency)
	bp, bok := positivePrice(b, currency)
	if !aok {
		return false
	}
	if !bok {
		return true
	}
	return ap.LessThan(bp)
}

// positivePrice parses the configured-currency price string. Missing,
// malformed, zero, and negative all count as "no price".
func positivePrice(c models.ScryfallCard, currency models.Currency) (decimal.Decimal, bool) {
	raw := c.Prices.Amount(currency)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	return len(s.cards)
}

// Cards exposes the retained entries for iteration. Callers must treat the
// slice as read-only.
func (s *Store) Cards() []models.ScryfallCard {
	return s.cards
}

// ByName resolves a card by folded name. Exact folded equality wins; for
// dual-face layouts an entry whose folded full name contains the folded
// query also matches. Returns nil when nothing matches.
func (s *Store) ByName(name string) *models.ScryfallCard {
	folded := models.Fold(name)
	if i, ok := s.byFolded[folded]; ok {
		return &s.cards[i]
	}
	if i, ok := s.lookupCache.Get(folded); ok {
		if i < 0 {
			return nil
		}
		return &s.cards[i]
	}
	for i := range s.cards {
		if byNameLayouts[s.cards[i].Layout] && strings.Contains(models.Fold(s.cards[i].Name), folded) {
			s.lookupCache.Add(folded, i)
			return &s.cards[i]
		}
	}
	s.lookupCache.Add(folded, -1)
	return nil
}

// FindAll returns every entry matching the name, not just the first. Used
// by pricing, which wants the cheapest across all matching printings.
func (s *Store) FindAll(name string) []*models.ScryfallCard {
	folded := models.Fold(name)
	var out []*models.ScryfallCard
	for i := range s.cards {
		entryFolded := models.Fold(s.cards[i].Name)
		if entryFolded == folded {
			out = append(out, &s.cards[i])
			continue
		}
		if findAllLayouts[s.cards[i].Layout] && strings.Contains(entryFolded, folded) {
			out = append(out, &s.cards[i])
		}
	}
	return out
}

// SpellCheck returns an annotation for names the catalog does not know,
// and the empty string for names it does.
func (s *Store) SpellCheck(name string) string {
	if s.ByName(name) != nil {
		return ""
	}
	return SpellCheckNote
}
