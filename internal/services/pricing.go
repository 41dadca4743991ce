package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/decklist-companion/internal/catalog"
	"github.com/codyseavey/decklist-companion/internal/metrics"
	"github.com/codyseavey/decklist-companion/internal/models"
)

// PriceLine is the priced form of one missing card, aligned 1:1 with the
// missing sequence.
type PriceLine struct {
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Display   string  `json:"display"`
}

// PriceReport aggregates the market cost of the missing cards.
type PriceReport struct {
	Lines    []PriceLine     `json:"lines"`
	Total    float64         `json:"total"`
	Currency models.Currency `json:"currency"`
}

// PriceMissing prices each missing card at the minimum positive price
// across every catalog entry its name matches, times the missing quantity.
// Cards with no usable price get a zero line; money math runs on decimals
// and only the exported fields are floats.
func PriceMissing(missing []models.CollectionCard, store *catalog.Store, currency models.Currency) PriceReport {
	report := PriceReport{
		Lines:    make([]PriceLine, 0, len(missing)),
		Currency: currency,
	}
	total := decimal.Zero

	for _, card := range missing {
		unit := minimumPrice(store.FindAll(card.Name), currency)
		line := unit.Mul(decimal.NewFromInt(int64(card.Quantity)))
		total = total.Add(line)

		report.Lines = append(report.Lines, PriceLine{
			UnitPrice: unit.InexactFloat64(),
			LineTotal: line.InexactFloat64(),
			Display: fmt.Sprintf("[%s] x%d = %s%s",
				unit.StringFixed(2), card.Quantity, currency.Symbol(), line.StringFixed(2)),
		})
	}

	report.Total = total.InexactFloat64()
	metrics.MissingValue.WithLabelValues(string(currency)).Set(report.Total)
	return report
}

// minimumPrice picks the lowest positive price among the matched entries;
// zero when none of them carries one.
func minimumPrice(entries []*models.ScryfallCard, currency models.Currency) decimal.Decimal {
	min := decimal.Zero
	found := false
	for _, entry := range entries {
		raw := entry.Prices.Amount(currency)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || !d.IsPositive() {
			continue
		}
		if !found || d.LessThan(min) {
			min = d
			found = true
		}
	}
	return min
}
