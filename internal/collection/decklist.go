package collection

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codyseavey/decklist-companion/internal/models"
)

// ReadDecklist parses the loose decklist format: one "<count> <name…>"
// per line. Blank lines, lines with fewer than two tokens, and the literal
// Sideboard marker are skipped. A first token that is not a non-negative
// integer fails the whole file, since it usually means the file is not a
// decklist at all.
func ReadDecklist(path string) ([]models.CollectionCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open decklist file: %w", err)
	}

	var decklist []models.CollectionCard
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "sideboard") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 {
			continue
		}
		quantity, err := strconv.ParseUint(words[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decklist line %q: bad count: %w", line, err)
		}
		decklist = append(decklist, models.CollectionCard{
			Name:     strings.Join(words[1:], " "),
			Quantity: quantity,
		})
	}
	return decklist, nil
}
