package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/codyseavey/decklist-companion/internal/models"
)

// DecodeCatalog reads a bulk JSON array of card records from r. Records
// that fail to decode (unknown enum token, wrong shape) are dropped and
// counted; only malformed JSON fails the whole stream. The file runs to
// tens of megabytes, so records are decoded one at a time rather than
// unmarshalling the array wholesale.
func DecodeCatalog(r io.Reader) (cards []models.ScryfallCard, dropped int, err error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("read catalog: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, 0, fmt.Errorf("read catalog: expected JSON array, got %v", tok)
	}

	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, dropped, fmt.Errorf("read catalog: %w", err)
		}
		var card models.ScryfallCard
		if err := json.Unmarshal(raw, &card); err != nil {
			dropped++
			continue
		}
		cards = append(cards, card)
	}

	if _, err := dec.Token(); err != nil {
		return nil, dropped, fmt.Errorf("read catalog: %w", err)
	}
	return cards, dropped, nil
}

// LoadFile decodes the named catalog file.
func LoadFile(path string) ([]models.ScryfallCard, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return DecodeCatalog(f)
}
