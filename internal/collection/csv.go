// Package collection reads the user's owned-card list and target decklist
// and computes what is missing between them.
package collection

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/codyseavey/decklist-companion/internal/models"
)

// ReadCollectionCSV reads a Moxfield-style collection export: a header row
// with at least Name and Count columns, one row per printing. Rows sharing
// a name are squashed into one record afterwards.
func ReadCollectionCSV(path string) ([]models.CollectionCard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open collection file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read collection header: %w", err)
	}

	nameCol, countCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Name":
			nameCol = i
		case "Count":
			countCol = i
		}
	}
	if nameCol < 0 || countCol < 0 {
		return nil, fmt.Errorf("collection file needs Name and Count columns, got %v", header)
	}

	var cards []models.CollectionCard
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read collection row: %w", err)
		}
		if nameCol >= len(row) || countCol >= len(row) {
			return nil, fmt.Errorf("collection line %d is missing columns", line)
		}
		quantity, err := strconv.ParseUint(strings.TrimSpace(row[countCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("collection line %d: bad count: %w", line, err)
		}
		cards = append(cards, models.CollectionCard{
			Name:     row[nameCol],
			Quantity: quantity,
		})
	}

	return Squash(cards), nil
}

// Squash folds rows with identical names into one record by summing their
// quantities, preserving first-seen order. Collection exports list each
// printing separately; this tool only cares about names.
func Squash(in []models.CollectionCard) []models.CollectionCard {
	out := make([]models.CollectionCard, 0, len(in))
	index := make(map[string]int, len(in))
	for _, card := range in {
		if i, seen := index[card.Name]; seen {
			out[i].Quantity += card.Quantity
			continue
		}
		index[card.Name] = len(out)
		out = append(out, card)
	}
	return out
}
