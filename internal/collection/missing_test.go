package collection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codyseavey/decklist-companion/internal/models"
)

func TestFindMissingQuantities(t *testing.T) {
	have := []models.CollectionCard{
		{Name: "Island", Quantity: 4},
		{Name: "Opt", Quantity: 2},
	}
	want := []models.CollectionCard{
		{Name: "Island", Quantity: 4},
		{Name: "Opt", Quantity: 4},
		{Name: "Brainstorm", Quantity: 1},
	}
	missing := FindMissing(have, want)
	expected := []models.CollectionCard{
		{Name: "Opt", Quantity: 2},
		{Name: "Brainstorm", Quantity: 1},
	}
	if len(missing) != len(expected) {
		t.Fatalf("got %d missing, want %d: %v", len(missing), len(expected), missing)
	}
	for i := range expected {
		if missing[i] != expected[i] {
			t.Errorf("missing %d = %v, want %v", i, missing[i], expected[i])
		}
	}
}

func TestFindMissingNothingMissing(t *testing.T) {
	have := []models.CollectionCard{{Name: "Shock", Quantity: 4}}
	want := []models.CollectionCard{{Name: "Shock", Quantity: 4}}
	if missing := FindMissing(have, want); missing != nil {
		t.Errorf("missing = %v, want nil", missing)
	}
}

func TestFindMissingFoldsDiacritics(t *testing.T) {
	have := []models.CollectionCard{{Name: "Séance", Quantity: 4}}
	want := []models.CollectionCard{{Name: "seance", Quantity: 2}}
	if missing := FindMissing(have, want); missing != nil {
		t.Errorf("missing = %v, want nil (diacritic fold)", missing)
	}

	// Shortfall across the fold keeps the decklist's spelling.
	have = []models.CollectionCard{{Name: "Séance", Quantity: 1}}
	want = []models.CollectionCard{{Name: "Seance", Quantity: 2}}
	missing := FindMissing(have, want)
	if len(missing) != 1 || missing[0].Name != "Seance" || missing[0].Quantity != 1 {
		t.Errorf("missing = %v, want 1 Seance", missing)
	}
}

func TestFindMissingDualFaceNames(t *testing.T) {
	// Collection lists the full face pair, decklist just the front face.
	have := []models.CollectionCard{{Name: "Fire // Ice", Quantity: 4}}
	want := []models.CollectionCard{{Name: "Fire", Quantity: 4}}
	if missing := FindMissing(have, want); missing != nil {
		t.Errorf("missing = %v, want nil (collection has full name)", missing)
	}

	// And the other way around.
	have = []models.CollectionCard{{Name: "Fire", Quantity: 4}}
	want = []models.CollectionCard{{Name: "Fire // Ice", Quantity: 4}}
	if missing := FindMissing(have, want); missing != nil {
		t.Errorf("missing = %v, want nil (decklist has full name)", missing)
	}

	// Back faces do not match the front-face rule.
	have = []models.CollectionCard{{Name: "Fire // Ice", Quantity: 4}}
	want = []models.CollectionCard{{Name: "Ice", Quantity: 4}}
	missing := FindMissing(have, want)
	if len(missing) != 1 || missing[0].Name != "Ice" {
		t.Errorf("missing = %v, want Ice unmatched", missing)
	}
}

func TestFindMissingKeepsDeckOrderAndNames(t *testing.T) {
	have := []models.CollectionCard{{Name: "Séance", Quantity: 1}}
	want := []models.CollectionCard{
		{Name: "Zealous Conscripts", Quantity: 1},
		{Name: "seance", Quantity: 3},
		{Name: "Altar of Dementia", Quantity: 1},
	}
	missing := FindMissing(have, want)
	if len(missing) != 3 {
		t.Fatalf("got %d missing, want 3: %v", len(missing), missing)
	}
	// Names come back as the decklist wrote them, in decklist order.
	if missing[0].Name != "Zealous Conscripts" || missing[1].Name != "seance" || missing[2].Name != "Altar of Dementia" {
		t.Errorf("missing order/names wrong: %v", missing)
	}
	if missing[1].Quantity != 2 {
		t.Errorf("seance shortfall = %d, want 2", missing[1].Quantity)
	}
}

func TestFormatMissing(t *testing.T) {
	missing := []models.CollectionCard{
		{Name: "Shock", Quantity: 4},
		{Name: "Fire // Ice", Quantity: 2},
	}
	got := FormatMissing(missing)
	want := "4 Shock\n2 Fire // Ice\n"
	if got != want {
		t.Errorf("FormatMissing = %q, want %q", got, want)
	}
	if FormatMissing(nil) != "" {
		t.Error("FormatMissing(nil) should be empty")
	}
}

func TestSaveMissing(t *testing.T) {
	dir := t.TempDir()
	deckPath := filepath.Join(dir, "burn.txt")
	missing := []models.CollectionCard{{Name: "Lightning Bolt", Quantity: 4}}

	out, err := SaveMissing(missing, deckPath)
	if err != nil {
		t.Fatalf("SaveMissing: %v", err)
	}
	if filepath.Base(out) != "missing_burn.txt" {
		t.Errorf("output file = %q, want missing_burn.txt", filepath.Base(out))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "4 Lightning Bolt") {
		t.Errorf("output content = %q", data)
	}
}
