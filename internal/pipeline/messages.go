package pipeline

import (
	"github.com/codyseavey/decklist-companion/internal/catalog"
	"github.com/codyseavey/decklist-companion/internal/config"
	"github.com/codyseavey/decklist-companion/internal/models"
	"github.com/codyseavey/decklist-companion/internal/services"
)

// Stage names, used for logging and metrics labels.
const (
	StageDirectory  = "directory"
	StageConfig     = "config"
	StageAgeCheck   = "age_check"
	StageDownload   = "download"
	StagePrune      = "prune"
	StageLoad       = "load"
	StageCollection = "collection_load"
	StageDecklist   = "decklist_load"
	StageMissing    = "missing"
	StageLegality   = "legality"
	StagePricing    = "pricing"
)

// directoryResult reports the startup directory check.
type directoryResult struct {
	ConfigDir       string
	DataDir         string
	ConfigDirExists bool
	DataDirExists   bool
	Status          string
}

// configResult reports the config load.
type configResult struct {
	Config *config.Config
	Status string
	OK     bool
}

// ageResult reports the catalog freshness check.
type ageResult struct {
	Located      *catalog.LocatedFile
	NeedDownload bool
	ReadyLoad    bool
	Status       string
}

// downloadResult reports the bulk download.
type downloadResult struct {
	Filename string
	Err      error
}

// loadResult delivers the built catalog index.
type loadResult struct {
	Store   *catalog.Store
	Count   int
	Dropped int
	Err     error
}

// listResult delivers a loaded collection or decklist.
type listResult struct {
	Cards []models.CollectionCard
	Path  string
	Err   error
}

// Analysis results carry the generation they were computed under; the
// runner discards results from a superseded generation.

// missingResult delivers the difference-engine output.
type missingResult struct {
	Missing []models.CollectionCard
	gen     uint64
}

// legalityResult delivers the per-format vector.
type legalityResult struct {
	Vector services.LegalityVector
	gen    uint64
}

// pricingResult delivers the priced missing list.
type pricingResult struct {
	Report services.PriceReport
	gen    uint64
}

// MissingLine is one row of the missing tab: the card plus the spell-check
// annotation filled in once the catalog is available.
type MissingLine struct {
	Card models.CollectionCard
	Note string
}

// Snapshot is the read-only view the rendering layer consumes. Slices are
// shared and must not be mutated by the reader.
type Snapshot struct {
	DirectoryStatus string
	DirectoryOK     bool
	DataDirectoryOK bool
	ConfigDir       string
	DataDir         string

	ConfigStatus string
	ConfigOK     bool

	DatabaseStatus string
	DatabaseOK     bool
	CatalogCount   int

	CollectionStatus string
	CollectionOK     bool
	Collection       []models.CollectionCard
	CollectionPath   string

	DecklistStatus string
	DecklistOK     bool
	Decklist       []models.CollectionCard
	DecklistPath   string

	MissingComputed bool
	Missing         []MissingLine

	LegalityStatus string
	Legality       services.LegalityVector

	PricingStatus string
	Prices        *services.PriceReport
}
