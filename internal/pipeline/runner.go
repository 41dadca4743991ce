// Package pipeline drives the staged background work behind the UI:
// directory and config checks, catalog lifecycle, collection and decklist
// loads, and the missing/legality/pricing analysis. Every stage runs on
// its own goroutine and reports back exactly once over its own channel;
// the Runner polls those channels non-blockingly from the UI tick and owns
// the authoritative snapshot.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codyseavey/decklist-companion/internal/catalog"
	"github.com/codyseavey/decklist-companion/internal/collection"
	"github.com/codyseavey/decklist-companion/internal/config"
	"github.com/codyseavey/decklist-companion/internal/metrics"
	"github.com/codyseavey/decklist-companion/internal/models"
	"github.com/codyseavey/decklist-companion/internal/services"
)

const waitingStatus = "Waiting on startup checks..."

// Runner is the task orchestrator. It is owned by the UI loop and is not
// goroutine-safe: all methods must be called from the same goroutine that
// calls Tick. Stage goroutines never touch the Runner, they only send on
// their channel.
type Runner struct {
	log        zerolog.Logger
	client     *services.BulkClient
	configPath string
	cfg        *config.Config

	dirCh   chan directoryResult
	cfgCh   chan configResult
	ageCh   chan ageResult
	dlCh    chan downloadResult
	loadCh  chan loadResult
	collCh  chan listResult
	deckCh  chan listResult
	missCh  chan missingResult
	legCh   chan legalityResult
	priceCh chan pricingResult

	dirStarted, dirDone   bool
	cfgStarted, cfgDone   bool
	ageStarted, ageDone   bool
	dlStarted, dlDone     bool
	loadStarted, loadDone bool
	collInFlight          bool
	deckInFlight          bool
	missInFlight          bool
	missDone              bool
	missAnnotated         bool
	legInFlight, legDone  bool
	priceInFlight         bool
	priceDone             bool
	autoCollectionFired   bool

	located    *catalog.LocatedFile
	store      *catalog.Store
	collection []models.CollectionCard
	decklist   []models.CollectionCard
	missing    []models.CollectionCard

	// fallbackNotice carries the degraded-download message through the
	// load stage so the final status still mentions the stale file.
	fallbackNotice string

	// analysisGen stamps every analysis stage; results from a
	// superseded generation are dropped instead of committed.
	analysisGen uint64

	snap   Snapshot
	redraw bool
}

// NewRunner builds an idle orchestrator. configPath is the config file
// location; an empty string resolves to the platform default.
func NewRunner(logger zerolog.Logger, client *services.BulkClient, configPath string) *Runner {
	if configPath == "" {
		if p, err := config.ConfigFile(); err == nil {
			configPath = p
		}
	}
	return &Runner{
		log:        logger,
		client:     client,
		configPath: configPath,
		cfg:        config.DefaultConfig(),

		dirCh:   make(chan directoryResult, 1),
		cfgCh:   make(chan configResult, 1),
		ageCh:   make(chan ageResult, 1),
		dlCh:    make(chan downloadResult, 1),
		loadCh:  make(chan loadResult, 1),
		collCh:  make(chan listResult, 1),
		deckCh:  make(chan listResult, 1),
		missCh:  make(chan missingResult, 1),
		legCh:   make(chan legalityResult, 1),
		priceCh: make(chan pricingResult, 1),

		snap: Snapshot{
			DirectoryStatus:  waitingStatus,
			ConfigStatus:     waitingStatus,
			DatabaseStatus:   waitingStatus,
			CollectionStatus: waitingStatus,
		},
		redraw: true,
	}
}

// Config returns the active configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

// ConfigReady reports whether the config stage has delivered.
func (r *Runner) ConfigReady() bool {
	return r.cfgDone
}

// Snapshot returns the current view for rendering.
func (r *Runner) Snapshot() Snapshot {
	return r.snap
}

// ConsumeRedraw reports whether anything changed since the last call and
// clears the flag.
func (r *Runner) ConsumeRedraw() bool {
	redraw := r.redraw
	r.redraw = false
	return redraw
}

// Tick advances the pipeline: fire stages whose preconditions just became
// true, then poll every result channel without blocking. Call it once per
// UI tick.
func (r *Runner) Tick() {
	if !r.dirStarted {
		r.dirStarted = true
		r.spawn(StageDirectory, r.runDirectoryCheck)
	}

	select {
	case res := <-r.dirCh:
		r.handleDirectory(res)
	default:
	}
	select {
	case res := <-r.cfgCh:
		r.handleConfig(res)
	default:
	}
	select {
	case res := <-r.ageCh:
		r.handleAge(res)
	default:
	}
	select {
	case res := <-r.dlCh:
		r.handleDownload(res)
	default:
	}
	select {
	case res := <-r.loadCh:
		r.handleLoad(res)
	default:
	}
	select {
	case res := <-r.collCh:
		r.handleCollection(res)
	default:
	}
	select {
	case res := <-r.deckCh:
		r.handleDecklist(res)
	default:
	}
	select {
	case res := <-r.missCh:
		r.handleMissing(res)
	default:
	}
	select {
	case res := <-r.legCh:
		r.handleLegality(res)
	default:
	}
	select {
	case res := <-r.priceCh:
		r.handlePricing(res)
	default:
	}

	r.maybeStartAnalysis()
}

// spawn runs a stage goroutine with logging and duration metrics.
func (r *Runner) spawn(stage string, fn func()) {
	run := uuid.NewString()[:8]
	log := r.log.With().Str("stage", stage).Str("run", run).Logger()
	log.Debug().Msg("stage started")
	start := time.Now()
	go func() {
		fn()
		log.Debug().Dur("took", time.Since(start)).Msg("stage finished")
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()
}

// --- directory stage -------------------------------------------------

func (r *Runner) runDirectoryCheck() {
	res := directoryResult{}
	configDir, cerr := config.ConfigDir()
	dataDir, derr := config.DataDir()
	res.ConfigDir = configDir
	res.DataDir = dataDir
	if cerr != nil || derr != nil {
		res.Status = "Could not resolve program directories for this platform."
		r.dirCh <- res
		return
	}
	if _, err := os.Stat(configDir); err == nil {
		res.ConfigDirExists = true
	}
	if _, err := os.Stat(dataDir); err == nil {
		res.DataDirExists = true
	}
	if res.ConfigDirExists {
		res.Status = fmt.Sprintf("Directory found at %s", configDir)
	} else {
		res.Status = "Program directories do not exist.  Hit enter to create them now."
	}
	r.dirCh <- res
}

func (r *Runner) handleDirectory(res directoryResult) {
	r.dirDone = true
	r.snap.DirectoryStatus = res.Status
	r.snap.DirectoryOK = res.ConfigDirExists
	r.snap.DataDirectoryOK = res.DataDirExists
	r.snap.ConfigDir = res.ConfigDir
	r.snap.DataDir = res.DataDir
	r.redraw = true

	if res.ConfigDirExists && res.DataDirExists {
		r.startConfigCheck()
	}
}

// CreateDirectories creates the config and data directories on user
// request, then lets the config stage proceed. No-op when already present.
func (r *Runner) CreateDirectories() {
	if !r.dirDone {
		return
	}
	if err := os.MkdirAll(r.snap.ConfigDir, 0o755); err != nil {
		r.snap.DirectoryStatus = err.Error()
		r.redraw = true
		return
	}
	if err := os.MkdirAll(r.snap.DataDir, 0o755); err != nil {
		r.snap.DirectoryStatus = err.Error()
		r.redraw = true
		return
	}
	r.snap.DirectoryOK = true
	r.snap.DataDirectoryOK = true
	r.snap.DirectoryStatus = fmt.Sprintf("Directory created at %s", r.snap.ConfigDir)
	r.redraw = true
	r.startConfigCheck()
}

// --- config stage ----------------------------------------------------

func (r *Runner) startConfigCheck() {
	if r.cfgStarted {
		return
	}
	r.cfgStarted = true
	path := r.configPath
	r.spawn(StageConfig, func() {
		cfg, err := config.Load(path)
		res := configResult{Config: cfg, OK: err == nil}
		if err == nil {
			res.Status = "Config successfully loaded."
		} else {
			res.Status = fmt.Sprintf("Failed to load config file: %v.  Using default settings...", err)
		}
		r.cfgCh <- res
	})
}

func (r *Runner) handleConfig(res configResult) {
	r.cfgDone = true
	r.cfg = res.Config
	if r.cfg.DatabasePath == "" {
		r.cfg.DatabasePath = r.snap.DataDir
	}
	r.snap.ConfigStatus = res.Status
	r.snap.ConfigOK = res.OK
	r.redraw = true

	// the remembered collection loads regardless of the catalog pipeline
	if r.cfg.CollectionPath != "" && r.collection == nil && !r.autoCollectionFired {
		r.autoCollectionFired = true
		r.LoadCollection(r.cfg.CollectionPath)
	}

	if !r.cfg.UseDatabase {
		r.ageDone, r.dlDone, r.loadDone = true, true, true
		r.snap.DatabaseStatus = "Card database disabled in config."
		return
	}
	r.startAgeCheck()
}

// --- catalog stages --------------------------------------------------

func (r *Runner) startAgeCheck() {
	if r.ageStarted {
		return
	}
	r.ageStarted = true
	dataDir := r.cfg.DatabasePath
	ageLimit := r.cfg.DatabaseAgeLimit
	r.spawn(StageAgeCheck, func() {
		res := ageResult{}
		located, err := catalog.Locate(dataDir)
		switch {
		case err != nil || located == nil:
			res.NeedDownload = true
			res.Status = "No database file found.  Downloading latest from Scryfall..."
		case catalog.IsStale(catalog.NowStamp(time.Now()), located.Timestamp, ageLimit):
			// keep the stale file on hand in case the download fails
			res.Located = located
			res.NeedDownload = true
			res.Status = fmt.Sprintf(
				"Database file found, but it is older than %d days.  Downloading new file...", ageLimit)
		default:
			res.Located = located
			res.ReadyLoad = true
			res.Status = fmt.Sprintf("Recent database file found: %s", located.Name)
		}
		r.ageCh <- res
	})
}

func (r *Runner) handleAge(res ageResult) {
	r.ageDone = true
	r.located = res.Located
	r.snap.DatabaseStatus = res.Status
	r.redraw = true

	switch {
	case res.NeedDownload:
		r.startDownload()
	case res.ReadyLoad:
		// fresh file on disk, nothing to download
		r.dlDone = true
		r.startLoad(res.Located.Name)
	default:
		r.dlDone, r.loadDone = true, true
	}
}

func (r *Runner) startDownload() {
	if r.dlStarted {
		return
	}
	r.dlStarted = true
	dataDir := r.cfg.DatabasePath
	client := r.client
	r.spawn(StageDownload, func() {
		filename, err := client.DownloadLatest(context.Background(), dataDir)
		if err != nil {
			metrics.StageFailures.WithLabelValues(StageDownload).Inc()
		}
		r.dlCh <- downloadResult{Filename: filename, Err: err}
	})
}

func (r *Runner) handleDownload(res downloadResult) {
	r.dlDone = true
	r.redraw = true

	if res.Err == nil {
		r.snap.DatabaseStatus = fmt.Sprintf("JSON successfully downloaded: %s", res.Filename)
		r.startPrune()
		r.startLoad(res.Filename)
		return
	}

	if r.located != nil {
		r.fallbackNotice = fmt.Sprintf(
			"Failed to download a new file from Scryfall: %v.  Using existing file: %s",
			res.Err, r.located.Name)
		r.snap.DatabaseStatus = r.fallbackNotice
		r.startLoad(r.located.Name)
		return
	}

	r.snap.DatabaseStatus = fmt.Sprintf("Failed to download file from Scryfall: %v", res.Err)
	r.loadDone = true
}

// startPrune enforces the retention count after a successful download.
// Fire and forget: its outcome only shows up in the log.
func (r *Runner) startPrune() {
	dataDir := r.cfg.DatabasePath
	retain := r.cfg.DatabaseNum
	log := r.log
	r.spawn(StagePrune, func() {
		deleted, err := catalog.Prune(dataDir, retain)
		if err != nil {
			log.Warn().Err(err).Msg("catalog prune failed")
			metrics.StageFailures.WithLabelValues(StagePrune).Inc()
			return
		}
		metrics.CatalogFilesPruned.Add(float64(len(deleted)))
		for _, name := range deleted {
			log.Info().Str("file", name).Msg("pruned old catalog file")
		}
	})
}

func (r *Runner) startLoad(filename string) {
	if r.loadStarted {
		return
	}
	r.loadStarted = true
	path := filepath.Join(r.cfg.DatabasePath, filename)
	currency := r.cfg.Currency
	r.spawn(StageLoad, func() {
		cards, dropped, err := catalog.LoadFile(path)
		if err != nil {
			metrics.StageFailures.WithLabelValues(StageLoad).Inc()
			r.loadCh <- loadResult{Err: err}
			return
		}
		store := catalog.NewStore(cards, currency)
		metrics.CatalogCards.Set(float64(store.Len()))
		metrics.CatalogRecordsDropped.Set(float64(dropped))
		r.loadCh <- loadResult{Store: store, Count: store.Len(), Dropped: dropped}
	})
}

func (r *Runner) handleLoad(res loadResult) {
	r.loadDone = true
	r.redraw = true

	if res.Err != nil {
		r.snap.DatabaseStatus = res.Err.Error()
		r.snap.DatabaseOK = false
		return
	}
	r.store = res.Store
	r.snap.DatabaseOK = true
	r.snap.CatalogCount = res.Count
	status := fmt.Sprintf("Loaded %d cards", res.Count)
	if res.Dropped > 0 {
		status = fmt.Sprintf("Loaded %d cards (%d records dropped)", res.Count, res.Dropped)
	}
	if r.fallbackNotice != "" {
		status = fmt.Sprintf("%s  %s", r.fallbackNotice, status)
	}
	r.snap.DatabaseStatus = status
	// fresh catalog: missing annotations need recomputing
	r.missAnnotated = false
}

// --- collection and decklist stages ----------------------------------

// LoadCollection reads the collection CSV at path in the background.
func (r *Runner) LoadCollection(path string) {
	if r.collInFlight {
		return
	}
	r.collInFlight = true
	r.snap.CollectionStatus = "Loading collection..."
	r.redraw = true
	r.spawn(StageCollection, func() {
		cards, err := collection.ReadCollectionCSV(path)
		if err != nil {
			metrics.StageFailures.WithLabelValues(StageCollection).Inc()
		}
		r.collCh <- listResult{Cards: cards, Path: path, Err: err}
	})
}

func (r *Runner) handleCollection(res listResult) {
	r.collInFlight = false
	r.redraw = true
	if res.Err != nil {
		r.snap.CollectionStatus = res.Err.Error()
		r.snap.CollectionOK = false
		return
	}
	r.collection = res.Cards
	r.snap.Collection = res.Cards
	r.snap.CollectionPath = res.Path
	r.snap.CollectionOK = true
	r.snap.CollectionStatus = fmt.Sprintf("Collection loaded successfully: %s", res.Path)
	r.resetAnalysis()
}

// LoadDecklist reads the decklist at path in the background.
func (r *Runner) LoadDecklist(path string) {
	if r.deckInFlight {
		return
	}
	r.deckInFlight = true
	r.snap.DecklistStatus = "Loading decklist..."
	r.redraw = true
	r.spawn(StageDecklist, func() {
		cards, err := collection.ReadDecklist(path)
		if err != nil {
			metrics.StageFailures.WithLabelValues(StageDecklist).Inc()
		}
		r.deckCh <- listResult{Cards: cards, Path: path, Err: err}
	})
}

func (r *Runner) handleDecklist(res listResult) {
	r.deckInFlight = false
	r.redraw = true
	if res.Err != nil {
		r.snap.DecklistStatus = res.Err.Error()
		r.snap.DecklistOK = false
		return
	}
	r.decklist = res.Cards
	r.snap.Decklist = res.Cards
	r.snap.DecklistPath = res.Path
	r.snap.DecklistOK = true
	r.snap.DecklistStatus = fmt.Sprintf("Decklist loaded successfully: %s", res.Path)
	r.resetAnalysis()
}

// ClearCollection drops the loaded collection and any derived results.
func (r *Runner) ClearCollection() {
	r.collection = nil
	r.snap.Collection = nil
	r.snap.CollectionPath = ""
	r.snap.CollectionOK = false
	r.snap.CollectionStatus = "Collection cleared."
	r.resetAnalysis()
}

// ClearDecklist drops the loaded decklist and any derived results.
func (r *Runner) ClearDecklist() {
	r.decklist = nil
	r.snap.Decklist = nil
	r.snap.DecklistPath = ""
	r.snap.DecklistOK = false
	r.snap.DecklistStatus = "Decklist cleared."
	r.resetAnalysis()
}

// resetAnalysis clears derived results so the next tick recomputes them.
// Loading a new collection or decklist implicitly invalidates the old diff,
// including any stage still in flight against the old lists: bumping the
// generation makes their late results land dead.
func (r *Runner) resetAnalysis() {
	r.analysisGen++
	r.missDone = false
	r.missAnnotated = false
	r.legDone = false
	r.priceDone = false
	r.missing = nil
	r.snap.MissingComputed = false
	r.snap.Missing = nil
	r.snap.Legality = nil
	r.snap.LegalityStatus = ""
	r.snap.Prices = nil
	r.snap.PricingStatus = ""
	r.redraw = true
}

// --- analysis stages -------------------------------------------------

// maybeStartAnalysis fires the difference engine when both lists are in,
// then legality and pricing once the diff exists. Legality and pricing
// wait for the catalog; if the catalog pipeline finished without an index
// they degrade to a "no data" status instead.
func (r *Runner) maybeStartAnalysis() {
	if r.collection == nil || r.decklist == nil {
		return
	}

	if !r.missDone && !r.missInFlight {
		r.missInFlight = true
		coll, deck, gen := r.collection, r.decklist, r.analysisGen
		r.spawn(StageMissing, func() {
			r.missCh <- missingResult{Missing: collection.FindMissing(coll, deck), gen: gen}
		})
		return
	}
	if !r.missDone {
		return
	}

	if r.store != nil {
		if !r.missAnnotated {
			r.annotateMissing()
		}
		if !r.legDone && !r.legInFlight {
			r.legInFlight = true
			deck, store, gen := r.decklist, r.store, r.analysisGen
			r.spawn(StageLegality, func() {
				r.legCh <- legalityResult{Vector: services.CheckLegality(deck, store), gen: gen}
			})
		}
		if !r.priceDone && !r.priceInFlight {
			r.priceInFlight = true
			missing, store, currency, gen := r.missing, r.store, r.cfg.Currency, r.analysisGen
			r.spawn(StagePricing, func() {
				r.priceCh <- pricingResult{Report: services.PriceMissing(missing, store, currency), gen: gen}
			})
		}
		return
	}

	// catalog pipeline finished without an index: degrade
	if r.catalogDone() {
		if !r.legDone {
			r.legDone = true
			r.snap.LegalityStatus = "No card database loaded.  Legality unknown."
			r.redraw = true
		}
		if !r.priceDone {
			r.priceDone = true
			r.snap.PricingStatus = "No card database loaded.  Prices unavailable."
			r.redraw = true
		}
	}
}

func (r *Runner) handleMissing(res missingResult) {
	r.missInFlight = false
	if res.gen != r.analysisGen {
		return
	}
	r.missDone = true
	r.missing = res.Missing
	r.snap.MissingComputed = true
	r.snap.Missing = make([]MissingLine, len(res.Missing))
	var total uint64
	for i, card := range res.Missing {
		r.snap.Missing[i] = MissingLine{Card: card}
		total += card.Quantity
	}
	metrics.MissingCards.Set(float64(total))
	r.redraw = true
}

// annotateMissing fills in the spell-check notes once both the missing
// list and the catalog index exist.
func (r *Runner) annotateMissing() {
	for i := range r.snap.Missing {
		r.snap.Missing[i].Note = r.store.SpellCheck(r.snap.Missing[i].Card.Name)
	}
	r.missAnnotated = true
	r.redraw = true
}

func (r *Runner) handleLegality(res legalityResult) {
	r.legInFlight = false
	if res.gen != r.analysisGen {
		return
	}
	r.legDone = true
	r.snap.Legality = res.Vector
	r.snap.LegalityStatus = ""
	r.redraw = true
}

func (r *Runner) handlePricing(res pricingResult) {
	r.priceInFlight = false
	if res.gen != r.analysisGen {
		return
	}
	r.priceDone = true
	report := res.Report
	r.snap.Prices = &report
	r.snap.PricingStatus = ""
	r.redraw = true
}

// --- user actions ----------------------------------------------------

// SaveConfig persists the current settings, remembering the loaded
// collection path when one exists.
func (r *Runner) SaveConfig() error {
	if r.snap.CollectionPath != "" {
		r.cfg.CollectionPath = r.snap.CollectionPath
	}
	return r.cfg.Save(r.configPath)
}

// MissingCards returns the raw missing list for export.
func (r *Runner) MissingCards() []models.CollectionCard {
	return r.missing
}

// SaveMissingFile writes the missing list next to the loaded decklist.
func (r *Runner) SaveMissingFile() (string, error) {
	if !r.missDone {
		return "", fmt.Errorf("no missing list computed yet")
	}
	if r.snap.DecklistPath == "" {
		return "", fmt.Errorf("no decklist loaded")
	}
	return collection.SaveMissing(r.missing, r.snap.DecklistPath)
}

// --- completion ------------------------------------------------------

func (r *Runner) catalogDone() bool {
	if !r.cfgDone {
		return false
	}
	if !r.cfg.UseDatabase {
		return true
	}
	return r.ageDone && r.dlDone && r.loadDone
}

// Settled reports whether every runnable stage has delivered: startup
// checks and the catalog pipeline are finished, no load is in flight, and
// when both lists are present the analysis has resolved too. Headless
// callers spin Tick until this turns true.
func (r *Runner) Settled() bool {
	if !r.dirDone || !r.cfgDone {
		return false
	}
	if r.snap.DirectoryOK && !r.catalogDone() {
		return false
	}
	if r.collInFlight || r.deckInFlight {
		return false
	}
	if r.collection != nil && r.decklist != nil {
		if !r.missDone || !r.legDone || !r.priceDone {
			return false
		}
		if r.store != nil && !r.missAnnotated {
			return false
		}
	}
	return true
}
