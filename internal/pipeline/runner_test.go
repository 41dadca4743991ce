package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/codyseavey/decklist-companion/internal/catalog"
	"github.com/codyseavey/decklist-companion/internal/config"
	"github.com/codyseavey/decklist-companion/internal/models"
	"github.com/codyseavey/decklist-companion/internal/services"
)

const catalogJSON = `[
	{"name": "Lightning Bolt", "layout": "normal",
	 "legalities": {"modern": "legal", "legacy": "legal", "vintage": "legal"},
	 "prices": {"usd": "1.50"}},
	{"name": "Counterspell", "layout": "normal",
	 "legalities": {"modern": "not_legal", "legacy": "legal", "vintage": "legal"},
	 "prices": {"usd": "0.75"}}
]`

// testEnv points the platform directories and config file into temp space
// and seeds the collection and decklist files the runner will load.
type testEnv struct {
	dataDir        string
	configPath     string
	collectionPath string
	decklistPath   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()

	configHome := filepath.Join(root, "config")
	cacheHome := filepath.Join(root, "cache")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	for _, dir := range []string{
		filepath.Join(configHome, config.AppName),
		filepath.Join(cacheHome, config.AppName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	env := &testEnv{
		dataDir:        filepath.Join(root, "catalogs"),
		configPath:     filepath.Join(root, "config.toml"),
		collectionPath: filepath.Join(root, "collection.csv"),
		decklistPath:   filepath.Join(root, "deck.txt"),
	}
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	collectionCSV := "Count,Name\n2,Lightning Bolt\n4,Counterspell\n"
	decklist := "4 Lightning Bolt\n2 Counterspell\n1 Imaginary Dragon\n"
	if err := os.WriteFile(env.collectionPath, []byte(collectionCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.decklistPath, []byte(decklist), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e *testEnv) writeConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	if err := cfg.Save(e.configPath); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) writeCatalog(t *testing.T, stamp uint64) string {
	t.Helper()
	name := fmt.Sprintf("oracle-cards-%d.json", stamp)
	if err := os.WriteFile(filepath.Join(e.dataDir, name), []byte(catalogJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}

// driveUntilSettled spins the tick loop the way the UI does, queuing the
// list loads once the config stage has delivered.
func driveUntilSettled(t *testing.T, r *Runner, env *testEnv) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	queued := false
	for !r.Settled() {
		if time.Now().After(deadline) {
			t.Fatalf("runner never settled; snapshot: %+v", r.Snapshot())
		}
		r.Tick()
		if !queued && r.ConfigReady() {
			queued = true
			r.LoadCollection(env.collectionPath)
			r.LoadDecklist(env.decklistPath)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func deadClient() *services.BulkClient {
	return services.NewBulkClientWithURL("decklist-test", "0.0.0", "http://127.0.0.1:0/unreachable")
}

func TestRunnerFullPipelineWithFreshCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.writeCatalog(t, catalog.NowStamp(time.Now()))
	env.writeConfig(t, &config.Config{
		UseDatabase:      true,
		DatabasePath:     env.dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	driveUntilSettled(t, r, env)
	snap := r.Snapshot()

	if !snap.ConfigOK {
		t.Errorf("config stage failed: %s", snap.ConfigStatus)
	}
	if !snap.DatabaseOK {
		t.Fatalf("catalog stage failed: %s", snap.DatabaseStatus)
	}
	if snap.CatalogCount != 2 {
		t.Errorf("catalog count = %d, want 2", snap.CatalogCount)
	}
	if !snap.CollectionOK || !snap.DecklistOK {
		t.Fatalf("list loads failed: %s / %s", snap.CollectionStatus, snap.DecklistStatus)
	}

	if !snap.MissingComputed {
		t.Fatal("missing diff never computed")
	}
	if len(snap.Missing) != 2 {
		t.Fatalf("missing = %v, want 2 lines", snap.Missing)
	}
	if snap.Missing[0].Card.Name != "Lightning Bolt" || snap.Missing[0].Card.Quantity != 2 {
		t.Errorf("missing[0] = %v, want 2 Lightning Bolt", snap.Missing[0].Card)
	}
	if snap.Missing[0].Note != "" {
		t.Errorf("known card got a spell-check note: %q", snap.Missing[0].Note)
	}
	if snap.Missing[1].Card.Name != "Imaginary Dragon" {
		t.Errorf("missing[1] = %v", snap.Missing[1].Card)
	}
	if snap.Missing[1].Note != catalog.SpellCheckNote {
		t.Errorf("unknown card note = %q, want annotation", snap.Missing[1].Note)
	}

	if snap.Legality == nil {
		t.Fatal("legality never computed")
	}
	if snap.Legality[models.FormatModern] {
		t.Error("modern should be false: Counterspell is not_legal there")
	}
	if !snap.Legality[models.FormatLegacy] {
		t.Error("legacy should be true")
	}

	if snap.Prices == nil {
		t.Fatal("pricing never computed")
	}
	if len(snap.Prices.Lines) != 2 {
		t.Fatalf("price lines = %v", snap.Prices.Lines)
	}
	// 2x Lightning Bolt at 1.50, Imaginary Dragon unpriced.
	if snap.Prices.Lines[0].LineTotal != 3.0 || snap.Prices.Total != 3.0 {
		t.Errorf("pricing = %+v, want 3.00 total", snap.Prices)
	}
}

func TestRunnerFallsBackToStaleFileWhenDownloadFails(t *testing.T) {
	env := newTestEnv(t)
	staleName := env.writeCatalog(t, 20200101000000)
	env.writeConfig(t, &config.Config{
		UseDatabase:      true,
		DatabasePath:     env.dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := services.NewBulkClientWithURL("decklist-test", "0.0.0", server.URL)

	r := NewRunner(zerolog.Nop(), client, env.configPath)
	driveUntilSettled(t, r, env)
	snap := r.Snapshot()

	if !snap.DatabaseOK {
		t.Fatalf("stale fallback did not load: %s", snap.DatabaseStatus)
	}
	if !strings.Contains(snap.DatabaseStatus, staleName) {
		t.Errorf("status = %q, want mention of %s", snap.DatabaseStatus, staleName)
	}
	if !strings.Contains(snap.DatabaseStatus, "Loaded 2 cards") {
		t.Errorf("status = %q, want the load summary appended", snap.DatabaseStatus)
	}
	if snap.CatalogCount != 2 {
		t.Errorf("catalog count = %d, want 2 from the stale file", snap.CatalogCount)
	}
	if snap.Legality == nil || snap.Prices == nil {
		t.Error("analysis should still run on the stale catalog")
	}
}

func TestRunnerDownloadsWhenNoFileExists(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, &config.Config{
		UseDatabase:      true,
		DatabasePath:     env.dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	})

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()
	mux.HandleFunc("/meta", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"size":%d,"download_uri":"%s/file/oracle-cards-20250901090941.json"}`,
			len(catalogJSON), server.URL)
	})
	mux.HandleFunc("/file/oracle-cards-20250901090941.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, catalogJSON)
	})
	client := services.NewBulkClientWithURL("decklist-test", "0.0.0", server.URL+"/meta")

	r := NewRunner(zerolog.Nop(), client, env.configPath)
	driveUntilSettled(t, r, env)
	snap := r.Snapshot()

	if !snap.DatabaseOK {
		t.Fatalf("download pipeline failed: %s", snap.DatabaseStatus)
	}
	if snap.CatalogCount != 2 {
		t.Errorf("catalog count = %d, want 2", snap.CatalogCount)
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "oracle-cards-20250901090941.json")); err != nil {
		t.Errorf("downloaded file missing: %v", err)
	}
}

func TestRunnerDatabaseDisabledDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, &config.Config{
		UseDatabase: false,
		DatabaseNum: 1,
		Currency:    models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	driveUntilSettled(t, r, env)
	snap := r.Snapshot()

	if snap.DatabaseStatus != "Card database disabled in config." {
		t.Errorf("database status = %q", snap.DatabaseStatus)
	}
	if !snap.MissingComputed {
		t.Fatal("missing diff should run without a catalog")
	}
	if len(snap.Missing) != 2 {
		t.Errorf("missing = %v", snap.Missing)
	}
	if snap.Missing[1].Note != "" {
		t.Errorf("spell-check note without a catalog: %q", snap.Missing[1].Note)
	}
	if snap.LegalityStatus != "No card database loaded.  Legality unknown." {
		t.Errorf("legality status = %q", snap.LegalityStatus)
	}
	if snap.PricingStatus != "No card database loaded.  Prices unavailable." {
		t.Errorf("pricing status = %q", snap.PricingStatus)
	}
	if snap.Legality != nil || snap.Prices != nil {
		t.Error("no vector or report should exist without a catalog")
	}
}

func TestRunnerAutoLoadsConfiguredCollection(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, &config.Config{
		UseDatabase:    false,
		DatabaseNum:    1,
		Currency:       models.CurrencyUSD,
		CollectionPath: env.collectionPath,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	deadline := time.Now().Add(10 * time.Second)
	for !r.Settled() {
		if time.Now().After(deadline) {
			t.Fatalf("runner never settled; snapshot: %+v", r.Snapshot())
		}
		r.Tick()
		time.Sleep(2 * time.Millisecond)
	}
	snap := r.Snapshot()
	if !snap.CollectionOK {
		t.Fatalf("configured collection not auto-loaded: %s", snap.CollectionStatus)
	}
	if snap.CollectionPath != env.collectionPath {
		t.Errorf("collection path = %q", snap.CollectionPath)
	}
}

func TestRunnerReloadInvalidatesAnalysis(t *testing.T) {
	env := newTestEnv(t)
	env.writeCatalog(t, catalog.NowStamp(time.Now()))
	env.writeConfig(t, &config.Config{
		UseDatabase:      true,
		DatabasePath:     env.dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	driveUntilSettled(t, r, env)
	firstMissing := len(r.Snapshot().Missing)

	// A deck the collection fully covers: missing goes to zero lines.
	if err := os.WriteFile(env.decklistPath, []byte("2 Lightning Bolt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r.LoadDecklist(env.decklistPath)
	deadline := time.Now().Add(10 * time.Second)
	for !r.Settled() {
		if time.Now().After(deadline) {
			t.Fatalf("runner never re-settled; snapshot: %+v", r.Snapshot())
		}
		r.Tick()
		time.Sleep(2 * time.Millisecond)
	}

	snap := r.Snapshot()
	if !snap.MissingComputed {
		t.Fatal("diff not recomputed after reload")
	}
	if len(snap.Missing) != 0 {
		t.Errorf("missing = %v, want none", snap.Missing)
	}
	if firstMissing == 0 {
		t.Error("first run should have had missing cards")
	}
	if snap.Prices == nil || snap.Prices.Total != 0 {
		t.Errorf("pricing after reload = %+v, want zero total", snap.Prices)
	}
}

func TestRunnerIgnoresSupersededAnalysisResults(t *testing.T) {
	env := newTestEnv(t)
	env.writeCatalog(t, catalog.NowStamp(time.Now()))
	env.writeConfig(t, &config.Config{
		UseDatabase:      true,
		DatabasePath:     env.dataDir,
		DatabaseAgeLimit: 7,
		DatabaseNum:      3,
		Currency:         models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	driveUntilSettled(t, r, env)
	oldGen := r.analysisGen

	// Pretend a diff against the old decklist is still running, then swap
	// in a deck the collection fully covers.
	r.missInFlight = true
	if err := os.WriteFile(env.decklistPath, []byte("2 Lightning Bolt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r.LoadDecklist(env.decklistPath)
	deadline := time.Now().Add(10 * time.Second)
	for r.analysisGen == oldGen {
		if time.Now().After(deadline) {
			t.Fatalf("decklist reload never processed; snapshot: %+v", r.Snapshot())
		}
		r.Tick()
		time.Sleep(2 * time.Millisecond)
	}

	// The old computation lands a tick late. Its result must not become
	// the new deck's diff.
	r.missCh <- missingResult{
		Missing: []models.CollectionCard{{Name: "Imaginary Dragon", Quantity: 1}},
		gen:     oldGen,
	}
	r.Tick()
	if snap := r.Snapshot(); snap.MissingComputed {
		t.Fatalf("superseded result was committed: %v", snap.Missing)
	}

	for !r.Settled() {
		if time.Now().After(deadline) {
			t.Fatalf("runner never re-settled; snapshot: %+v", r.Snapshot())
		}
		r.Tick()
		time.Sleep(2 * time.Millisecond)
	}
	snap := r.Snapshot()
	if !snap.MissingComputed {
		t.Fatal("diff never recomputed for the new deck")
	}
	if len(snap.Missing) != 0 {
		t.Errorf("missing = %v, want none for the covered deck", snap.Missing)
	}
}

func TestRunnerSaveMissingFile(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, &config.Config{
		UseDatabase: false,
		DatabaseNum: 1,
		Currency:    models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	if _, err := r.SaveMissingFile(); err == nil {
		t.Error("expected error before any diff exists")
	}

	driveUntilSettled(t, r, env)
	out, err := r.SaveMissingFile()
	if err != nil {
		t.Fatalf("SaveMissingFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "2 Lightning Bolt") {
		t.Errorf("export content = %q", data)
	}
	if !strings.Contains(string(data), "1 Imaginary Dragon") {
		t.Errorf("export content = %q", data)
	}
}

func TestRunnerSaveConfigRemembersCollection(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, &config.Config{
		UseDatabase: false,
		DatabaseNum: 1,
		Currency:    models.CurrencyUSD,
	})

	r := NewRunner(zerolog.Nop(), deadClient(), env.configPath)
	driveUntilSettled(t, r, env)
	if err := r.SaveConfig(); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	cfg, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if cfg.CollectionPath != env.collectionPath {
		t.Errorf("saved collection path = %q, want %q", cfg.CollectionPath, env.collectionPath)
	}
}
