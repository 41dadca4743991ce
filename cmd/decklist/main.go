package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/codyseavey/decklist-companion/internal/collection"
	"github.com/codyseavey/decklist-companion/internal/config"
	"github.com/codyseavey/decklist-companion/internal/logging"
	"github.com/codyseavey/decklist-companion/internal/metrics"
	"github.com/codyseavey/decklist-companion/internal/models"
	"github.com/codyseavey/decklist-companion/internal/pipeline"
	"github.com/codyseavey/decklist-companion/internal/services"
)

const (
	programName = "decklist"
	version     = "0.1.0"

	// tickInterval matches the UI event-poll cadence.
	tickInterval = 50 * time.Millisecond
)

var (
	flagCollection string
	flagDecklist   string
	flagConfig     string
	flagDebug      bool
)

var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "Decklist companion - find missing cards, check legality, price the gap",
	Long: "Compares a decklist against your collection using the Scryfall card " +
		"catalog: reports missing cards with spell checking, format legality, " +
		"and the market price of what you still need.",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full pipeline headless and print the report",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagCollection, "collection", "", "collection CSV export (overrides config)")
	checkCmd.Flags().StringVar(&flagDecklist, "decklist", "", "decklist text file")
	checkCmd.Flags().StringVar(&flagConfig, "config", "", "config file path (default: platform config dir)")
	checkCmd.Flags().BoolVar(&flagDebug, "debug", false, "debug logging")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	if flagDecklist == "" {
		return fmt.Errorf("--decklist is required")
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	logger, closer := logging.Setup(dataDir, flagDebug)
	if closer != nil {
		defer closer.Close()
	}
	logger.Info().Str("version", version).Msg("decklist check starting")

	client := services.NewBulkClient(programName, version)
	runner := pipeline.NewRunner(logger, client, flagConfig)

	// Headless run: nobody is around to hit Enter, so create the program
	// directories as soon as the check reports them missing.
	dirsEnsured := false
	listsQueued := false

	for !runner.Settled() {
		runner.Tick()
		snap := runner.Snapshot()

		if !dirsEnsured && snap.ConfigDir != "" && (!snap.DirectoryOK || !snap.DataDirectoryOK) {
			runner.CreateDirectories()
			dirsEnsured = true
		}
		if !listsQueued && runner.ConfigReady() {
			if addr := runner.Config().MetricsAddr; addr != "" {
				go func() {
					if err := metrics.Serve(addr); err != nil {
						logger.Warn().Err(err).Msg("metrics listener failed")
					}
				}()
			}
			collectionPath := flagCollection
			if collectionPath == "" {
				collectionPath = runner.Config().CollectionPath
			}
			if collectionPath == "" {
				return fmt.Errorf("no collection: pass --collection or set collection_path in the config")
			}
			runner.LoadCollection(collectionPath)
			runner.LoadDecklist(flagDecklist)
			listsQueued = true
		}

		time.Sleep(tickInterval)
	}

	printReport(runner)
	return nil
}

func printReport(runner *pipeline.Runner) {
	snap := runner.Snapshot()

	fmt.Println("Database:  ", snap.DatabaseStatus)
	fmt.Println("Collection:", snap.CollectionStatus)
	fmt.Println("Decklist:  ", snap.DecklistStatus)
	fmt.Println()

	if !snap.MissingComputed {
		fmt.Println("No comparison could be made.")
		return
	}
	if len(snap.Missing) == 0 {
		fmt.Println("Nothing missing - the collection covers this decklist.")
	} else {
		fmt.Println("Missing cards:")
		for i, line := range snap.Missing {
			display := ""
			if snap.Prices != nil && i < len(snap.Prices.Lines) {
				display = "  " + snap.Prices.Lines[i].Display
			}
			fmt.Printf("  %s%s%s\n", line.Card, display, line.Note)
		}
		if snap.Prices != nil {
			fmt.Printf("Total: %s%.2f\n", snap.Prices.Currency.Symbol(), snap.Prices.Total)
		} else if snap.PricingStatus != "" {
			fmt.Println(snap.PricingStatus)
		}
	}
	fmt.Println()

	if snap.Legality != nil {
		fmt.Println("Format legality:")
		formats := models.AllFormats()
		sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
		for _, f := range formats {
			verdict := "NOT LEGAL"
			if snap.Legality[f] {
				verdict = "LEGAL"
			}
			fmt.Printf("  %-16s %s\n", f, verdict)
		}
	} else if snap.LegalityStatus != "" {
		fmt.Println(snap.LegalityStatus)
	}

	// keep the clipboard-format export reachable from the CLI too
	if len(runner.MissingCards()) > 0 && flagDebug {
		fmt.Println()
		fmt.Print(collection.FormatMissing(runner.MissingCards()))
	}
}
