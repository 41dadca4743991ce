package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// fileMarker appears in every bulk filename Scryfall serves for the
// oracle-cards dataset, e.g. "oracle-cards-20250901090941.json".
const fileMarker = "oracle-cards"

// LocatedFile is the newest catalog file found on disk.
type LocatedFile struct {
	Name      string
	Timestamp uint64
}

// fileTimestamp extracts the 14-digit YYYYMMDDHHMMSS stamp from a catalog
// filename: the third dash-delimited segment with its extension stripped.
// A name with no parseable stamp is not treated as a catalog file at all;
// a hand-renamed copy must never look maximally stale to Prune.
func fileTimestamp(name string) (uint64, bool) {
	if !strings.Contains(name, fileMarker) {
		return 0, false
	}
	sections := strings.Split(name, "-")
	if len(sections) < 3 {
		return 0, false
	}
	stamp := strings.TrimSpace(strings.SplitN(sections[2], ".", 2)[0])
	n, err := strconv.ParseUint(stamp, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Locate scans dataDir for catalog files and returns the one with the
// numerically largest timestamp, or nil when none exists.
func Locate(dataDir string) (*LocatedFile, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}
	var best *LocatedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := fileTimestamp(entry.Name())
		if !ok {
			continue
		}
		if best == nil || ts > best.Timestamp {
			best = &LocatedFile{Name: entry.Name(), Timestamp: ts}
		}
	}
	return best, nil
}

// NowStamp renders t as the integer YYYYMMDDHHMMSS form the filenames use.
func NowStamp(t time.Time) uint64 {
	n, _ := strconv.ParseUint(t.Format("20060102150405"), 10, 64)
	return n
}

// IsStale compares integer timestamps day-equivalently: the ×10^6 shift
// moves the age limit past the HHMMSS digits. This matches the original
// tool bit-for-bit; it overestimates age across month boundaries, which at
// worst triggers one early re-download.
func IsStale(now, fileStamp, ageLimitDays uint64) bool {
	if fileStamp > now {
		return false
	}
	return now-fileStamp > ageLimitDays*1_000_000
}

// Prune deletes the oldest catalog files until at most retain remain.
// Called after a successful download; returns the deleted filenames.
func Prune(dataDir string, retain int) ([]string, error) {
	if retain < 1 {
		retain = 1
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scan data directory: %w", err)
	}

	type stamped struct {
		name string
		ts   uint64
	}
	var files []stamped
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ts, ok := fileTimestamp(entry.Name()); ok {
			files = append(files, stamped{name: entry.Name(), ts: ts})
		}
	}
	if len(files) <= retain {
		return nil, nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ts < files[j].ts })

	var deleted []string
	for _, f := range files[:len(files)-retain] {
		if err := os.Remove(filepath.Join(dataDir, f.name)); err != nil {
			return deleted, fmt.Errorf("prune catalog file %s: %w", f.name, err)
		}
		deleted = append(deleted, f.name)
	}
	return deleted, nil
}
