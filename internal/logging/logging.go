// Package logging configures zerolog for the process. Output goes to a
// file in the data directory because the terminal belongs to the UI.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Setup opens (or creates) dataDir/decklist.log and returns a logger
// writing to it plus the file handle for the caller to close. When the
// file cannot be opened the logger is disabled rather than failing startup.
func Setup(dataDir string, debug bool) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return zerolog.Nop(), nil
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "decklist.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil
	}

	logger := zerolog.New(f).With().Timestamp().Logger().Level(level)
	return logger, f
}
