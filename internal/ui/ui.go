// Package ui declares the contracts between the background pipeline and
// the terminal front end. The core never draws; it produces snapshots and
// consumes paths, and these interfaces are the seam a rendering layer
// plugs into.
package ui

import "github.com/codyseavey/decklist-companion/internal/pipeline"

// Renderer draws one frame from a snapshot. The pipeline sets a redraw
// flag whenever a snapshot changes; the front end consumes and clears it.
type Renderer interface {
	Render(snap pipeline.Snapshot)
}

// FilePicker lets the user select a file; used by the collection,
// decklist, and catalog tabs. Pick returns an absolute path.
type FilePicker interface {
	Pick() (string, error)
}

// Clipboard receives the formatted missing list on the copy action.
// Implementations report availability errors; the feature degrades when
// the system clipboard cannot be reached.
type Clipboard interface {
	Set(text string) error
}
