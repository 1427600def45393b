// Package apperr defines the error taxonomy surfaced across the build
// and query pipeline (spec §7). Kinds are sentinels; wrap them with
// fmt.Errorf("...: %w", ErrX) so callers can errors.Is against a kind
// while still seeing the concrete detail.
package apperr

import "errors"

var (
	// ErrInvalidPath is raised by the location model when a target path
	// does not exist. The build aborts.
	ErrInvalidPath = errors.New("invalid-path")

	// ErrParseError is raised by the file extractor when a source file
	// fails to parse. The file is skipped; the build continues.
	ErrParseError = errors.New("parse-error")

	// ErrIdentifierCollision is raised by the graph builder when two
	// distinct entities would produce identical stable IDs within one
	// build. Fatal: aborts the build.
	ErrIdentifierCollision = errors.New("identifier-collision")

	// ErrStoreWrite is raised by the graph store on a failed write.
	// The in-progress batch is rolled back (native) or the store is
	// marked dirty (in-memory) and the error is surfaced to the caller.
	ErrStoreWrite = errors.New("store-write")

	// ErrStoreRead is raised by the graph store on a failed read.
	ErrStoreRead = errors.New("store-read")

	// ErrResolutionAmbiguous marks a placeholder whose resolution had
	// more than one candidate. Never fatal.
	ErrResolutionAmbiguous = errors.New("resolution-ambiguous")
)

// Collision describes two entities that produced the same stable ID.
type Collision struct {
	ID    string
	FileA string
	FileB string
}

func (c *Collision) Error() string {
	return "identifier-collision: " + c.ID + " defined in both " + c.FileA + " and " + c.FileB
}

func (c *Collision) Unwrap() error { return ErrIdentifierCollision }
