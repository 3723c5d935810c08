package scm

import "errors"

// Configuration errors, returned by Initialize*/NewTerrain rather than
// causing a panic; the embedder is expected to abort its own startup on a
// non-nil error.
var (
	// ErrNoCollider is returned when NewTerrain is built without a
	// collision service: the dispatcher has nothing to query.
	ErrNoCollider = errors.New("scm: no collision service configured")

	// ErrNoFrame is returned when NewTerrain is built without a
	// reference frame.
	ErrNoFrame = errors.New("scm: no reference frame configured")
)
