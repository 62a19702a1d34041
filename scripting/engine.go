package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script and returns its exported completion value.
	Execute(ctx context.Context, script string) (interface{}, error)
}

// LabelFunc post-processes a recognized glyph label. keep is false when the
// label should be dropped.
type LabelFunc interface {
	Apply(ctx context.Context, code uint32, text string) (label string, keep bool, err error)
}
