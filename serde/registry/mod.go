// Package registry defines the format registry mechanism.
//
// It also provides a default implementation that always returns a format
// engine. When the format is unknown, the engine returns an error for every
// call so that a missing registration fails with a meaningful message.
package registry

import (
	"go.dedis.ch/heirloom/serde"
)

// Registry is an interface to register and get format engines for a specific
// format.
type Registry interface {
	// Register takes a format and its engine and it registers them so that the
	// engine can be looked up later.
	Register(serde.Format, serde.FormatEngine)

	// Get returns the engine associated with the format.
	Get(serde.Format) serde.FormatEngine
}
