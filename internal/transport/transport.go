package transport

import "context"

// Adapter connects one chat frontend to the command handler. The concrete
// adapter is chosen once at configuration time; there is no runtime probing.
type Adapter interface {
	// Run blocks until the context is cancelled or the transport fails.
	Run(ctx context.Context) error
}
