package headless

import (
	"context"
	"errors"

	"github.com/fleetops/vesselwatch/internal/vessel"
)

// Noop implements vessel.Fetcher but always fails, for builds where no
// browser is available. The resolver's synthetic fallback takes over.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns an error since this is a stub implementation.
func (Noop) Fetch(_ context.Context, _ string) (vessel.Page, error) {
	return vessel.Page{}, errors.New("headless fetcher not configured")
}
