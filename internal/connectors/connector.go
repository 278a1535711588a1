package connectors

import (
	"context"

	"rare-source/internal/models"
)

// Connector is one upstream availability source. FetchPrices returns zero
// or more loosely-typed offers; an error means "this source produced
// nothing this round" and is never propagated past the engine.
type Connector interface {
	Name() string
	FetchPrices(ctx context.Context, query string) ([]models.RawOffer, error)
}
