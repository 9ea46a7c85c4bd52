package market

import (
	"context"
	"errors"
	"time"
)

// ErrSymbolNotFound reports that the requested symbol is unknown to the
// bar source. A known symbol with no bars in range yields an empty series
// instead.
var ErrSymbolNotFound = errors.New("symbol not found")

// Source supplies price history. Implemented by the bar store; the decision
// engine only depends on this interface.
type Source interface {
	GetSeries(ctx context.Context, symbol string, start, end time.Time) (Series, error)
}
