package suggest

import (
	"context"

	"github.com/dharmasatrya/skyfinder/internal/cache"
	"github.com/dharmasatrya/skyfinder/internal/models"
	"github.com/dharmasatrya/skyfinder/pkg/logger"
)

type cachedLookup struct {
	next   Lookup
	cache  cache.Cache
	logger *logger.Logger
}

// WithCache serves repeated queries from c. Empty results are not stored
// because the provider returns them for degraded responses as well.
func WithCache(next Lookup, c cache.Cache, log *logger.Logger) Lookup {
	return &cachedLookup{next: next, cache: c, logger: log.Named("suggest-cache")}
}

func (l *cachedLookup) SearchAirports(ctx context.Context, query string) ([]models.Airport, error) {
	if airports, ok := l.cache.Get(ctx, query); ok {
		return airports, nil
	}

	airports, err := l.next.SearchAirports(ctx, query)
	if err != nil || len(airports) == 0 {
		return airports, err
	}

	if err := l.cache.Set(ctx, query, airports); err != nil {
		l.logger.Warn("Failed to cache suggestions",
			logger.String("query", query),
			logger.Error(err),
		)
	}
	return airports, nil
}
