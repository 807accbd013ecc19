package websearch

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Searcher runs a query through the engine cascade with pacing. It never
// returns transport errors: a fully failed search is an empty slice, because
// the enrichment cascade has further sources to try.
type Searcher struct {
	engines    []Engine
	limiter    *rate.Limiter
	maxResults int
	minDelay   time.Duration
	maxDelay   time.Duration
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithDelayRange overrides the randomized inter-request delay bounds.
func WithDelayRange(minD, maxD time.Duration) SearcherOption {
	return func(s *Searcher) {
		s.minDelay = minD
		s.maxDelay = maxD
	}
}

// WithLimiter overrides the shared rate limiter.
func WithLimiter(l *rate.Limiter) SearcherOption {
	return func(s *Searcher) { s.limiter = l }
}

// NewSearcher creates a Searcher over the given engines, tried in order.
// maxResults caps how many hits a single query may return.
func NewSearcher(maxResults int, engines []Engine, opts ...SearcherOption) *Searcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	s := &Searcher{
		engines:    engines,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		maxResults: maxResults,
		minDelay:   500 * time.Millisecond,
		maxDelay:   1500 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search queries each engine in order until one returns results. Engine
// failures and bot pages are logged and absorbed.
func (s *Searcher) Search(ctx context.Context, query string) []Result {
	for _, eng := range s.engines {
		if err := s.pace(ctx); err != nil {
			return nil
		}

		results, err := eng.Search(ctx, query)
		if err != nil {
			zap.L().Warn("websearch: engine failed",
				zap.String("engine", eng.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			zap.L().Debug("websearch: engine returned nothing",
				zap.String("engine", eng.Name()),
				zap.String("query", query),
			)
			continue
		}

		if len(results) > s.maxResults {
			results = results[:s.maxResults]
		}
		zap.L().Debug("websearch: results",
			zap.String("engine", eng.Name()),
			zap.String("query", query),
			zap.Int("count", len(results)),
		)
		return results
	}
	return nil
}

// pace waits on the shared limiter plus a randomized delay so request timing
// does not look mechanical to the engines.
func (s *Searcher) pace(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if s.maxDelay <= s.minDelay {
		return nil
	}
	jitter := s.minDelay + time.Duration(rand.Int63n(int64(s.maxDelay-s.minDelay)))
	select {
	case <-time.After(jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
