// Package mock drives a limiter with concurrent paced workers and reports what it decided.
package mock

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sliding_rate_limiter/limiter"
)

const defaultKey = "user:42"

// Scenario describes one load run.
type Scenario struct {
	Workers           int
	RequestsPerWorker int
	// PerWorkerQPS paces each worker; zero or less means no pacing.
	PerWorkerQPS float64
	// Keys are cycled through by every worker. Empty means a single shared key.
	Keys []string
	// Verbose logs every decision instead of only per-worker totals.
	Verbose bool
}

// Report aggregates the outcome of a run.
type Report struct {
	Total   int
	Allowed int
	Denied  int
	Errors  int
	Elapsed time.Duration
}

// QPS returns admitted requests per second over the run.
func (r Report) QPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Allowed) / r.Elapsed.Seconds()
}

type workerResult struct {
	allowed, denied, errors int
}

// Run starts s.Workers goroutines that each send s.RequestsPerWorker requests to l.
// If ctx is cancelled the workers stop early; the partial report is returned with ctx.Err().
func Run(ctx context.Context, l limiter.Limiter, s Scenario) (Report, error) {
	if l == nil {
		return Report{}, errors.New("limiter can't be nil")
	}
	if s.Workers <= 0 || s.RequestsPerWorker <= 0 {
		return Report{}, errors.New("workers and requests per worker must be greater than 0")
	}
	keys := s.Keys
	if len(keys) == 0 {
		keys = []string{defaultKey}
	}

	limit := rate.Inf
	if s.PerWorkerQPS > 0 {
		limit = rate.Limit(s.PerWorkerQPS)
	}

	var wg sync.WaitGroup
	results := make(chan workerResult, s.Workers)

	st := time.Now()
	for w := 0; w < s.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			pacer := rate.NewLimiter(limit, 1)
			var res workerResult
			defer func() { results <- res }()

			for i := 0; i < s.RequestsPerWorker; i++ {
				if err := pacer.Wait(ctx); err != nil {
					log.Printf("[Worker %d] stopped after %d requests: %v", workerID, i, err)
					return
				}
				key := keys[(workerID+i)%len(keys)]
				d, err := l.TryAddRequest(key)
				switch {
				case err != nil:
					res.errors++
					log.Printf("[Worker %d] request %d for %s failed: %v", workerID, i+1, key, err)
				case d == limiter.Allowed:
					res.allowed++
				default:
					res.denied++
				}
				if s.Verbose && err == nil {
					log.Printf("[Worker %d] request %d for %s: %s", workerID, i+1, key, d)
				}
			}
			log.Printf("[Worker %d] done: allowed=%d denied=%d errors=%d", workerID, res.allowed, res.denied, res.errors)
		}(w + 1)
	}

	wg.Wait()
	close(results)

	rep := Report{Elapsed: time.Since(st)}
	for res := range results {
		rep.Allowed += res.allowed
		rep.Denied += res.denied
		rep.Errors += res.errors
	}
	rep.Total = rep.Allowed + rep.Denied + rep.Errors
	return rep, ctx.Err()
}
