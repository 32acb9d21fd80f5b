package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"sliding_rate_limiter/limiter"
	"sliding_rate_limiter/mock"
)

func main() {
	window := flag.Duration("window", time.Second, "sliding window length")
	capacity := flag.Int("capacity", 10, "requests admitted per key per window")
	workers := flag.Int("workers", 5, "concurrent workers")
	requests := flag.Int("requests", 100, "requests sent by each worker")
	qps := flag.Float64("qps", 20, "requests per second per worker, 0 for unpaced")
	keys := flag.Int("keys", 1, "distinct keys the workers cycle through")
	verbose := flag.Bool("v", false, "log every decision")
	flag.Parse()

	if *keys < 1 {
		log.Fatalf("keys must be at least 1, got %d", *keys)
	}

	clock := limiter.NewRealClock()
	l, err := limiter.NewMemoryLimiter(clock, limiter.Tick(window.Milliseconds()), *capacity)
	if err != nil {
		log.Fatalf("failed to create limiter: %v", err)
	}

	keyNames := make([]string, *keys)
	for i := range keyNames {
		keyNames[i] = fmt.Sprintf("user:%d", i+1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := mock.Run(ctx, l, mock.Scenario{
		Workers:           *workers,
		RequestsPerWorker: *requests,
		PerWorkerQPS:      *qps,
		Keys:              keyNames,
		Verbose:           *verbose,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("load run failed: %v", err)
	}

	log.Printf("Finished %d requests in %.2f seconds: allowed=%d denied=%d errors=%d",
		rep.Total, rep.Elapsed.Seconds(), rep.Allowed, rep.Denied, rep.Errors)
	log.Printf("Observed QPS: %.2f", rep.QPS())
}
