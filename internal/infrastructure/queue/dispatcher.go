package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// RatingRecalculator recomputes and stores the rating aggregate of a product.
type RatingRecalculator interface {
	RecalculateRating(ctx context.Context, productID string) error
}

// RatingDispatcher routes rating recompute jobs to a fixed set of workers
// using consistent hashing on the product ID, so recomputes of one product
// run in the order they were scheduled.
type RatingDispatcher struct {
	workers []chan string
	target  RatingRecalculator
	log     zerolog.Logger
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRatingDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewRatingDispatcher(numWorkers int, target RatingRecalculator, log zerolog.Logger) *RatingDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &RatingDispatcher{
		workers: make([]chan string, numWorkers),
		target:  target,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *RatingDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.done)
	}()
}

// Wait blocks until every worker has exited.
func (d *RatingDispatcher) Wait() {
	d.wg.Wait()
}

// Schedule queues a recompute for productID. It blocks only while the
// owning worker's buffer is full; after shutdown the job is dropped.
func (d *RatingDispatcher) Schedule(productID string) {
	idx := d.shardIndex(productID)
	select {
	case d.workers[idx] <- productID:
		metrics.RatingQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	case <-d.done:
		d.log.Warn().Str("product_id", productID).Msg("rating dispatcher stopped; recompute dropped")
	}
}

// shardIndex maps a product ID deterministically to a worker index.
func (d *RatingDispatcher) shardIndex(productID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(productID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *RatingDispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	depth := metrics.RatingQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case productID := <-ch:
			depth.Dec()
			start := time.Now()
			result := "ok"
			if err := d.target.RecalculateRating(ctx, productID); err != nil {
				result = "error"
				d.log.Error().Err(err).
					Str("product_id", productID).
					Int("worker_id", id).
					Msg("rating recompute failed")
			}
			metrics.RatingRecomputeDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		}
	}
}
