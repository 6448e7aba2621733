// Package usage records dispatched calls off the request path. The
// interface guarantee is that nothing here can affect a caller's response:
// enqueueing never blocks and write failures are logged and swallowed.
package usage

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/polyui/catalog-mcp/internal/models"
)

const (
	flushSize  = 100
	flushEvery = 5 * time.Second
)

// Sink persists batches of usage rows. Implemented by
// repository.UsageLogRepository.
type Sink interface {
	CreateBatch(ctx context.Context, logs []models.UsageLog) error
}

// AccountCounter bumps per-account usage counters. Implemented by
// service.AccountService.
type AccountCounter interface {
	RecordUse(ctx context.Context, id uuid.UUID, calls int) error
}

type Recorder struct {
	ch      chan models.UsageLog
	sink    Sink
	counter AccountCounter
	done    chan struct{}
}

func NewRecorder(sink Sink, counter AccountCounter, bufferSize int) *Recorder {
	return &Recorder{
		ch:      make(chan models.UsageLog, bufferSize),
		sink:    sink,
		counter: counter,
		done:    make(chan struct{}),
	}
}

// Record hands off one usage row. When the buffer is full the row is
// dropped; usage accounting is best-effort by contract.
func (r *Recorder) Record(row models.UsageLog) {
	select {
	case r.ch <- row:
	default:
		log.Println("usage: buffer full, dropping record")
	}
}

// Start launches the batch worker. Batches flush when full or on a ticker.
func (r *Recorder) Start() {
	go func() {
		batch := make([]models.UsageLog, 0, flushSize)
		ticker := time.NewTicker(flushEvery)
		defer ticker.Stop()

		for {
			select {
			case row := <-r.ch:
				batch = append(batch, row)
				if len(batch) >= flushSize {
					r.flush(batch)
					batch = make([]models.UsageLog, 0, flushSize)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					r.flush(batch)
					batch = make([]models.UsageLog, 0, flushSize)
				}
			case <-r.done:
				// Drain whatever is queued, then flush once.
				for {
					select {
					case row := <-r.ch:
						batch = append(batch, row)
					default:
						if len(batch) > 0 {
							r.flush(batch)
						}
						return
					}
				}
			}
		}
	}()
}

func (r *Recorder) Close() {
	close(r.done)
}

func (r *Recorder) flush(batch []models.UsageLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.sink.CreateBatch(ctx, batch); err != nil {
		log.Printf("usage: failed to insert %d records: %v", len(batch), err)
	}

	// Aggregate per-account call counts before touching the store.
	counts := make(map[uuid.UUID]int)
	for _, row := range batch {
		if row.AccountID != nil {
			counts[*row.AccountID]++
		}
	}

	for id, n := range counts {
		if err := r.counter.RecordUse(ctx, id, n); err != nil {
			log.Printf("usage: failed to bump counter for %s: %v", id, err)
		}
	}
}
