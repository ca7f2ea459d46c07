package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermgmt/accounts-api/internal/api/metrics"
	"github.com/usermgmt/accounts-api/internal/core/domain"
	"github.com/usermgmt/accounts-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the login, so events of one account are written in order.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	writer  ports.AuditWriter
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, writer ports.AuditWriter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		writer:  writer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx aborts pending writes
// and stops the workers; Stop drains the queues instead.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Record hands an event to the worker responsible for its login. It never
// blocks: when that worker's queue is full the event is dropped and counted.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	idx := d.shardIndex(event.Login)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("login", event.Login).
			Str("action", string(event.Action)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// Stop closes the queues and waits until every queued event is written.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a login deterministically to a worker index.
func (d *Dispatcher) shardIndex(login string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(login))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(ctx, id, event)
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.writer.Write(ctx, event); err != nil {
		metrics.AuditErrorsTotal.WithLabelValues("write_failed").Inc()
		d.log.Error().Err(err).
			Str("login", event.Login).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("audit write failed")
	}
}
