package watcher

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period before a batch of changed paths is
// emitted.
const DefaultInterval = 100 * time.Millisecond

// Debouncer collects changed paths and emits them as one batch after a
// quiet period. Editors routinely produce several events per save; the
// index only needs to see each path once per burst.
type Debouncer struct {
	interval time.Duration
	pending  map[string]struct{}
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []string
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]struct{}),
		output:   make(chan []string, 16),
	}
}

// Output returns the channel that receives batched paths.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Add records a changed path. Repeated events for the same path within
// the window collapse into one entry, and every new event restarts the
// quiet period.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}

	batch := make([]string, 0, len(d.pending))
	for path := range d.pending {
		batch = append(batch, path)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	// The send must not hold the mutex: a stopped consumer would wedge
	// Add and with it the whole event loop. With no room left the batch
	// is dropped; the next full rebuild reconciles the index.
	select {
	case d.output <- batch:
	default:
	}
}
