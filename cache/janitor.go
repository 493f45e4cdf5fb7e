package cache

import (
	"context"
	"sync"
	"time"

	"github.com/GabrielNunesIT/cachekit/cachelog"
	"github.com/GabrielNunesIT/cachekit/workerpool"
)

// Expirer is satisfied by any *Cache[K, V] with a TTL or VTTL policy. It
// lets a Janitor hold a heterogeneous set of caches without naming their
// key/value type parameters.
type Expirer interface {
	Expire() int
}

type sweepJob struct {
	name string
	c    Expirer
}

type registration struct {
	ticker *time.Ticker
	stop   chan struct{}
}

// Janitor runs periodic Expire() sweeps across a registry of TTL/VTTL
// caches, fanning the sweeps out across a bounded pool of workers instead
// of one goroutine per cache.
type Janitor struct {
	mu      sync.Mutex
	regs    map[string]registration
	pool    *workerpool.Pool[sweepJob]
	cancel  context.CancelFunc
	logger  cachelog.Logger
}

// JanitorOption configures a Janitor at construction time.
type JanitorOption func(*janitorConfig)

type janitorConfig struct {
	logger  cachelog.Logger
	workers int
}

// WithJanitorLogger attaches a structured logger; sweeps that expire at
// least one entry are logged at Debug. Default is a no-op logger.
func WithJanitorLogger(l cachelog.Logger) JanitorOption {
	return func(cfg *janitorConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithJanitorWorkers bounds how many sweeps may run concurrently. Default
// is workerpool's own default (runtime.NumCPU()).
func WithJanitorWorkers(n int) JanitorOption {
	return func(cfg *janitorConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// NewJanitor constructs a Janitor with no caches registered yet. Call
// Register for each TTL/VTTL cache it should sweep, and Shutdown when done.
func NewJanitor(opts ...JanitorOption) *Janitor {
	cfg := &janitorConfig{logger: cachelog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		regs:   make(map[string]registration),
		cancel: cancel,
		logger: cfg.logger,
	}

	poolOpts := []workerpool.Option[sweepJob]{}
	if cfg.workers > 0 {
		poolOpts = append(poolOpts, workerpool.WithWorkers[sweepJob](cfg.workers))
	}

	j.pool = workerpool.New(ctx, j.handle, poolOpts...)

	return j
}

func (j *Janitor) handle(_ context.Context, job sweepJob) {
	n := job.c.Expire()
	if n > 0 {
		j.logger.Debug("janitor sweep", map[string]any{"cache": job.name, "expired": n})
	}
}

// Register adds a cache to the sweep registry under name, swept every
// interval (a non-positive interval defaults to one second). Re-registering
// an existing name is a no-op; Unregister it first to change its interval.
func (j *Janitor) Register(name string, c Expirer, interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.regs[name]; exists {
		return
	}

	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	j.regs[name] = registration{ticker: ticker, stop: stop}

	go func() {
		for {
			select {
			case <-ticker.C:
				j.pool.Submit(sweepJob{name: name, c: c})
			case <-stop:
				ticker.Stop()

				return
			}
		}
	}()
}

// Unregister stops sweeping the named cache. It is a no-op if name was
// never registered.
func (j *Janitor) Unregister(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	reg, ok := j.regs[name]
	if !ok {
		return
	}

	close(reg.stop)
	delete(j.regs, name)
}

// Shutdown stops every registered sweep and waits for in-flight sweeps to
// finish. The Janitor is not usable afterward.
func (j *Janitor) Shutdown() {
	j.mu.Lock()
	for _, reg := range j.regs {
		close(reg.stop)
	}
	j.regs = make(map[string]registration)
	j.mu.Unlock()

	j.pool.Shutdown()
}
