// Package dashboard owns the view model: a fetch task that polls the gateway
// and a clock task that advances the display clock, each stoppable on its own.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"discoverydash/internal/config"
	"discoverydash/internal/metrics"
	"discoverydash/internal/models"
)

// Fetcher retrieves data from the discovery gateway.
type Fetcher interface {
	FetchServices(ctx context.Context) ([]models.ServiceStatus, error)
	FetchHealth(ctx context.Context) ([]models.HealthEntry, error)
	ProbeServices(ctx context.Context, names []string) []models.ServiceStatus
}

// Options configures a Dashboard.
type Options struct {
	Mode          string
	Services      []string
	PollInterval  time.Duration
	ClockInterval time.Duration
	Now           func() time.Time
	Tracker       *metrics.Tracker
}

// OptionsFromConfig maps the file configuration onto dashboard options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Mode:          cfg.Mode,
		Services:      append([]string(nil), cfg.Services...),
		PollInterval:  cfg.PollInterval(),
		ClockInterval: cfg.ClockInterval(),
		Tracker:       metrics.NewTracker(cfg.UptimeWindow),
	}
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) stop() {
	t.cancel()
	<-t.done
}

// Dashboard periodically polls the gateway and keeps the latest view.
type Dashboard struct {
	fetcher       Fetcher
	mode          string
	names         []string
	pollInterval  time.Duration
	clockInterval time.Duration
	now           func() time.Time
	tracker       *metrics.Tracker

	mu          sync.RWMutex
	view        models.View
	servicesSeq uint64
	healthSeq   uint64
	stopped     bool

	seq       atomic.Uint64
	refreshCh chan struct{}

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	fetchTask *task
	clockTask *task
}

// New creates an idle dashboard with an empty view.
func New(fetcher Fetcher, opts Options) *Dashboard {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = 100 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracker == nil {
		opts.Tracker = metrics.NewTracker(100)
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeAggregate
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		fetcher:       fetcher,
		mode:          opts.Mode,
		names:         opts.Services,
		pollInterval:  opts.PollInterval,
		clockInterval: opts.ClockInterval,
		now:           opts.Now,
		tracker:       opts.Tracker,
		view: models.View{
			Services:   []models.ServiceStatus{},
			Health:     []models.HealthEntry{},
			ClockNowMS: opts.Now().UnixMilli(),
		},
		refreshCh: make(chan struct{}, 1),
		subs:      make(map[chan struct{}]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the fetch and clock tasks. The first poll happens immediately.
func (d *Dashboard) Start() {
	d.startOnce.Do(func() {
		d.fetchTask = d.spawn(d.runFetch)
		d.clockTask = d.spawn(d.runClock)
	})
}

// Stop cancels both tasks and any in-flight request, waits for them to exit
// and closes all subscriptions. Results arriving afterwards are discarded.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()

		d.cancel()
		if d.fetchTask != nil {
			d.fetchTask.stop()
		}
		if d.clockTask != nil {
			d.clockTask.stop()
		}

		d.subsMu.Lock()
		for ch := range d.subs {
			close(ch)
		}
		d.subs = nil
		d.subsMu.Unlock()
	})
}

// StopClock stops only the clock task; the view keeps its last clock value.
func (d *Dashboard) StopClock() {
	if d.clockTask != nil {
		d.clockTask.stop()
	}
}

// StopFetch stops only the fetch task and abandons its in-flight requests.
func (d *Dashboard) StopFetch() {
	if d.fetchTask != nil {
		d.fetchTask.stop()
	}
}

// Refresh asks the fetch task to poll now instead of waiting for the next tick.
func (d *Dashboard) Refresh() {
	select {
	case d.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current view.
func (d *Dashboard) Snapshot() models.View {
	d.mu.RLock()
	defer d.mu.RUnlock()

	view := d.view
	view.Services = make([]models.ServiceStatus, len(d.view.Services))
	copy(view.Services, d.view.Services)
	view.Health = make([]models.HealthEntry, len(d.view.Health))
	copy(view.Health, d.view.Health)
	return view
}

// Uptime returns availability figures over the recent polls.
func (d *Dashboard) Uptime() []metrics.ServiceUptime {
	return d.tracker.Summary()
}

// Subscribe returns a channel signalled after every view change. Signals are
// coalesced. The channel is closed when the dashboard stops or cancel is called.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	if d.subs == nil {
		close(ch)
		return ch, func() {}
	}
	d.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subsMu.Lock()
			defer d.subsMu.Unlock()
			if _, ok := d.subs[ch]; ok {
				delete(d.subs, ch)
				close(ch)
			}
		})
	}
}

// Poll runs one fetch round. The services and health requests run
// concurrently and each result is applied as soon as it arrives. A failed
// request empties its half of the view; the first such failure is returned.
func (d *Dashboard) Poll(ctx context.Context) error {
	seq := d.seq.Add(1)

	var g errgroup.Group
	g.Go(func() error {
		return d.pollServices(ctx, seq)
	})
	g.Go(func() error {
		return d.pollHealth(ctx, seq)
	})
	return g.Wait()
}

func (d *Dashboard) pollServices(ctx context.Context, seq uint64) error {
	var (
		services []models.ServiceStatus
		err      error
	)
	if d.mode == config.ModeProbe {
		services = d.fetcher.ProbeServices(ctx, d.names)
	} else {
		services, err = d.fetcher.FetchServices(ctx)
		if err != nil {
			services = []models.ServiceStatus{}
			err = fmt.Errorf("fetch services: %w", err)
		}
	}
	if d.applyServices(ctx, seq, services) {
		d.tracker.Record(d.now(), services)
	}
	return err
}

func (d *Dashboard) pollHealth(ctx context.Context, seq uint64) error {
	health, err := d.fetcher.FetchHealth(ctx)
	if err != nil {
		health = []models.HealthEntry{}
		err = fmt.Errorf("fetch health: %w", err)
	}
	d.applyHealth(ctx, seq, health)
	return err
}

func (d *Dashboard) applyServices(ctx context.Context, seq uint64, services []models.ServiceStatus) bool {
	if services == nil {
		services = []models.ServiceStatus{}
	}

	d.mu.Lock()
	if d.stopped || ctx.Err() != nil || seq <= d.servicesSeq {
		d.mu.Unlock()
		return false
	}
	d.servicesSeq = seq
	d.view.Services = services
	d.view.ServicesUpdatedAt = d.now()
	d.mu.Unlock()

	d.notify()
	return true
}

func (d *Dashboard) applyHealth(ctx context.Context, seq uint64, health []models.HealthEntry) bool {
	if health == nil {
		health = []models.HealthEntry{}
	}

	d.mu.Lock()
	if d.stopped || ctx.Err() != nil || seq <= d.healthSeq {
		d.mu.Unlock()
		return false
	}
	d.healthSeq = seq
	d.view.Health = health
	d.view.HealthUpdatedAt = d.now()
	d.mu.Unlock()

	d.notify()
	return true
}

func (d *Dashboard) tick() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.view.ClockNowMS = d.now().UnixMilli()
	d.mu.Unlock()

	d.notify()
}

func (d *Dashboard) notify() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Dashboard) spawn(run func(ctx context.Context)) *task {
	ctx, cancel := context.WithCancel(d.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		run(ctx)
	}()
	return t
}

func (d *Dashboard) runFetch(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.round(ctx, ticker)
	for {
		select {
		case <-ticker.C:
			d.round(ctx, ticker)
		case <-d.refreshCh:
			d.round(ctx, ticker)
		case <-ctx.Done():
			return
		}
	}
}

// round polls once and restarts the interval from the end of the round, so
// ticks that fell due while a slow round was running are dropped.
func (d *Dashboard) round(ctx context.Context, ticker *time.Ticker) {
	if err := d.Poll(ctx); err != nil && ctx.Err() == nil {
		slog.Debug("poll round degraded", "error", err)
	}

	select {
	case <-ticker.C:
	default:
	}
	ticker.Reset(d.pollInterval)
}

func (d *Dashboard) runClock(ctx context.Context) {
	ticker := time.NewTicker(d.clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-ctx.Done():
			return
		}
	}
}
