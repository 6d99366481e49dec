package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/janlis/go-green-scheduler/core"
)

// SchedulerSnapshotProvider provides current scheduler stats snapshots.
// *core.Scheduler satisfies it.
type SchedulerSnapshotProvider interface {
	Stats() core.SchedulerStats
}

// SnapshotPoller periodically exports scheduler Stats() snapshots into
// Prometheus gauges. Stats reads are atomic counters, so polling never
// interferes with scheduling.
type SnapshotPoller struct {
	interval time.Duration

	schedsMu sync.RWMutex
	scheds   map[string]SchedulerSnapshotProvider

	tasksByState  *prom.GaugeVec
	stackReserved *prom.GaugeVec
	switches      *prom.GaugeVec
	preemptions   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	tasksByState := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greensched",
		Name:      "tasks",
		Help:      "Number of tasks per lifecycle state.",
	}, []string{"scheduler", "state"})
	stackReserved := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greensched",
		Name:      "stack_reserved_bytes",
		Help:      "Configured stack reservation across live tasks.",
	}, []string{"scheduler"})
	switches := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greensched",
		Name:      "context_switches",
		Help:      "Context switch count snapshot.",
	}, []string{"scheduler"})
	preemptions := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "greensched",
		Name:      "preemptions",
		Help:      "Timer-forced reschedule count snapshot.",
	}, []string{"scheduler"})

	var err error
	if tasksByState, err = registerCollector(reg, tasksByState); err != nil {
		return nil, err
	}
	if stackReserved, err = registerCollector(reg, stackReserved); err != nil {
		return nil, err
	}
	if switches, err = registerCollector(reg, switches); err != nil {
		return nil, err
	}
	if preemptions, err = registerCollector(reg, preemptions); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		scheds:        make(map[string]SchedulerSnapshotProvider),
		tasksByState:  tasksByState,
		stackReserved: stackReserved,
		switches:      switches,
		preemptions:   preemptions,
	}, nil
}

// RegisterScheduler adds a scheduler under the given label.
func (p *SnapshotPoller) RegisterScheduler(name string, s SchedulerSnapshotProvider) {
	p.schedsMu.Lock()
	defer p.schedsMu.Unlock()
	p.scheds[name] = s
}

// UnregisterScheduler removes a scheduler from polling.
func (p *SnapshotPoller) UnregisterScheduler(name string) {
	p.schedsMu.Lock()
	defer p.schedsMu.Unlock()
	delete(p.scheds, name)
}

// Start begins periodic polling. Calling Start on a running poller is a
// no-op.
func (p *SnapshotPoller) Start() {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(ctx)
}

// Stop halts polling and waits for the poll loop to exit.
func (p *SnapshotPoller) Stop() {
	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	p.cancel()
	done := p.done
	p.running = false
	p.stateMu.Unlock()

	<-done
}

// Collect runs one polling pass immediately. Exposed for tests and for
// scrape-time freshness.
func (p *SnapshotPoller) Collect() {
	p.schedsMu.RLock()
	defer p.schedsMu.RUnlock()
	for name, s := range p.scheds {
		stats := s.Stats()
		p.tasksByState.WithLabelValues(name, core.StateAlloc.String()).Set(float64(stats.Alloc))
		p.tasksByState.WithLabelValues(name, core.StateReady.String()).Set(float64(stats.Ready))
		p.tasksByState.WithLabelValues(name, core.StateRunning.String()).Set(float64(stats.Running))
		p.tasksByState.WithLabelValues(name, core.StateBlocked.String()).Set(float64(stats.Blocked))
		p.tasksByState.WithLabelValues(name, core.StateZombie.String()).Set(float64(stats.Zombie))
		p.stackReserved.WithLabelValues(name).Set(float64(stats.StackReserved))
		p.switches.WithLabelValues(name).Set(float64(stats.Switches))
		p.preemptions.WithLabelValues(name).Set(float64(stats.Preemptions))
	}
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Collect()
		case <-ctx.Done():
			return
		}
	}
}
