package prometheus

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/janlis/go-green-scheduler/core"
)

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	switchesTotal    *prom.CounterVec
	tasksSpawned     prom.Counter
	tasksRetired     prom.Counter
	taskPanicTotal   prom.Counter
	mutexContentions prom.Counter
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for
// core.Metrics. Pass the result in Config.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "greensched"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	switchesVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "context_switches_total",
		Help:      "Total number of context switches.",
	}, []string{"kind"})
	spawned := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_spawned_total",
		Help:      "Total number of tasks initialized and scheduled.",
	})
	retired := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_retired_total",
		Help:      "Total number of tasks retired by the cleanup handler.",
	})
	panics := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task entry routine panics.",
	})
	contentions := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "mutex_contention_total",
		Help:      "Total number of Lock calls that had to wait.",
	})

	var err error
	if switchesVec, err = registerCollector(reg, switchesVec); err != nil {
		return nil, err
	}
	if spawned, err = registerCollector(reg, spawned); err != nil {
		return nil, err
	}
	if retired, err = registerCollector(reg, retired); err != nil {
		return nil, err
	}
	if panics, err = registerCollector(reg, panics); err != nil {
		return nil, err
	}
	if contentions, err = registerCollector(reg, contentions); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		switchesTotal:    switchesVec,
		tasksSpawned:     spawned,
		tasksRetired:     retired,
		taskPanicTotal:   panics,
		mutexContentions: contentions,
	}, nil
}

// RecordSwitch records a context switch, labeled by kind.
func (m *MetricsExporter) RecordSwitch(preempted bool) {
	if m == nil {
		return
	}
	kind := "voluntary"
	if preempted {
		kind = "preempt"
	}
	m.switchesTotal.WithLabelValues(kind).Inc()
}

// RecordTaskSpawned records a task becoming schedulable.
func (m *MetricsExporter) RecordTaskSpawned() {
	if m == nil {
		return
	}
	m.tasksSpawned.Inc()
}

// RecordTaskRetired records a task retirement.
func (m *MetricsExporter) RecordTaskRetired() {
	if m == nil {
		return
	}
	m.tasksRetired.Inc()
}

// RecordTaskPanic records a task panic event.
func (m *MetricsExporter) RecordTaskPanic(taskID uint64) {
	if m == nil {
		return
	}
	m.taskPanicTotal.Inc()
}

// RecordMutexContention records a contended Lock call.
func (m *MetricsExporter) RecordMutexContention() {
	if m == nil {
		return
	}
	m.mutexContentions.Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
