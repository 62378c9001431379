package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records hook executions and worker jobs.
type Metrics interface {
	IncExec(hook, status string)
	ObserveExecDuration(hook string, durationSeconds float64)
	AddFilesPackaged(hook string, n int)
	IncStageFailure(hook, stage string)
	IncJobsReceived(subject string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncExec(string, string)              {}
func (Noop) ObserveExecDuration(string, float64) {}
func (Noop) AddFilesPackaged(string, int)        {}
func (Noop) IncStageFailure(string, string)      {}
func (Noop) IncJobsReceived(string)              {}

// Prom implements Metrics backed by Prometheus collectors on the default
// registerer.
type Prom struct {
	execs         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	files         *prometheus.CounterVec
	stageFailures *prometheus.CounterVec
	jobsReceived  *prometheus.CounterVec
	once          sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		execs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_exec_total",
			Help:      "Hook executions by hook type and status",
		}, []string{"hook", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hook_exec_duration_seconds",
			Help:      "Hook execution latency by hook type",
			Buckets:   prometheus.DefBuckets,
		}, []string{"hook"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_packaged_total",
			Help:      "Files written into archives by hook type",
		}, []string{"hook"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_stage_failures_total",
			Help:      "Hook failures by hook type and pipeline stage",
		}, []string{"hook", "stage"}),
		jobsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_received_total",
			Help:      "Packaging jobs received by subject",
		}, []string{"subject"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.execs, p.duration, p.files, p.stageFailures, p.jobsReceived)
	})
}

func (p *Prom) IncExec(hook, status string) {
	p.execs.WithLabelValues(hook, status).Inc()
}

func (p *Prom) ObserveExecDuration(hook string, durationSeconds float64) {
	p.duration.WithLabelValues(hook).Observe(durationSeconds)
}

func (p *Prom) AddFilesPackaged(hook string, n int) {
	if n <= 0 {
		return
	}
	p.files.WithLabelValues(hook).Add(float64(n))
}

func (p *Prom) IncStageFailure(hook, stage string) {
	p.stageFailures.WithLabelValues(hook, stage).Inc()
}

func (p *Prom) IncJobsReceived(subject string) {
	p.jobsReceived.WithLabelValues(subject).Inc()
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
