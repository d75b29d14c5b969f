package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// Recorder publica as métricas do motor em Prometheus.
type Recorder struct {
	calculations    *prometheus.CounterVec
	duration        prometheus.Histogram
	ruleEvaluations *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

var _ interfaces.Recorder = (*Recorder)(nil)

// NewRecorder regista os coletores em reg; com reg nil usa um registry próprio.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcalc_calculations_total",
			Help: "Calculations by outcome (ok or error kind).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vatcalc_calculation_duration_seconds",
			Help:    "Wall time of a calculation.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ruleEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcalc_rule_evaluations_total",
			Help: "Rule expressions evaluated, by rule type.",
		}, []string{"rule_type"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcalc_reference_refresh_total",
			Help: "Reference data reloads by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
	for _, c := range []prometheus.Collector{r.calculations, r.duration, r.ruleEvaluations, r.refreshes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) CalculationFinished(kind string, elapsed time.Duration) {
	r.calculations.WithLabelValues(kind).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) RuleEvaluated(ruleType domain.RuleType) {
	r.ruleEvaluations.WithLabelValues(string(ruleType)).Inc()
}

func (r *Recorder) ReferenceRefreshed(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	r.refreshes.WithLabelValues(outcome).Inc()
}

// Handler expõe o registry no formato de exposição do Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
