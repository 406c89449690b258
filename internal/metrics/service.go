package metrics

import (
	"database/sql"
	"time"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wallet"

// Service owns the wallet's prometheus registry. All methods are safe on a nil *Service.
type Service struct {
	Registry *prometheus.Registry

	transactions   *prometheus.CounterVec
	execDuration   prometheus.Histogram
	relayRequests  *prometheus.CounterVec
	relayCycles    *prometheus.CounterVec
	cycleBalance   prometheus.Gauge
	signerDuration *prometheus.HistogramVec
	nonceDrift     prometheus.Counter
}

func New() (*Service, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	factory := promauto.With(reg)

	return &Service{
		Registry: reg,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "transactions_total",
			Help:      "Transfer executions by terminal status and failure reason",
		}, []string{"status", "reason"}),
		execDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "duration_seconds",
			Help:      "Wall time of a transfer execution from address derivation to terminal state",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		relayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "requests_total",
			Help:      "Metered relay requests by JSON-RPC method and outcome",
		}, []string{"method", "outcome"}),
		relayCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "cycles_spent_total",
			Help:      "Cycles charged for metered relay requests",
		}, []string{"method"}),
		cycleBalance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "cycle_balance",
			Help:      "Remaining cycle budget of the relay gateway",
		}),
		signerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "signer",
			Name:      "call_duration_seconds",
			Help:      "Latency of remote signer calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"op", "outcome"}),
		nonceDrift: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nonce",
			Name:      "drift_total",
			Help:      "Times the network transaction count disagreed with the cached nonce",
		}),
	}, nil
}

func (s *Service) ObserveTransaction(status string, reason string, d time.Duration) {
	if s == nil {
		return
	}
	s.transactions.WithLabelValues(status, reason).Inc()
	s.execDuration.Observe(d.Seconds())
}

func (s *Service) ObserveRelayRequest(method string, outcome string, cycles *uint256.Int) {
	if s == nil {
		return
	}
	s.relayRequests.WithLabelValues(method, outcome).Inc()
	if cycles != nil {
		s.relayCycles.WithLabelValues(method).Add(cycles.Float64())
	}
}

func (s *Service) SetCycleBalance(balance *uint256.Int) {
	if s == nil || balance == nil {
		return
	}
	s.cycleBalance.Set(balance.Float64())
}

func (s *Service) ObserveSignerCall(op string, outcome string, d time.Duration) {
	if s == nil {
		return
	}
	s.signerDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func (s *Service) IncNonceDrift() {
	if s == nil {
		return
	}
	s.nonceDrift.Inc()
}

// RegisterDB exports the connection pool statistics of db.
func (s *Service) RegisterDB(db *sql.DB) error {
	if s == nil || db == nil {
		return nil
	}

	return s.Registry.Register(sqlstats.NewStatsCollector(namespace, db))
}
