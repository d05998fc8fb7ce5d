package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	transactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_transactions_created_total",
		Help: "Transactions created, by initial gateway status",
	}, []string{"status"})

	flowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_flows_finished_total",
		Help: "Payment flows reaching a terminal state",
	}, []string{"state"})

	flowChecks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_payment_flow_checks",
		Help:    "Status checks issued per payment flow",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	gatewayRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_gateway_request_duration_seconds",
		Help:    "Gateway call latency by operation and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	gatewayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_gateway_events_total",
		Help: "Asynchronous gateway settlement events applied",
	}, []string{"status"})

	activeFlows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_payment_flows",
		Help: "Payment flows currently held in memory",
	})

	cachedPayments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_cached_payment_statuses",
		Help: "Payment status snapshots currently cached in Redis",
	})
)

// FlowCounter is anything that can report how many payment flows it holds.
type FlowCounter interface {
	ActiveFlows() int
}

// Monitor records business metrics and runs a background collector for the
// gauges that need sampling.
type Monitor struct {
	redis *redis.Client
	flows FlowCounter
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// SetFlowCounter attaches the flow registry sampled by the collector.
func (m *Monitor) SetFlowCounter(fc FlowCounter) {
	m.flows = fc
}

func (m *Monitor) TrackTransactionCreated(status string) {
	transactionsCreated.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackFlowFinished(state string, checks int) {
	flowsFinished.WithLabelValues(state).Inc()
	flowChecks.Observe(float64(checks))
}

func (m *Monitor) TrackGatewayRequest(operation string, duration time.Duration, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	gatewayRequests.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

func (m *Monitor) TrackGatewayEvent(status string) {
	gatewayEvents.WithLabelValues(status).Inc()
}

// StartCollector samples gauge sources every 30 seconds until ctx is done.
func (m *Monitor) StartCollector(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collect(ctx)
			}
		}
	}()
}

func (m *Monitor) collect(ctx context.Context) {
	if m.flows != nil {
		activeFlows.Set(float64(m.flows.ActiveFlows()))
	}

	if m.redis != nil {
		count, err := m.countKeys(ctx, "payment:*")
		if err != nil {
			slog.Warn("metrics collector redis scan failed", "error", err)
			return
		}
		cachedPayments.Set(float64(count))
	}
}

func (m *Monitor) countKeys(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	var count int
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
