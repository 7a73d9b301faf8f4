package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	AchievementTransitionTotal = "achievement_transition_total"
	RewardSettlementTotal      = "reward_settlement_total"
	RewardPartialTotal         = "reward_partial_application_total"
	NotificationDroppedTotal   = "notification_dropped_total"
	NotificationDeliveryTotal  = "notification_delivery_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		AchievementTransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: AchievementTransitionTotal,
			Help: "Count of achievement state transitions",
		}, []string{"from", "to"}),
		RewardSettlementTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RewardSettlementTotal,
			Help: "Count of rewards leaving the pending status",
		}, []string{"status"}),
		RewardPartialTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RewardPartialTotal,
			Help: "Count of reward confirmations whose balance credit did not complete",
		}, []string{"pending"}),
		NotificationDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NotificationDroppedTotal,
			Help: "Count of notifications dropped because the queue was full",
		}, []string{"type"}),
		NotificationDeliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NotificationDeliveryTotal,
			Help: "Count of notification deliveries by result",
		}, []string{"deliverer", "result"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)

func IncCounter(name string, labels ...string) {
	if counter, ok := PromCounters[name]; ok {
		counter.WithLabelValues(labels...).Inc()
	}
}
