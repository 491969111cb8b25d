package rulemod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "warden_event_duration_sec",
	Help: "Total duration of moderation event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_event_processed",
	Help: "Number of moderation events processed",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_event_errors",
	Help: "Number of events which failed processing",
}, []string{"type"})

var ruleMatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_rule_matches",
	Help: "Number of rule matches",
}, []string{"rule"})

var actionExecCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_actions_executed",
	Help: "Number of enforcement actions executed, by type and outcome",
}, []string{"type", "outcome"})

var actionRetryCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_action_retries",
	Help: "Number of enforcement action retry attempts",
}, []string{"type"})

var quotaTripCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_quota_trips",
	Help: "Number of daily-quota circuit breaker trips",
}, []string{"type"})

var failOpenCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_fail_open_total",
	Help: "Number of events allowed because no rule snapshot was available",
})

var simulationCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_simulations",
	Help: "Number of simulation harness runs",
})
