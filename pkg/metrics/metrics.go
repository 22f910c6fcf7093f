// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnDuration tracks end-to-end duration of one conversation turn.
	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_turn_duration_seconds",
			Help:    "End-to-end conversation turn duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"status"},
	)

	// TurnsTotal tracks total conversation turns processed.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_turns_total",
			Help: "Total conversation turns processed",
		},
		[]string{"status"},
	)

	// ModelRequestsTotal tracks requests to the LLM service by round.
	ModelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total LLM requests",
		},
		[]string{"round", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ToolInvocationsTotal tracks tool dispatches by tool name.
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Total tool handler invocations",
		},
		[]string{"tool", "status"},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks messages appended to conversation state.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended to conversations",
		},
		[]string{"role"},
	)

	// PersistFailuresTotal tracks failed writes of the durable mirror.
	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_persist_failures_total",
			Help: "Failed writes of the conversation memory file",
		},
	)
)

// RecordTurn records metrics for one completed conversation turn.
func RecordTurn(status string, seconds float64) {
	TurnsTotal.WithLabelValues(status).Inc()
	TurnDuration.WithLabelValues(status).Observe(seconds)
}

// RecordModelRequest records one request/response exchange with the LLM.
func RecordModelRequest(round, status, model string, tokensIn, tokensOut int) {
	ModelRequestsTotal.WithLabelValues(round, status).Inc()
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordToolInvocation records one tool dispatch.
func RecordToolInvocation(tool, status string) {
	ToolInvocationsTotal.WithLabelValues(tool, status).Inc()
}
