// Package agent implements the conversational tool-calling orchestration loop.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finassist/finance-assistant/internal/llm"
	"github.com/finassist/finance-assistant/internal/model"
	"github.com/finassist/finance-assistant/internal/store"
	"github.com/finassist/finance-assistant/internal/tools"
	"github.com/finassist/finance-assistant/pkg/logger"
	"github.com/finassist/finance-assistant/pkg/metrics"
)

// phase tracks where a turn is inside the two-round protocol. Surfaced in
// logs and metrics only.
type phase string

const (
	phaseAwaitingModel  phase = "awaiting_model"
	phaseExecutingTools phase = "executing_tools"
	phaseFinalizing     phase = "finalizing"
	phaseDone           phase = "done"
)

// Fixed advisory strings for service-level failures. None of these are
// retried; the loop commits to at most one attempt per round.
const (
	adviceQuota = "⚠️ Error: OpenAI API Quota Exceeded (429). Please check your billing details at platform.openai.com."
	adviceAuth  = "⚠️ Error: OpenAI API Key is invalid. Please check your configuration."
)

// Engine runs the two-round model/tool-execution protocol over the
// conversation state.
type Engine struct {
	store    *store.Store
	client   llm.Client
	registry *tools.Registry
	logger   *logger.Logger
}

// New creates an engine.
func New(st *store.Store, client llm.Client, registry *tools.Registry, log *logger.Logger) *Engine {
	return &Engine{
		store:    st,
		client:   client,
		registry: registry,
		logger:   log,
	}
}

// Respond processes one inbound user message and returns the reply text. It
// always returns a string; service failures come back as advisory strings.
// The transport guarantees at most one active turn per user.
func (e *Engine) Respond(ctx context.Context, userID int64, text string) string {
	start := time.Now()
	log := e.logger.WithTurn(uuid.Must(uuid.NewV7()).String(), userID)

	if _, created := e.store.GetOrCreate(userID); created {
		log.Info("conversation created")
	}
	e.store.Append(userID, model.UserMessage(text))
	e.persist(log)

	reply, status := e.runTurn(ctx, userID, log)

	e.store.Append(userID, model.AssistantMessage(reply))
	e.persist(log)

	metrics.RecordTurn(status, time.Since(start).Seconds())
	log.Info("turn finished",
		zap.String("phase", string(phaseDone)),
		zap.String("status", status),
		zap.Duration("took", time.Since(start)),
	)
	return reply
}

// runTurn executes the protocol: round 1 proposes, tools execute, round 2
// narrates. The returned status labels the turn for metrics.
func (e *Engine) runTurn(ctx context.Context, userID int64, log *logger.Logger) (string, string) {
	msgs := e.store.Messages(userID)

	log.Debug("querying model",
		zap.String("phase", string(phaseAwaitingModel)),
		zap.Int("history", len(msgs)),
	)
	turn, err := e.client.ChatWithTools(ctx, msgs, e.registry.Schemas())
	if err != nil {
		metrics.RecordModelRequest("propose", "error", e.client.Model(), 0, 0)
		return e.advisory(err, log)
	}
	metrics.RecordModelRequest("propose", "ok", e.client.Model(), turn.TokensIn, turn.TokensOut)

	if len(turn.ToolCalls) == 0 {
		return turn.Content, "ok"
	}

	// Record the model's intent before any side effect runs, so a crash
	// mid-batch still leaves an auditable trace.
	e.store.Append(userID, model.Message{
		Role:      model.RoleAssistant,
		Content:   turn.Content,
		ToolCalls: turn.ToolCalls,
	})
	e.persist(log)

	log.Info("executing tool calls",
		zap.String("phase", string(phaseExecutingTools)),
		zap.Int("count", len(turn.ToolCalls)),
	)

	// Strictly sequential: later calls may depend on earlier ones, and the
	// ledger backend has no transaction isolation.
	for _, call := range turn.ToolCalls {
		result := e.dispatch(ctx, call, log)
		e.store.Append(userID, model.ToolMessage(call.ID, call.Function.Name, result))
	}
	e.persist(log)

	log.Debug("finalizing", zap.String("phase", string(phaseFinalizing)))
	final, err := e.client.Chat(ctx, e.store.Messages(userID))
	if err != nil {
		metrics.RecordModelRequest("finalize", "error", e.client.Model(), 0, 0)
		return e.advisory(err, log)
	}
	metrics.RecordModelRequest("finalize", "ok", e.client.Model(), final.TokensIn, final.TokensOut)

	return final.Content, "ok"
}

// dispatch resolves and runs one tool call. Handler failures of any kind are
// folded into the result text; they never abort the batch.
func (e *Engine) dispatch(ctx context.Context, call model.ToolCall, log *logger.Logger) (result string) {
	name := call.Function.Name

	handler, ok := e.registry.Resolve(name)
	if !ok {
		log.Warn("unknown tool requested", zap.String("tool", name))
		metrics.RecordToolInvocation(name, "unknown")
		return "Error: Unknown tool"
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool handler panicked", zap.String("tool", name), zap.Any("panic", r))
			metrics.RecordToolInvocation(name, "panic")
			result = fmt.Sprintf("Error: %v", r)
		}
	}()

	log.Info("invoking tool", zap.String("tool", name), zap.String("args", call.Function.Arguments))
	out, err := handler(ctx, json.RawMessage(call.Function.Arguments))
	if err != nil {
		log.Warn("tool handler failed", zap.String("tool", name), zap.Error(err))
		metrics.RecordToolInvocation(name, "error")
		return "Error: " + err.Error()
	}

	metrics.RecordToolInvocation(name, "ok")
	return out
}

// advisory maps a service-level failure to its fixed user-facing string.
func (e *Engine) advisory(err error, log *logger.Logger) (string, string) {
	switch {
	case errors.Is(err, llm.ErrQuota):
		log.Error("model quota exceeded", zap.Error(err))
		return adviceQuota, "quota"
	case errors.Is(err, llm.ErrAuth):
		log.Error("model authentication failed", zap.Error(err))
		return adviceAuth, "auth"
	default:
		log.Error("model call failed", zap.Error(err))
		return fmt.Sprintf("⚠️ System error: %v", err), "error"
	}
}

func (e *Engine) persist(log *logger.Logger) {
	if err := e.store.Persist(); err != nil {
		log.Warn("continuing with in-memory state", zap.Error(err))
	}
}
