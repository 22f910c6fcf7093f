// Package llm provides the language-model client interface and implementations.
package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/finassist/finance-assistant/internal/model"
)

// Service-level failure classes. The orchestration loop maps these to fixed
// advisory strings and never retries them.
var (
	// ErrQuota indicates the backend quota is exhausted (HTTP 429).
	ErrQuota = errors.New("llm: quota exceeded")

	// ErrAuth indicates a rejected credential (HTTP 401/403).
	ErrAuth = errors.New("llm: authentication failed")
)

// Turn is one model response: either plain text or a list of tool calls
// (content may be empty when tool calls are present).
type Turn struct {
	Content   string
	ToolCalls []model.ToolCall
	TokensIn  int
	TokensOut int
}

// Client is the interface to the language-model service.
type Client interface {
	// ChatWithTools submits the conversation plus tool schemas with automatic
	// tool selection enabled (round 1).
	ChatWithTools(ctx context.Context, messages []model.Message, tools []openai.Tool) (*Turn, error)

	// Chat submits the conversation without tool schemas (round 2). The model
	// cannot request tools on this path.
	Chat(ctx context.Context, messages []model.Message) (*Turn, error)

	// Model returns the configured model identifier.
	Model() string
}
