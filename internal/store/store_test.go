package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finassist/finance-assistant/internal/model"
	"github.com/finassist/finance-assistant/pkg/logger"
)

func testPrompt(now time.Time) string {
	return "You are a test assistant. Current time: " + now.Format("2006-01-02 15:04")
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	return New(filepath.Join(t.TempDir(), "memory.json"), testPrompt, log)
}

func TestGetOrCreateSeedsSystemPrompt(t *testing.T) {
	s := newTestStore(t)

	msgs, created := s.GetOrCreate(42)
	assert.True(t, created)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "test assistant")

	_, created = s.GetOrCreate(42)
	assert.False(t, created)
}

func TestFirstMessageStaysSystemAfterAppends(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate(42)

	s.Append(42, model.UserMessage("hello"))
	s.Append(42, model.AssistantMessage("hi"))
	s.Append(42, model.ToolMessage("call_1", "get_sheet_url", "https://example"))

	msgs := s.Messages(42)
	require.NotEmpty(t, msgs)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Len(t, msgs, 4)
}

func TestInitReplacesConversation(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate(42)
	s.Append(42, model.UserMessage("hello"))

	s.Init(42)

	msgs := s.Messages(42)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "memory.json")

	s := New(path, testPrompt, log)
	s.GetOrCreate(42)
	s.Append(42, model.UserMessage("coffee 3.50"))
	s.Append(42, model.Message{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{
			ID:   "call_abc",
			Type: "function",
			Function: model.FunctionCall{
				Name:      "append_to_sheet",
				Arguments: `{"item_name":"Coffee","amount":3.5,"category":"Drinks"}`,
			},
		}},
	})
	s.Append(42, model.ToolMessage("call_abc", "append_to_sheet", "Saved: 2026-01-05 #2 Coffee 3.5€ (Drinks)"))
	s.GetOrCreate(7)
	require.NoError(t, s.Persist())

	reloaded := New(path, testPrompt, log)
	require.NoError(t, reloaded.Load())

	msgs := reloaded.Messages(42)
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "call_abc", msgs[2].ToolCalls[0].ID)
	assert.Equal(t, "append_to_sheet", msgs[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_abc", msgs[3].ToolCallID)

	assert.Len(t, reloaded.Messages(7), 1)
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Load())
	assert.Empty(t, s.Messages(42))
}

func TestLoadCorruptFileFallsBackEmpty(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, testPrompt, log)
	assert.Error(t, s.Load())

	// The store stays usable with empty state.
	msgs, created := s.GetOrCreate(42)
	assert.True(t, created)
	assert.Len(t, msgs, 1)
}

func TestLoadBadUserIDKeyFallsBackEmpty(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not-a-number":[{"role":"system","content":"x"}]}`), 0o644))

	s := New(path, testPrompt, log)
	assert.Error(t, s.Load())
	assert.Empty(t, s.Messages(42))
}

func TestPersistFailureKeepsMemoryIntact(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)

	// A directory path cannot be written as a file.
	s := New(t.TempDir(), testPrompt, log)
	s.GetOrCreate(42)
	s.Append(42, model.UserMessage("hello"))

	assert.Error(t, s.Persist())
	assert.Len(t, s.Messages(42), 2)
}
