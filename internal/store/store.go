// Package store keeps per-user conversation state with a durable JSON mirror.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finassist/finance-assistant/internal/model"
	"github.com/finassist/finance-assistant/pkg/logger"
	"github.com/finassist/finance-assistant/pkg/metrics"
)

// PromptFunc renders the system prompt for a conversation created at the
// given time. Conversations created at different times embed different
// timestamps; this is accepted and never corrected later.
type PromptFunc func(now time.Time) string

// Store holds all conversations in memory, keyed by user id, and mirrors
// them to a single JSON file after every mutation. The mirror is rewritten
// wholesale; a failed write degrades durability, not the in-memory state.
type Store struct {
	path   string
	prompt PromptFunc
	now    func() time.Time
	logger *logger.Logger

	mu            sync.RWMutex
	conversations map[int64][]model.Message
}

// New creates a store backed by the given mirror file.
func New(path string, prompt PromptFunc, log *logger.Logger) *Store {
	return &Store{
		path:          path,
		prompt:        prompt,
		now:           time.Now,
		logger:        log,
		conversations: make(map[int64][]model.Message),
	}
}

// Load reads the durable mirror. A missing file is a fresh start. Any parse
// failure falls back to an empty store; the returned error is informational
// and must not fail startup.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("no memory file found, starting fresh", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read memory file: %w", err)
	}

	// JSON object keys are always strings; coerce them back to user ids.
	var raw map[string][]model.Message
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse memory file: %w", err)
	}

	conversations := make(map[int64][]model.Message, len(raw))
	for key, msgs := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("parse user id %q: %w", key, err)
		}
		conversations[id] = msgs
	}

	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()

	s.logger.Info("memory loaded", zap.String("path", s.path), zap.Int("conversations", len(conversations)))
	return nil
}

// GetOrCreate returns the conversation for a user, creating one seeded with
// the system prompt on first contact. The returned slice is a copy.
func (s *Store) GetOrCreate(userID int64) ([]model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msgs, ok := s.conversations[userID]; ok && len(msgs) > 0 {
		return copyMessages(msgs), false
	}

	seed := []model.Message{model.SystemMessage(s.prompt(s.now()))}
	s.conversations[userID] = seed
	metrics.ConversationsTotal.Inc()
	return copyMessages(seed), true
}

// Init replaces any existing conversation with a fresh system-seeded one.
func (s *Store) Init(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[userID] = []model.Message{model.SystemMessage(s.prompt(s.now()))}
	metrics.ConversationsTotal.Inc()
}

// Append adds a message to the end of a user's conversation. The caller must
// persist afterward.
func (s *Store) Append(userID int64, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[userID] = append(s.conversations[userID], msg)
	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()
}

// Messages returns a copy of a user's conversation.
func (s *Store) Messages(userID int64) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyMessages(s.conversations[userID])
}

// Persist writes the full in-memory state to the mirror file, overwriting
// prior contents. Failures are logged and returned; callers continue with
// in-memory state intact.
func (s *Store) Persist() error {
	s.mu.RLock()
	raw := make(map[string][]model.Message, len(s.conversations))
	for id, msgs := range s.conversations {
		raw[strconv.FormatInt(id, 10)] = msgs
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		metrics.PersistFailuresTotal.Inc()
		s.logger.Error("failed to encode memory", zap.Error(err))
		return fmt.Errorf("encode memory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		metrics.PersistFailuresTotal.Inc()
		s.logger.Error("failed to save memory", zap.Error(err))
		return fmt.Errorf("write memory file: %w", err)
	}
	return nil
}

func copyMessages(msgs []model.Message) []model.Message {
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}
