// Package cache holds short-term conversation context in memory. Nothing is
// persisted: a restart loses all history.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"mentionbot/internal/domain"
)

const (
	// DefaultMaxConversations bounds how many conversations are retained.
	DefaultMaxConversations = 100
	// DefaultMaxMessages bounds the history kept per conversation.
	DefaultMaxMessages = 50
	// DefaultHistoryLimit is how many trailing messages a read returns when
	// the caller does not say otherwise.
	DefaultHistoryLimit = 5
)

// Conversations is a bounded per-conversation message history.
//
// The keyspace is LRU-by-write: a conversation's recency is refreshed only
// when a message is written to it. Reads go through Peek and never refresh
// recency, so a conversation that is only read ages toward eviction exactly
// as if it were untouched. Per-conversation history is FIFO-truncated to
// maxMessages, oldest first.
type Conversations struct {
	mu          sync.Mutex
	entries     *lru.Cache[string, []domain.Message]
	maxMessages int
}

// New creates a Conversations cache. Non-positive bounds fall back to the
// defaults.
func New(maxConversations, maxMessages int) *Conversations {
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	entries, _ := lru.New[string, []domain.Message](maxConversations)
	return &Conversations{
		entries:     entries,
		maxMessages: maxMessages,
	}
}

// SaveMessage appends msg to the conversation's history, truncates the
// history to maxMessages from the tail, and moves the conversation to the
// most-recently-written position, evicting the least-recently-written
// conversation if the cache is full.
func (c *Conversations) SaveMessage(conversationID string, msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, _ := c.entries.Peek(conversationID)
	history = append(history, msg)
	if len(history) > c.maxMessages {
		trimmed := make([]domain.Message, c.maxMessages)
		copy(trimmed, history[len(history)-c.maxMessages:])
		history = trimmed
	}
	c.entries.Add(conversationID, history)
}

// LastMessages returns up to limit trailing messages for the conversation in
// original order. An unknown conversation yields an empty slice. Non-positive
// limit falls back to DefaultHistoryLimit. Reading does not refresh the
// conversation's eviction recency.
func (c *Conversations) LastMessages(conversationID string, limit int) []domain.Message {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	history, ok := c.entries.Peek(conversationID)
	if !ok {
		return nil
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// Len reports how many conversations are currently cached.
func (c *Conversations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
