// Package state implements the conversation state store: persisting a
// ConversationState's messages and metadata across calls, with
// in-memory, file-backed, and SQL-backed implementations of the same
// Store interface.
package state

import (
	"time"

	"github.com/google/uuid"
	"github.com/jkhoffman/cogni/llm"
)

// Metadata carries the searchable/descriptive attributes of a
// conversation, separate from its message history.
type Metadata struct {
	Title      string            `json:"title,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	TokenCount int               `json:"token_count,omitempty"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// HasTag reports whether tag is present in m.Tags.
func (m Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ConversationState is the complete persisted state of a conversation:
// its message history plus metadata and timestamps.
type ConversationState struct {
	ID        string        `json:"id"`
	Messages  []llm.Message `json:"messages"`
	Metadata  Metadata      `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New builds a ConversationState with a fresh random ID.
func New() *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithID builds a ConversationState with a caller-chosen ID, for
// round-tripping through a Store that assigns IDs externally.
func WithID(id string) *ConversationState {
	s := New()
	s.ID = id
	return s
}

// AddMessage appends msg and bumps UpdatedAt.
func (s *ConversationState) AddMessage(msg llm.Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// AddTag adds tag if not already present, bumping UpdatedAt.
func (s *ConversationState) AddTag(tag string) {
	if s.Metadata.HasTag(tag) {
		return
	}
	s.Metadata.Tags = append(s.Metadata.Tags, tag)
	s.UpdatedAt = time.Now().UTC()
}
