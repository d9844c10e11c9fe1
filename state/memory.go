package state

import (
	"context"
	"sort"
	"sync"

	"github.com/jkhoffman/cogni/llm"
)

// Memory is an in-process Store backed by a map, guarded by a
// reader-writer mutex so reads never block on each other.
type Memory struct {
	mu     sync.RWMutex
	states map[string]*ConversationState
}

// NewMemory builds an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]*ConversationState)}
}

// Save upserts state, deep-copying it so later caller mutations don't
// leak into the store.
func (m *Memory) Save(_ context.Context, st *ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *st
	clone.Messages = append([]llm.Message(nil), st.Messages...)
	clone.Metadata.Tags = append([]string(nil), st.Metadata.Tags...)
	if st.Metadata.Custom != nil {
		clone.Metadata.Custom = make(map[string]string, len(st.Metadata.Custom))
		for k, v := range st.Metadata.Custom {
			clone.Metadata.Custom[k] = v
		}
	}
	m.states[st.ID] = &clone
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (*ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[id]
	if !ok {
		return nil, errNotFound(id)
	}
	clone := *st
	return &clone, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[id]; !ok {
		return errNotFound(id)
	}
	delete(m.states, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]*ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ConversationState, 0, len(m.states))
	for _, st := range m.states {
		clone := *st
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) FindByTags(ctx context.Context, tags []string) ([]*ConversationState, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, st := range all {
		if hasAllTags(st, tags) {
			out = append(out, st)
		}
	}
	return out, nil
}

var _ Store = (*Memory)(nil)
