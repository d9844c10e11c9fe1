package state

import (
	"context"
	"fmt"

	"github.com/jkhoffman/cogni/llm"
)

// Store is the abstract conversation state store: Save is an upsert that
// stores UpdatedAt as given and does not refresh it (AddMessage and
// AddTag do), Load fails with a NotFound error for an unknown
// id, FindByTags matches the intersection of the requested tags against
// each conversation's tag set.
type Store interface {
	Save(ctx context.Context, state *ConversationState) error
	Load(ctx context.Context, id string) (*ConversationState, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*ConversationState, error)
	FindByTags(ctx context.Context, tags []string) ([]*ConversationState, error)
}

// hasAllTags reports whether state carries every tag in want.
func hasAllTags(state *ConversationState, want []string) bool {
	for _, tag := range want {
		if !state.Metadata.HasTag(tag) {
			return false
		}
	}
	return true
}

// errNotFound builds the NotFound error every Store implementation
// returns for an unknown conversation id.
func errNotFound(id string) error {
	return llm.NewNotFoundError(fmt.Sprintf("conversation %q not found", id))
}
