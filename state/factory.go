package state

import (
	"fmt"

	"github.com/jkhoffman/cogni/config"
	"github.com/rs/zerolog"
)

// NewStore builds the Store selected by cfg: in-memory by default, or
// file-backed when cfg.Backend is "file".
func NewStore(cfg config.StateConfig, logger zerolog.Logger) (Store, error) {
	if !cfg.IsFileBacked() {
		return NewMemory(), nil
	}
	if cfg.Directory == "" {
		return nil, fmt.Errorf("state: file-backed store requires a directory")
	}
	return NewFile(cfg.Directory, logger)
}
