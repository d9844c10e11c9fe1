package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jkhoffman/cogni/logger"
	"github.com/rs/zerolog"
)

// File is a directory-backed Store: one JSON document per conversation,
// named <id>.json. Writes go to <id>.json.tmp, fsynced, then renamed into
// place so a reader never observes a partial write.
type File struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex // guards perID
	perID map[string]*sync.Mutex
}

// NewFile builds a File store rooted at dir, creating it if necessary.
func NewFile(dir string, base zerolog.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("state: create directory %q: %w", dir, err)
	}
	return &File{
		dir:    dir,
		logger: logger.Component(base, "stateFile"),
		perID:  make(map[string]*sync.Mutex),
	}, nil
}

func (f *File) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// lockFor returns the mutex serializing writes to id, creating one on
// first use. Concurrent writers to different ids never block each other.
func (f *File) lockFor(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.perID[id]
	if !ok {
		l = &sync.Mutex{}
		f.perID[id] = l
	}
	return l
}

func (f *File) Save(_ context.Context, st *ConversationState) error {
	lock := f.lockFor(st.ID)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal conversation %q: %w", st.ID, err)
	}

	path := f.path(st.ID)
	tmp := path + ".tmp"

	fh, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("state: create temp file for %q: %w", st.ID, err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		os.Remove(tmp)
		return fmt.Errorf("state: write temp file for %q: %w", st.ID, err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tmp)
		return fmt.Errorf("state: sync temp file for %q: %w", st.ID, err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("state: close temp file for %q: %w", st.ID, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("state: rename temp file for %q: %w", st.ID, err)
	}
	return nil
}

func (f *File) Load(_ context.Context, id string) (*ConversationState, error) {
	data, err := os.ReadFile(f.path(id)) //#nosec 304 -- path built from a caller-supplied conversation id, not external input
	if os.IsNotExist(err) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("state: read conversation %q: %w", id, err)
	}

	var st ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("state: parse conversation %q: %w", id, err)
	}
	if st.ID != id {
		return nil, fmt.Errorf("state: id mismatch in file for %q: file contains %q", id, st.ID)
	}
	return &st, nil
}

func (f *File) Delete(_ context.Context, id string) error {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(f.path(id)); err != nil {
		if os.IsNotExist(err) {
			return errNotFound(id)
		}
		return fmt.Errorf("state: delete conversation %q: %w", id, err)
	}
	return nil
}

// List reads every conversation in the store's directory. Files that
// fail to parse as a ConversationState are skipped with a warning rather
// than failing the whole listing.
func (f *File) List(_ context.Context) ([]*ConversationState, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("state: read directory %q: %w", f.dir, err)
	}

	var out []*ConversationState
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, entry.Name())) //#nosec 304 -- directory is store-owned
		if err != nil {
			f.logger.Warn().Str("file", entry.Name()).Err(err).Msg("state: failed to read conversation file")
			continue
		}
		var st ConversationState
		if err := json.Unmarshal(data, &st); err != nil {
			f.logger.Warn().Str("file", entry.Name()).Err(err).Msg("state: failed to parse conversation file")
			continue
		}
		out = append(out, &st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *File) FindByTags(ctx context.Context, tags []string) ([]*ConversationState, error) {
	all, err := f.List(ctx)
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

var _ Store = (*File)(nil)
