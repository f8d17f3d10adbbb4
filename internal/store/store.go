package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/metrics"
)

var (
	// ErrStoreNotOpen is returned when a store accessor is used outside the
	// open/close window. This is a programming error, not a runtime condition.
	ErrStoreNotOpen = errors.New("store is not open")

	// ErrCorruptStore is returned by Open when the backing file exists but
	// cannot be parsed. There is no silent recovery; the caller decides.
	ErrCorruptStore = errors.New("store file is corrupt")
)

// Attributes is the value type held per key: a flat JSON-compatible
// attribute map.
type Attributes = map[string]any

// Store is a flat key/attribute-map mapping durable to a single JSON file.
//
// The store tracks a dirty flag so that an unmodified store is never
// rewritten: mutations transition Clean -> Dirty only when they actually
// change content, and Sync flushes iff Dirty. Writes are whole-map
// overwrites; a crash between a mutation and the next Sync loses only the
// in-memory delta, never the previously durable content.
//
// A Store supports a single writer. Concurrent use of the same backing file
// from multiple processes is unsupported.
type Store struct {
	path   string
	data   map[string]Attributes
	isOpen bool
	dirty  bool
}

// New creates a store backed by dir/name. The directory must already exist.
func New(dir, name string) (*Store, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("store directory %q does not exist", dir)
	}
	return &Store{path: filepath.Join(dir, name)}, nil
}

// Open loads the backing file into memory, or starts empty when the file is
// absent. Open is idempotent.
func (s *Store) Open() error {
	if s.isOpen {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.data = make(map[string]Attributes)
	case err != nil:
		return fmt.Errorf("failed to read store file %s: %w", s.path, err)
	default:
		data := make(map[string]Attributes)
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
		}
		s.data = data
	}

	s.isOpen = true
	s.dirty = false
	logging.Debug("store opened: %s (%d records)", s.path, len(s.data))
	return nil
}

// Close flushes the store if dirty, then releases in-memory state.
func (s *Store) Close() error {
	if !s.isOpen {
		return nil
	}
	if err := s.Sync(); err != nil {
		return err
	}
	s.isOpen = false
	s.data = nil
	return nil
}

// Sync writes the store to its backing file iff it is dirty, then clears the
// dirty flag. The file body is a single pretty-printed JSON object.
func (s *Store) Sync() error {
	if !s.isOpen {
		return fmt.Errorf("cannot sync: %w", ErrStoreNotOpen)
	}
	if !s.dirty {
		metrics.StoreSyncsTotal.WithLabelValues("clean").Inc()
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		metrics.StoreSyncsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		metrics.StoreSyncsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write store file %s: %w", s.path, err)
	}

	s.dirty = false
	metrics.StoreSyncsTotal.WithLabelValues("written").Inc()
	logging.Debug("store synced: %s (%d records)", s.path, len(s.data))
	return nil
}

// Get returns a detached copy of the value for key, or ok=false when
// absent. Mutating the returned map never touches stored content.
func (s *Store) Get(key string) (Attributes, bool, error) {
	if !s.isOpen {
		return nil, false, fmt.Errorf("cannot get %q: %w", key, ErrStoreNotOpen)
	}
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return copyAttributes(value), true, nil
}

// Set stores value under key. When the new value is structurally equal to
// the existing one this is a no-op: no dirty transition, no eventual disk
// write. That equality check is what keeps unchanged data from producing
// spurious staleness or rewrites.
func (s *Store) Set(key string, value Attributes) error {
	if !s.isOpen {
		return fmt.Errorf("cannot set %q: %w", key, ErrStoreNotOpen)
	}
	if existing, ok := s.data[key]; ok && reflect.DeepEqual(existing, value) {
		return nil
	}
	s.data[key] = value
	s.dirty = true
	return nil
}

// Pop removes and returns the value for key; ok=false when absent.
func (s *Store) Pop(key string) (Attributes, bool, error) {
	if !s.isOpen {
		return nil, false, fmt.Errorf("cannot pop %q: %w", key, ErrStoreNotOpen)
	}
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	delete(s.data, key)
	s.dirty = true
	return value, true, nil
}

// Clear removes every record. An already-empty store stays clean.
func (s *Store) Clear() error {
	if !s.isOpen {
		return fmt.Errorf("cannot clear: %w", ErrStoreNotOpen)
	}
	if len(s.data) == 0 {
		return nil
	}
	s.data = make(map[string]Attributes)
	s.dirty = true
	return nil
}

// Len returns the number of records.
func (s *Store) Len() (int, error) {
	if !s.isOpen {
		return 0, fmt.Errorf("cannot count: %w", ErrStoreNotOpen)
	}
	return len(s.data), nil
}

// Contains reports whether key is present.
func (s *Store) Contains(key string) (bool, error) {
	if !s.isOpen {
		return false, fmt.Errorf("cannot check %q: %w", key, ErrStoreNotOpen)
	}
	_, ok := s.data[key]
	return ok, nil
}

// Items returns a snapshot of the full mapping, consistent within the call.
// Values are detached copies; mutating them never touches stored content.
// Iteration order over the returned map is not specified.
func (s *Store) Items() (map[string]Attributes, error) {
	if !s.isOpen {
		return nil, fmt.Errorf("cannot iterate: %w", ErrStoreNotOpen)
	}
	snapshot := make(map[string]Attributes, len(s.data))
	for key, value := range s.data {
		snapshot[key] = copyAttributes(value)
	}
	return snapshot, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// IsOpen reports whether the store is open.
func (s *Store) IsOpen() bool {
	return s.isOpen
}

// IsDirty reports whether in-memory content differs from the last durable
// write.
func (s *Store) IsDirty() bool {
	return s.dirty
}

// copyAttributes detaches a value from stored content so that callers
// cannot mutate the store behind the dirty flag. Nested JSON containers
// are cloned too; scalars are immutable.
func copyAttributes(value Attributes) Attributes {
	out := make(Attributes, len(value))
	for k, v := range value {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = copyValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = copyValue(inner)
		}
		return out
	default:
		return v
	}
}
