package batch

import (
	"fmt"
	"iter"
	"time"

	"github.com/jmarc580625/medialocate/internal/naming"
	"github.com/jmarc580625/medialocate/internal/store"
)

// State is the processing outcome recorded for a file. The string values are
// the persisted wire format and must not change.
type State string

const (
	// StateDone marks a file whose action completed successfully.
	StateDone State = "done"
	// StateIgnore marks a file the action chose to skip; it is never retried.
	StateIgnore State = "ignore"
	// StateOngoing marks a file whose action has started but not concluded.
	StateOngoing State = "tmp"
	// StateError marks a file whose action failed; it is retried next run.
	StateError State = "error"
)

// ParseState validates a persisted state value.
func ParseState(value string) (State, error) {
	switch s := State(value); s {
	case StateDone, StateIgnore, StateOngoing, StateError:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status state %q", value)
	}
}

// Attribute names of a persisted status record.
const (
	stateKey    = "state"
	filenameKey = "filename"
	timeKey     = "time"
)

// Status is one file's processing status: its state, canonical filename and
// the time of the last status write, keyed in the store by the hash of the
// file's normalized path.
//
// The transient isNew/dirty flags gate write-through: Update touches the
// store only for a new or modified record, and Delete removes only a record
// that was actually loaded from the store.
type Status struct {
	store    *store.Store
	key      string
	filename string
	state    State
	time     float64

	isNew   bool
	dirty   bool
	deleted bool
}

// Hash returns the store key for a file path. Two spellings of the same path
// that differ only by separator style hash identically.
func Hash(path string) string {
	return naming.Hash(path)
}

// NewStatus creates a not-yet-persisted status record with the current time.
func NewStatus(s *store.Store, key string, state State, filename string) *Status {
	return NewStatusAt(s, key, state, filename, now())
}

// NewStatusAt is NewStatus with an explicit record time, given as fractional
// Unix seconds.
func NewStatusAt(s *store.Store, key string, state State, filename string, at float64) *Status {
	return &Status{
		store:    s,
		key:      key,
		filename: naming.ToPosix(filename),
		state:    state,
		time:     at,
		isNew:    true,
	}
}

// Load reads one status record from the store. It returns (nil, nil) when
// the key is absent.
func Load(s *store.Store, key string) (*Status, error) {
	attrs, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return fromAttributes(s, key, attrs)
}

// All iterates every status record in the store. The sequence is finite and
// restartable only by re-invoking All; it reflects a snapshot taken at call
// time.
func All(s *store.Store) (iter.Seq[*Status], error) {
	items, err := s.Items()
	if err != nil {
		return nil, err
	}
	return func(yield func(*Status) bool) {
		for key, attrs := range items {
			status, err := fromAttributes(s, key, attrs)
			if err != nil {
				// Skip records that do not decode; they are unreachable by
				// key anyway and the sweep must not abort mid-iteration.
				continue
			}
			if !yield(status) {
				return
			}
		}
	}, nil
}

func fromAttributes(s *store.Store, key string, attrs store.Attributes) (*Status, error) {
	rawState, ok := attrs[stateKey].(string)
	if !ok {
		return nil, fmt.Errorf("status %s: missing state", key)
	}
	state, err := ParseState(rawState)
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", key, err)
	}
	filename, ok := attrs[filenameKey].(string)
	if !ok {
		return nil, fmt.Errorf("status %s: missing filename", key)
	}
	timestamp, ok := attrs[timeKey].(float64)
	if !ok {
		return nil, fmt.Errorf("status %s: missing time", key)
	}
	return &Status{
		store:    s,
		key:      key,
		filename: filename,
		state:    state,
		time:     timestamp,
	}, nil
}

// Key returns the record's store key. It never changes after creation.
func (st *Status) Key() string { return st.key }

// Filename returns the recorded file path in forward-slash form.
func (st *Status) Filename() string { return st.filename }

// State returns the current processing state.
func (st *Status) State() State { return st.state }

// Time returns the Unix timestamp of the last status write.
func (st *Status) Time() float64 { return st.time }

// SetState mutates the in-memory state and marks the record dirty. It does
// not write through; call Update for that.
func (st *Status) SetState(state State) {
	st.state = state
	st.dirty = true
}

// Update writes the record through to the store iff it is new or dirty,
// refreshing its time to now. Calling Update on an unmodified, previously
// loaded record is a guaranteed no-op: no store mutation, no time change.
func (st *Status) Update() error {
	if st.deleted {
		return nil
	}
	if !st.isNew && !st.dirty {
		return nil
	}
	st.time = now()
	err := st.store.Set(st.key, store.Attributes{
		stateKey:    string(st.state),
		filenameKey: st.filename,
		timeKey:     st.time,
	})
	if err != nil {
		return err
	}
	st.isNew = false
	st.dirty = false
	return nil
}

// Delete removes the record from the store iff it previously existed there.
// Deleting a never-persisted record is a no-op. A deleted record is never
// written again.
func (st *Status) Delete() error {
	if !st.isNew {
		if _, _, err := st.store.Pop(st.key); err != nil {
			return err
		}
	}
	st.deleted = true
	return nil
}

// now returns the current time as fractional Unix seconds, the persisted
// time format.
func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
