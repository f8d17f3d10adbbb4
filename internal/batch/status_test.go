package batch

import (
	"testing"

	"github.com/jmarc580625/medialocate/internal/store"
)

func newOpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), StatusStoreName)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    State
		wantErr bool
	}{
		{
			name:  "done",
			value: "done",
			want:  StateDone,
		},
		{
			name:  "ignore",
			value: "ignore",
			want:  StateIgnore,
		},
		{
			name:  "ongoing uses its historical tmp value",
			value: "tmp",
			want:  StateOngoing,
		},
		{
			name:  "error",
			value: "error",
			want:  StateError,
		},
		{
			name:    "unknown value rejected",
			value:   "pending",
			wantErr: true,
		},
		{
			name:    "empty value rejected",
			value:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseState(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseState(%q) should fail", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseState(%q) error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestHashSeparatorIndependence(t *testing.T) {
	if Hash("photos/2023/pic.jpg") != Hash("photos\\2023\\pic.jpg") {
		t.Error("Hash must be independent of path separator style")
	}
}

func TestLoadAbsentKey(t *testing.T) {
	s := newOpenStore(t)
	status, err := Load(s, "missing")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if status != nil {
		t.Errorf("Load() of absent key = %v, want nil", status)
	}
}

func TestUpdateWritesNewRecord(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a/b.jpg")
	status := NewStatus(s, key, StateOngoing, "a/b.jpg")

	if err := status.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if ok, _ := s.Contains(key); !ok {
		t.Fatal("new record not written to store")
	}

	loaded, err := Load(s, key)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.State() != StateOngoing {
		t.Errorf("loaded state = %v, want %v", loaded.State(), StateOngoing)
	}
	if loaded.Filename() != "a/b.jpg" {
		t.Errorf("loaded filename = %q, want %q", loaded.Filename(), "a/b.jpg")
	}
	if loaded.Time() != status.Time() {
		t.Errorf("loaded time = %v, want %v", loaded.Time(), status.Time())
	}
}

func TestNewStatusAt(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a/b.jpg")
	status := NewStatusAt(s, key, StateDone, "a/b.jpg", 12.5)

	if status.Time() != 12.5 {
		t.Errorf("Time() = %v, want the explicit 12.5", status.Time())
	}

	// NewStatus defaults the time to now.
	defaulted := NewStatus(s, key, StateDone, "a/b.jpg")
	if defaulted.Time() <= 12.5 {
		t.Errorf("default Time() = %v, want a current timestamp", defaulted.Time())
	}
}

func TestUpdateNormalizesWindowsFilename(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a\\b.jpg")
	status := NewStatus(s, key, StateDone, "a\\b.jpg")

	if status.Filename() != "a/b.jpg" {
		t.Errorf("Filename() = %q, want forward-slash form", status.Filename())
	}
}

func TestUpdateUnmodifiedLoadedRecordIsNoop(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a/b.jpg")
	if err := NewStatus(s, key, StateDone, "a/b.jpg").Update(); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(s, key)
	if err != nil {
		t.Fatal(err)
	}
	before := loaded.Time()

	if err := loaded.Update(); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if loaded.Time() != before {
		t.Error("Update of unmodified record must not refresh its time")
	}
	if s.IsDirty() {
		t.Error("Update of unmodified record must not touch the store")
	}
}

func TestUpdateModifiedLoadedRecordWrites(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a/b.jpg")
	if err := NewStatus(s, key, StateOngoing, "a/b.jpg").Update(); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(s, key)
	if err != nil {
		t.Fatal(err)
	}
	before := loaded.Time()
	loaded.SetState(StateDone)
	if err := loaded.Update(); err != nil {
		t.Fatal(err)
	}

	if !s.IsDirty() {
		t.Error("Update of modified record must write to the store")
	}
	if loaded.Time() < before {
		t.Error("Update must refresh the record time forward")
	}
	reloaded, err := Load(s, key)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.State() != StateDone {
		t.Errorf("reloaded state = %v, want %v", reloaded.State(), StateDone)
	}
}

func TestDeleteNewRecordIsNoop(t *testing.T) {
	s := newOpenStore(t)
	status := NewStatus(s, Hash("a/b.jpg"), StateOngoing, "a/b.jpg")

	if err := status.Delete(); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if s.IsDirty() {
		t.Error("Delete of a never-persisted record must not touch the store")
	}
}

func TestDeleteLoadedRecordRemoves(t *testing.T) {
	s := newOpenStore(t)
	key := Hash("a/b.jpg")
	if err := NewStatus(s, key, StateDone, "a/b.jpg").Update(); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(s, key)
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Delete(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Contains(key); ok {
		t.Error("record still present after Delete")
	}

	// A deleted record must never be written again.
	loaded.SetState(StateError)
	if err := loaded.Update(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Contains(key); ok {
		t.Error("Update resurrected a deleted record")
	}
}

func TestAllIteratesEveryRecord(t *testing.T) {
	s := newOpenStore(t)
	paths := []string{"a/1.jpg", "a/2.jpg", "b/3.jpg"}
	for _, p := range paths {
		if err := NewStatus(s, Hash(p), StateDone, p).Update(); err != nil {
			t.Fatal(err)
		}
	}

	statuses, err := All(s)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for status := range statuses {
		seen[status.Filename()] = true
	}
	if len(seen) != len(paths) {
		t.Fatalf("All() yielded %d records, want %d", len(seen), len(paths))
	}
	for _, p := range paths {
		if !seen[p] {
			t.Errorf("All() missing record for %s", p)
		}
	}

	// The sequence restarts from scratch on re-invocation.
	statuses, err = All(s)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for range statuses {
		count++
	}
	if count != len(paths) {
		t.Errorf("re-invoked All() yielded %d records, want %d", count, len(paths))
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(dir, StatusStoreName)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}

	key := Hash("trip/père.jpg")
	original := NewStatus(s, key, StateError, "trip/père.jpg")
	if err := original.Update(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := store.New(dir, StatusStoreName)
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.Open(); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(reopened, key)
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil {
		t.Fatal("record lost across close/reopen")
	}
	if loaded.State() != original.State() {
		t.Errorf("state = %v, want %v", loaded.State(), original.State())
	}
	if loaded.Filename() != original.Filename() {
		t.Errorf("filename = %q, want %q", loaded.Filename(), original.Filename())
	}
	if loaded.Time() != original.Time() {
		t.Errorf("time = %v, want %v", loaded.Time(), original.Time())
	}
}
