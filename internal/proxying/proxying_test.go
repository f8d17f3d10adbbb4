package proxying

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmarc580625/medialocate/internal/gps"
	"github.com/jmarc580625/medialocate/internal/grouping"
	"github.com/jmarc580625/medialocate/internal/locator"
)

var (
	paris       = gps.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	parisNearby = gps.Coordinates{Latitude: 48.86, Longitude: 2.36}
	london      = gps.Coordinates{Latitude: 51.5074, Longitude: -0.1278}
)

// writeGroupTree lays out a processed tree holding a group store with the
// given group centers and returns the tree's path. The directory name
// becomes the tree's proxy label.
func writeGroupTree(t *testing.T, name string, centers ...gps.Coordinates) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	workDir := filepath.Join(dir, locator.WorkDirName)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatal(err)
	}
	g := grouping.New(0.1)
	for i, c := range centers {
		g.Groups = append(g.Groups, grouping.Group{
			GPS:       c,
			MediaKeys: []string{fmt.Sprintf("file%d.jpg", i)},
		})
	}
	if err := g.Save(filepath.Join(workDir, grouping.StoreName)); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestFindProxiesMatching(t *testing.T) {
	p := New("target", []gps.Coordinates{paris})

	found, err := p.FindProxies("other", 1.0, []gps.Coordinates{parisNearby, london}, 10.0, false)
	if err != nil {
		t.Fatalf("FindProxies() error: %v", err)
	}
	if found != 1 {
		t.Errorf("found = %d, want 1", found)
	}

	proxy, ok := p.Proxies["other"]
	if !ok {
		t.Fatal("no proxy recorded under the searched label")
	}
	if proxy.Threshold != 1.0 {
		t.Errorf("Threshold = %v, want 1.0", proxy.Threshold)
	}
	if len(proxy.Matches) != 1 {
		t.Fatalf("Matches = %d entries, want 1", len(proxy.Matches))
	}
	match := proxy.Matches[0]
	if match.Center != paris {
		t.Errorf("match center = %v, want %v", match.Center, paris)
	}
	if len(match.Nearby) != 1 || match.Nearby[0] != parisNearby {
		t.Errorf("nearby = %v, want only %v", match.Nearby, parisNearby)
	}
}

func TestFindProxiesNoMatch(t *testing.T) {
	p := New("target", []gps.Coordinates{paris})

	found, err := p.FindProxies("other", 1.0, []gps.Coordinates{london}, 10.0, false)
	if err != nil {
		t.Fatalf("FindProxies() error: %v", err)
	}
	if found != 0 {
		t.Errorf("found = %d, want 0", found)
	}
	// An empty search is still recorded so its freshness can gate reruns.
	if _, ok := p.Proxies["other"]; !ok {
		t.Error("empty search should still be recorded")
	}
}

func TestFindProxiesSelf(t *testing.T) {
	p := New("target", []gps.Coordinates{paris})

	_, err := p.FindProxies("target", 1.0, []gps.Coordinates{paris}, 10.0, false)
	if !errors.Is(err, ErrSelfProxy) {
		t.Fatalf("FindProxies() against self error = %v, want ErrSelfProxy", err)
	}
	if len(p.Proxies) != 0 {
		t.Error("self search must not record a proxy")
	}
}

func TestFindProxiesFreshnessGuard(t *testing.T) {
	p := New("target", []gps.Coordinates{paris})
	if _, err := p.FindProxies("other", 1.0, []gps.Coordinates{parisNearby}, 10.0, false); err != nil {
		t.Fatal(err)
	}

	// The recorded search is newer than this stale group data.
	_, err := p.FindProxies("other", 1.0, []gps.Coordinates{london}, 1.0, false)
	if !errors.Is(err, ErrUpToDate) {
		t.Fatalf("stale rerun error = %v, want ErrUpToDate", err)
	}
	if len(p.Proxies["other"].Matches) != 1 {
		t.Error("stale rerun must keep the recorded search")
	}

	// Force overrides the guard and replaces the search.
	found, err := p.FindProxies("other", 1.0, []gps.Coordinates{london}, 1.0, true)
	if err != nil {
		t.Fatalf("forced rerun error: %v", err)
	}
	if found != 0 {
		t.Errorf("forced rerun found = %d, want 0", found)
	}
	if len(p.Proxies["other"].Matches) != 0 {
		t.Error("forced rerun must replace the recorded search")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := New("target", []gps.Coordinates{paris})
	if _, err := p.FindProxies("other", 1.0, []gps.Coordinates{parisNearby}, 10.0, false); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), StoreName)
	if err := p.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Label != "target" {
		t.Errorf("Label = %q, want %q", loaded.Label, "target")
	}
	proxy, ok := loaded.Proxies["other"]
	if !ok {
		t.Fatal("loaded set misses the recorded search")
	}
	if proxy.LastUpdate != p.Proxies["other"].LastUpdate {
		t.Errorf("LastUpdate = %v, want %v", proxy.LastUpdate, p.Proxies["other"].LastUpdate)
	}
	if len(proxy.Matches) != 1 || proxy.Matches[0].Center != paris {
		t.Errorf("loaded matches = %v", proxy.Matches)
	}
}

func TestControllerFindAndCommit(t *testing.T) {
	target := writeGroupTree(t, "target", paris)
	source := writeGroupTree(t, "source", parisNearby)

	ctrl := NewController(target)
	if err := ctrl.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	found, err := ctrl.FindProxies(source, 1.0, false)
	if err != nil {
		t.Fatalf("FindProxies() error: %v", err)
	}
	if found != 1 {
		t.Errorf("found = %d, want 1", found)
	}

	written, err := ctrl.Commit()
	if err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if !written {
		t.Fatal("Commit() should write after a successful search")
	}

	loaded, err := Load(filepath.Join(target, locator.WorkDirName, StoreName))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Label != "target" {
		t.Errorf("Label = %q, want %q", loaded.Label, "target")
	}
	if _, ok := loaded.Proxies["source"]; !ok {
		t.Error("committed store misses the search against the source tree")
	}

	// A second commit with no new search writes nothing.
	written, err = ctrl.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if written {
		t.Error("Commit() without changes should not write")
	}
}

func TestControllerSkipsSelf(t *testing.T) {
	target := writeGroupTree(t, "target", paris)

	ctrl := NewController(target)
	if err := ctrl.Open(); err != nil {
		t.Fatal(err)
	}
	found, err := ctrl.FindProxies(target, 1.0, false)
	if err != nil || found != 0 {
		t.Errorf("self search = (%d, %v), want (0, nil)", found, err)
	}
	if written, _ := ctrl.Commit(); written {
		t.Error("self search must not dirty the store")
	}
}

func TestControllerWithoutLocationData(t *testing.T) {
	bare := t.TempDir()

	ctrl := NewController(bare)
	if err := ctrl.Open(); err != nil {
		t.Fatalf("Open() on a bare directory error: %v", err)
	}
	found, err := ctrl.FindProxies(bare, 1.0, false)
	if err != nil || found != 0 {
		t.Errorf("inert search = (%d, %v), want (0, nil)", found, err)
	}
	if written, _ := ctrl.Commit(); written {
		t.Error("inert controller must not write")
	}
}

func TestControllerSkipsSourceWithoutGroups(t *testing.T) {
	target := writeGroupTree(t, "target", paris)
	bare := t.TempDir()

	ctrl := NewController(target)
	if err := ctrl.Open(); err != nil {
		t.Fatal(err)
	}
	found, err := ctrl.FindProxies(bare, 1.0, false)
	if err != nil || found != 0 {
		t.Errorf("search on bare source = (%d, %v), want (0, nil)", found, err)
	}
}
