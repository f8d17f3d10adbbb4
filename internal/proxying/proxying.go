package proxying

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmarc580625/medialocate/internal/gps"
	"github.com/jmarc580625/medialocate/internal/grouping"
	"github.com/jmarc580625/medialocate/internal/locator"
	"github.com/jmarc580625/medialocate/internal/logging"
)

// StoreName is the proxy store file inside the working directory.
const StoreName = "mediaproxy.json"

var (
	// ErrSelfProxy is returned when a tree is searched against itself.
	ErrSelfProxy = errors.New("no proxy search against self")
	// ErrUpToDate is returned when a recorded search is newer than the
	// other tree's group data and force is not set.
	ErrUpToDate = errors.New("group locations unchanged since last proxy search")
)

// Match pairs one of the tree's own group centers with the nearby group
// centers found in another tree.
type Match struct {
	Center gps.Coordinates   `json:"center"`
	Nearby []gps.Coordinates `json:"nearby"`
}

// Proxy records one proximity search against another tree's groups.
type Proxy struct {
	Threshold  float64 `json:"proxy_threshold"`
	Matches    []Match `json:"proxy_matches"`
	LastUpdate float64 `json:"last_update"`
}

// Proxies aggregates the proximity searches run from one processed tree
// against the group data of other trees, keyed by the other tree's label.
type Proxies struct {
	Label   string           `json:"label"`
	Proxies map[string]Proxy `json:"proxies"`

	// centers are the tree's own group barycenters. They are never
	// serialized; the group store stays their single source.
	centers []gps.Coordinates
}

// New creates an empty proxy set for the tree labeled label, seeded with
// its own group centers.
func New(label string, centers []gps.Coordinates) *Proxies {
	return &Proxies{
		Label:   label,
		Proxies: make(map[string]Proxy),
		centers: centers,
	}
}

// SetCenters refreshes the tree's own group centers after loading.
func (p *Proxies) SetCenters(centers []gps.Coordinates) {
	p.centers = centers
}

// FindProxies searches another tree's group centers for locations within
// threshold kilometers of this tree's own centers and records the result
// under label, replacing any earlier search. lastUpdate is the modification
// time of the other tree's group data as fractional Unix seconds; unless
// force is set, a recorded search newer than it is kept untouched and
// ErrUpToDate is returned. Searching a tree against itself returns
// ErrSelfProxy.
func (p *Proxies) FindProxies(label string, threshold float64, centers []gps.Coordinates, lastUpdate float64, force bool) (int, error) {
	if label == p.Label {
		return 0, ErrSelfProxy
	}
	if prev, ok := p.Proxies[label]; ok && lastUpdate < prev.LastUpdate && !force {
		return 0, ErrUpToDate
	}

	proxy := Proxy{Threshold: threshold, LastUpdate: nowSeconds()}
	found := 0
	for _, center := range p.centers {
		var nearby []gps.Coordinates
		for _, other := range centers {
			if other.DistanceTo(center) < threshold {
				nearby = append(nearby, other)
			}
		}
		if len(nearby) > 0 {
			proxy.Matches = append(proxy.Matches, Match{Center: center, Nearby: nearby})
			found += len(nearby)
		}
	}
	p.Proxies[label] = proxy
	return found, nil
}

// Save writes the proxy set to path as pretty-printed JSON.
func (p *Proxies) Save(path string) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding proxies: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing proxies: %w", err)
	}
	return nil
}

// Load reads a proxy set previously written by Save. The tree's own group
// centers are not persisted; call SetCenters before searching.
func Load(path string) (*Proxies, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading proxies: %w", err)
	}
	var p Proxies
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding proxies: %w", err)
	}
	if p.Proxies == nil {
		p.Proxies = make(map[string]Proxy)
	}
	return &p, nil
}

// Controller runs proximity searches from one target tree against the
// group data of other processed trees and persists the result in the
// target's proxy store.
//
// A target without group data leaves the controller inert: Open logs and
// returns nil, and later calls do nothing.
type Controller struct {
	targetDir string
	storePath string
	proxies   *Proxies
	updated   bool
}

// NewController creates a controller for the tree at targetDir.
func NewController(targetDir string) *Controller {
	return &Controller{
		targetDir: targetDir,
		storePath: filepath.Join(targetDir, locator.WorkDirName, StoreName),
	}
}

// Open loads the target tree's group centers and any existing proxy store.
func (c *Controller) Open() error {
	workDir := filepath.Join(c.targetDir, locator.WorkDirName)
	info, err := os.Stat(workDir)
	if err != nil || !info.IsDir() {
		logging.Info("proxying: %s has no location data, ignored", c.targetDir)
		return nil
	}

	groups, err := grouping.Load(filepath.Join(workDir, grouping.StoreName))
	if err != nil {
		return fmt.Errorf("loading group store for %s: %w", c.targetDir, err)
	}

	label, err := labelOf(c.targetDir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(c.storePath); err != nil {
		logging.Info("proxying: %s has no proxy data, starting fresh", label)
		c.proxies = New(label, groups.Centers())
		return nil
	}
	proxies, err := Load(c.storePath)
	if err != nil {
		return fmt.Errorf("loading proxy store for %s: %w", c.targetDir, err)
	}
	proxies.SetCenters(groups.Centers())
	c.proxies = proxies
	return nil
}

// FindProxies runs a proximity search against the group data of the tree
// at sourceDir. A source without group data is logged and skipped.
func (c *Controller) FindProxies(sourceDir string, threshold float64, force bool) (int, error) {
	if c.proxies == nil {
		return 0, nil
	}

	sourcePath := filepath.Join(sourceDir, locator.WorkDirName, grouping.StoreName)
	info, err := os.Stat(sourcePath)
	if err != nil {
		logging.Warn("proxying: %s has no group data, ignored", sourceDir)
		return 0, nil
	}
	groups, err := grouping.Load(sourcePath)
	if err != nil {
		logging.Error("proxying: loading group data for %s: %v", sourceDir, err)
		return 0, nil
	}
	label, err := labelOf(sourceDir)
	if err != nil {
		return 0, err
	}

	lastUpdate := float64(info.ModTime().UnixNano()) / float64(time.Second)
	found, err := c.proxies.FindProxies(label, threshold, groups.Centers(), lastUpdate, force)
	switch {
	case errors.Is(err, ErrSelfProxy):
		logging.Info("proxying: %s: no search against itself", c.proxies.Label)
		return 0, nil
	case errors.Is(err, ErrUpToDate):
		logging.Info("proxying: %s: %s unchanged since last search, ignored", c.proxies.Label, label)
		return 0, nil
	case err != nil:
		return 0, err
	}

	c.updated = true
	logging.Info("proxying: %s: found %d nearby locations in %s", c.proxies.Label, found, label)
	return found, nil
}

// Commit writes the proxy store iff a search modified it. It reports
// whether a write happened.
func (c *Controller) Commit() (bool, error) {
	if c.proxies == nil || !c.updated {
		return false, nil
	}
	if err := c.proxies.Save(c.storePath); err != nil {
		return false, err
	}
	c.updated = false
	return true, nil
}

// labelOf derives a tree's proxy label from its directory name, with
// symlinks resolved so the same tree always labels identically.
func labelOf(dir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", err
	}
	return filepath.Base(abs), nil
}

// nowSeconds returns the current time as fractional Unix seconds, the
// persisted time format.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
