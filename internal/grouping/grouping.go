package grouping

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jmarc580625/medialocate/internal/gps"
	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/store"
)

// StoreName is the group store file inside the working directory.
const StoreName = "mediagroup.json"

// Group is a cluster of media sharing a nearby location. Its coordinates
// are the barycenter of all member locations.
type Group struct {
	GPS       gps.Coordinates `json:"gps"`
	MediaKeys []string        `json:"media_keys"`
}

// Groups clusters media locations by proximity. Two locations belong to
// the same group when their distance is below the threshold, expressed
// in kilometers.
type Groups struct {
	Threshold float64 `json:"grouping_threshold"`
	Groups    []Group `json:"groups"`
}

// New creates an empty group set with the given distance threshold.
func New(threshold float64) *Groups {
	return &Groups{Threshold: threshold}
}

// AddLocations folds media location records into the group set. Each
// record must carry a gps attribute with latitude and longitude; records
// without usable coordinates are skipped. A location within threshold of
// an existing group joins it and shifts its barycenter, weighted by the
// group's member count. Otherwise it seeds a new group.
func (g *Groups) AddLocations(locations map[string]store.Attributes) {
	for key, attrs := range locations {
		coords, err := coordinatesOf(attrs)
		if err != nil {
			logging.Warn("grouping: invalid GPS coordinates for %s: %v", key, err)
			continue
		}

		joined := false
		for i := range g.Groups {
			if g.Groups[i].GPS.DistanceTo(coords) < g.Threshold {
				weight := float64(len(g.Groups[i].MediaKeys))
				g.Groups[i].GPS = g.Groups[i].GPS.BarycenterTo(coords, weight)
				g.Groups[i].MediaKeys = append(g.Groups[i].MediaKeys, key)
				joined = true
			}
		}
		if !joined {
			g.Groups = append(g.Groups, Group{GPS: coords, MediaKeys: []string{key}})
		}
	}
}

// Centers returns the barycenter coordinates of every group.
func (g *Groups) Centers() []gps.Coordinates {
	centers := make([]gps.Coordinates, len(g.Groups))
	for i, group := range g.Groups {
		centers[i] = group.GPS
	}
	return centers
}

// Save writes the group set to path as pretty-printed JSON.
func (g *Groups) Save(path string) error {
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding groups: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing groups: %w", err)
	}
	return nil
}

// Load reads a group set previously written by Save.
func Load(path string) (*Groups, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading groups: %w", err)
	}
	var g Groups
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decoding groups: %w", err)
	}
	return &g, nil
}

// Fresh reports whether the group file at outputPath is newer than the
// location data at inputPath, in which case regrouping can be skipped.
func Fresh(inputPath, outputPath string) bool {
	out, err := os.Stat(outputPath)
	if err != nil {
		return false
	}
	in, err := os.Stat(inputPath)
	if err != nil {
		return false
	}
	return out.ModTime().After(in.ModTime())
}

// coordinatesOf extracts validated GPS coordinates from a location
// record's attribute map.
func coordinatesOf(attrs store.Attributes) (gps.Coordinates, error) {
	raw, ok := attrs["gps"].(map[string]any)
	if !ok {
		return gps.Coordinates{}, fmt.Errorf("missing gps attribute")
	}
	lat, ok := raw["latitude"].(float64)
	if !ok {
		return gps.Coordinates{}, fmt.Errorf("missing latitude")
	}
	lon, ok := raw["longitude"].(float64)
	if !ok {
		return gps.Coordinates{}, fmt.Errorf("missing longitude")
	}
	return gps.New(lat, lon)
}
