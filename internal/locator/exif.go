package locator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/jmarc580625/medialocate/internal/gps"
	"github.com/jmarc580625/medialocate/internal/metrics"
)

// exiftool tag names for the composite GPS coordinates.
const (
	exifLatitudeTag  = "Composite:GPSLatitude"
	exifLongitudeTag = "Composite:GPSLongitude"
)

const extractTimeout = 30 * time.Second

// ErrNoGPSData is returned when a file carries no usable GPS coordinates.
var ErrNoGPSData = errors.New("no GPS data found")

// exifRecord is one entry of exiftool's -j output.
type exifRecord struct {
	Latitude  *float64 `json:"GPSLatitude"`
	Longitude *float64 `json:"GPSLongitude"`
}

// ExtractGPS reads the GPS coordinates of a media file with exiftool.
// Returns ErrNoGPSData when coordinates are absent or the null island
// (0,0) placeholder some devices write.
func ExtractGPS(path string) (gps.Coordinates, error) {
	ctx, cancel := context.WithTimeout(context.Background(), extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "exiftool",
		"-j",
		"-n",
		"-"+exifLatitudeTag,
		"-"+exifLongitudeTag,
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.LocatorExtractionsTotal.WithLabelValues("error").Inc()
		return gps.Coordinates{}, fmt.Errorf("exiftool error: %w - %s", err, stderr.String())
	}

	coords, err := parseGPSOutput(stdout.Bytes())
	if err != nil {
		metrics.LocatorExtractionsTotal.WithLabelValues("no_gps").Inc()
		return gps.Coordinates{}, err
	}
	metrics.LocatorExtractionsTotal.WithLabelValues("located").Inc()
	return coords, nil
}

// parseGPSOutput decodes exiftool -j output into validated coordinates.
func parseGPSOutput(raw []byte) (gps.Coordinates, error) {
	var records []exifRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return gps.Coordinates{}, fmt.Errorf("parsing exiftool output: %w", err)
	}
	if len(records) == 0 {
		return gps.Coordinates{}, ErrNoGPSData
	}
	rec := records[0]
	if rec.Latitude == nil || rec.Longitude == nil {
		return gps.Coordinates{}, ErrNoGPSData
	}
	if *rec.Latitude == 0 && *rec.Longitude == 0 {
		return gps.Coordinates{}, fmt.Errorf("%w: null island coordinates", ErrNoGPSData)
	}
	return gps.New(*rec.Latitude, *rec.Longitude)
}
