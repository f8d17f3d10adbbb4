package locator

import (
	"fmt"
	"path/filepath"

	"github.com/jmarc580625/medialocate/internal/batch"
	"github.com/jmarc580625/medialocate/internal/gps"
	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/mediatypes"
	"github.com/jmarc580625/medialocate/internal/naming"
	"github.com/jmarc580625/medialocate/internal/store"
)

const (
	// WorkDirName is the hidden directory holding all per-tree state.
	WorkDirName = ".medialocate"
	// StoreName is the location store file inside the working directory.
	StoreName = "medialocate.json"
	// PageName is the default viewer page file name.
	PageName = "medialocate.html"
)

// DataTag is the location record kept for each media file.
type DataTag struct {
	MediaSource    string          `json:"mediasource"`
	MediaThumbnail string          `json:"mediathumbnail"`
	MediaFormat    string          `json:"mediaformat"`
	MediaType      string          `json:"mediatype"`
	GPS            gps.Coordinates `json:"gps"`
}

// MediaLocate is a batch action that extracts GPS coordinates from media
// files and maintains the location store.
type MediaLocate struct {
	workDir string
	outFile string
	store   *store.Store
}

// New creates a MediaLocate action rooted at workDir. The location store
// is opened immediately; outFile is where the viewer page is written.
func New(workDir, outFile string) (*MediaLocate, error) {
	s, err := store.New(workDir, StoreName)
	if err != nil {
		return nil, fmt.Errorf("creating location store: %w", err)
	}
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening location store: %w", err)
	}
	return &MediaLocate{
		workDir: workDir,
		outFile: outFile,
		store:   s,
	}, nil
}

// Store returns the underlying location store.
func (m *MediaLocate) Store() *store.Store {
	return m.store
}

// Invoke processes one media file. It extracts GPS coordinates, generates
// a thumbnail named after the file key, and records a DataTag in the
// location store. Files without usable GPS data are ignored.
func (m *MediaLocate) Invoke(path, key string) (int, error) {
	coords, err := ExtractGPS(path)
	if err != nil {
		logging.Warn("locator: %s: %v", path, err)
		return batch.ResultIgnore, nil
	}

	mediaType := mediatypes.TypeOf(path)
	thumbPath := filepath.Join(m.workDir, key+".jpg")
	if err := m.createThumbnail(path, mediaType, thumbPath); err != nil {
		logging.Error("locator: %s: thumbnail creation failed: %v", path, err)
		return batch.ResultHardFailed, nil
	}

	tag := DataTag{
		MediaSource:    naming.RelativeURI(path),
		MediaThumbnail: naming.RelativeURI(thumbPath),
		MediaFormat:    naming.Extension(path),
		MediaType:      mediaType.String(),
		GPS:            coords,
	}
	if err := m.store.Set(key, tag.toAttributes()); err != nil {
		return batch.ResultHardFailed, fmt.Errorf("recording location for %s: %w", path, err)
	}
	logging.Debug("locator: %s located at %s", path, coords)
	return batch.ResultSuccess, nil
}

// Close flushes and releases the location store.
func (m *MediaLocate) Close() error {
	return m.store.Close()
}

// toAttributes converts the tag to the generic attribute map the store
// persists.
func (t DataTag) toAttributes() store.Attributes {
	return store.Attributes{
		"mediasource":    t.MediaSource,
		"mediathumbnail": t.MediaThumbnail,
		"mediaformat":    t.MediaFormat,
		"mediatype":      t.MediaType,
		"gps": map[string]any{
			"latitude":  t.GPS.Latitude,
			"longitude": t.GPS.Longitude,
		},
	}
}
