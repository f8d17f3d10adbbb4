package mediatypes

import (
	"sort"

	"github.com/jmarc580625/medialocate/internal/naming"
)

// MediaType represents the category of a media file.
type MediaType string

const (
	// MediaTypeMovie represents a video file.
	MediaTypeMovie MediaType = "movie"
	// MediaTypePicture represents an image file.
	MediaTypePicture MediaType = "image"
	// MediaTypeUnknown represents an unrecognized file.
	MediaTypeUnknown MediaType = "unknown"
)

// String returns the lowercase string form of the media type.
func (t MediaType) String() string {
	return string(t)
}

// mediaInfo associates a media category with its IANA subtype.
type mediaInfo struct {
	mediaType MediaType
	format    string
}

// mediaTypes maps lowercase file extensions (no leading dot) to their
// classification.
var mediaTypes = map[string]mediaInfo{
	"3gp":  {MediaTypeMovie, "3gpp"},
	"avi":  {MediaTypeMovie, "x-msvideo"},
	"mkv":  {MediaTypeMovie, "x-matroska"},
	"mov":  {MediaTypeMovie, "quicktime"},
	"mp4":  {MediaTypeMovie, "mp4"},
	"mpeg": {MediaTypeMovie, "mpeg"},
	"mpg":  {MediaTypeMovie, "mpeg"},
	"wmv":  {MediaTypeMovie, "x-ms-wmv"},
	"webm": {MediaTypeMovie, "webm"},
	"gif":  {MediaTypePicture, "gif"},
	"jpeg": {MediaTypePicture, "jpeg"},
	"jpg":  {MediaTypePicture, "jpeg"},
	"png":  {MediaTypePicture, "png"},
	"tiff": {MediaTypePicture, "tiff"},
	"webp": {MediaTypePicture, "webp"},
}

// Extensions returns the supported file extensions with leading dots,
// in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(mediaTypes))
	for ext := range mediaTypes {
		exts = append(exts, "."+ext)
	}
	sort.Strings(exts)
	return exts
}

// TypeOf returns the media type of a file based on its extension.
// Returns MediaTypeUnknown if the extension is not recognized.
func TypeOf(filename string) MediaType {
	if info, ok := mediaTypes[naming.Extension(filename)]; ok {
		return info.mediaType
	}
	return MediaTypeUnknown
}

// IANAType returns the IANA media type string ("type/subtype") for a file.
// Returns "unknown" if the extension is not recognized.
func IANAType(filename string) string {
	info, ok := mediaTypes[naming.Extension(filename)]
	if !ok {
		return MediaTypeUnknown.String()
	}
	return info.mediaType.String() + "/" + info.format
}

// ContentType returns the HTTP content type for a file, mapping movies
// to video/* and pictures to image/*. Returns "application/octet-stream"
// for unrecognized extensions.
func ContentType(filename string) string {
	info, ok := mediaTypes[naming.Extension(filename)]
	if !ok {
		return "application/octet-stream"
	}
	switch info.mediaType {
	case MediaTypeMovie:
		return "video/" + info.format
	case MediaTypePicture:
		return "image/" + info.format
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the filename has a supported media extension.
func IsMediaFile(filename string) bool {
	return TypeOf(filename) != MediaTypeUnknown
}
