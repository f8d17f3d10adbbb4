// Package locator extracts GPS coordinates from media files with exiftool,
// generates thumbnails for them, and records the results in a location
// store from which a browsable viewer page is produced.
package locator
