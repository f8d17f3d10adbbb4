// Package web serves a processed media tree over HTTP: the generated
// viewer page, location and group data, media files and thumbnails.
package web
