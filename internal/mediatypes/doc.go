// Package mediatypes classifies media files by extension and produces
// IANA media type strings for them.
package mediatypes
