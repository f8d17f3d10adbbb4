// Package naming provides consistent file path handling for the medialocate
// tools: forward-slash normalization, stable content keys derived from paths,
// and extension extraction.
package naming
