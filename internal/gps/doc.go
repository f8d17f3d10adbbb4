// Package gps provides a validated GPS coordinate type with haversine
// distance, midpoint and barycenter operations used for grouping media by
// capture location.
package gps
