// Package grouping clusters located media files by GPS proximity,
// merging nearby locations into groups centered on their barycenter.
package grouping
