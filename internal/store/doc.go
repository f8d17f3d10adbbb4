// Package store implements a persistent key/value store durable to a single
// JSON file.
//
// Each key maps to a flat attribute map. The store is lazy about disk I/O:
// mutations mark it dirty only when they actually change content, and a sync
// writes the whole map iff dirty. All accessors except Open and Close require
// the store to be open.
package store
