// Package finder provides a depth- and age-bounded recursive file enumerator
// with extension and name filtering and directory pruning.
//
// Traversal is lazy: the tree is read incrementally as the consumer pulls
// paths from the sequence returned by Find. Counters expose how much of the
// tree was actually visited.
package finder
