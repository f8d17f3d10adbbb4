// Package proxying links processed media trees by the proximity of their
// location groups, so that media captured near the same places can be
// found across directory boundaries.
package proxying
