// Package resolve picks a concrete version for each requirement.
//
// A [Resolver] asks an [Index] for every published release of a project,
// keeps the entries whose name equals the requested name exactly, and
// returns the highest version by release ordering. Stable versions win over
// pre-releases unless no stable release exists.
//
// When the requirement carries version clauses the candidates are narrowed
// to the versions satisfying them first. Clauses that cannot be expressed
// (e.g. arbitrary equality against an unparsable version) leave the
// candidates unfiltered, so the result is always the newest release the
// index knows about. There is no cross-requirement reconciliation.
//
// Two indexes are provided: [PyPIIndex] over the PyPI JSON API, and
// [StaticIndex], a fixed in-memory listing for tests and offline runs.
package resolve
