// Package stdbscan implements ST-DBSCAN, density-based clustering of points
// that carry both a geographic location and a time coordinate.
//
// Responsibilities: great-circle and temporal distance, dual-threshold
// neighbourhood queries (with pluggable NeighborIndex implementations),
// core/border/noise classification with breadth-first cluster expansion,
// and the per-run Result accessor (labels, clusters, statistics).
// Key types: Point, Label, Params, Engine, Result.
//
// Dependency rule: this package performs no I/O and never logs. Ingestion,
// export and persistence live in internal/dataset, internal/export and
// internal/db respectively.
package stdbscan
