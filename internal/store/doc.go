// Package store is the in-memory analytical store of the dashboard.
//
// The store holds one immutable dataset. Load either replaces it or merges a
// new dataset into it by observation key; queries read a snapshot under a
// read lock, so the HTTP server can serve concurrent requests while a reload
// prepares the next dataset. Nothing is persisted: a restart reloads the data
// directory.
//
// Besides plain filtered queries the store computes the aggregates the
// dashboard charts: per-period series, regional averages with a minimum
// number of contributing regions, and per-region-group summary statistics.
package store
