// Package analytics contains the filter evaluator and the stateless
// aggregate queries that answer the dashboard's analytic questions over
// the genre-exploded ratings table. All queries treat an empty input as a
// valid case and return empty results, and break ties on documented
// secondary keys so output order is deterministic.
package analytics
