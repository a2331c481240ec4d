// Package dataset implements the ratings data pipeline: CSV loading and
// cleaning, genre explosion, and the derived-column enrichment passes
// (age buckets, ZIP-to-state). The cleaned table is the single source of
// truth; every transformation allocates a new table and never mutates its
// input.
package dataset
