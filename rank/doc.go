// Package rank implements the tenant-scoped hybrid ranker: structured filters
// from extraction narrow the candidate set, then vector similarity, keyword
// overlap, profile completeness, and recency blend into one score.
package rank
