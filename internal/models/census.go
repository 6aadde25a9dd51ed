package models

import "time"

// MaleMarker is the gender code of a male kitten.
const MaleMarker = "m"

// KittenRecord is one kitten entry. Gender "m" marks a male kitten; any other
// value, including an empty one, counts as non-male or unspecified.
type KittenRecord struct {
	Gender string `json:"gender" yaml:"gender"`
}

// IsMale reports whether the kitten carries the male marker.
func (k KittenRecord) IsMale() bool {
	return k.Gender == MaleMarker
}

// MotherRecord is one mother cat with her kittens in input order.
type MotherRecord struct {
	Name    string         `json:"name" yaml:"name"`
	Kittens []KittenRecord `json:"kittens" yaml:"kittens"`
}

// AggregationResult holds the two rendered summaries plus the counters they
// were built from.
type AggregationResult struct {
	MotherSummary string `json:"mother_summary" yaml:"mother_summary"`
	KittenSummary string `json:"kitten_summary" yaml:"kitten_summary"`
	Mothers       int    `json:"mothers" yaml:"mothers"`
	Total         int    `json:"total" yaml:"total"`
	Male          int    `json:"male" yaml:"male"`
}

// SourceResult is the outcome of processing a single payload source.
type SourceResult struct {
	Source   string             // File path, URL or "-" for stdin
	Format   string             // Payload format the source was decoded as
	Result   *AggregationResult // nil when Error is set
	RunID    string             // History run ID (empty when not recorded)
	Error    error              // Fetch or decode failure
	Duration time.Duration      // Time spent fetching and aggregating
}

// Failed reports whether the source could not be summarized.
func (r SourceResult) Failed() bool {
	return r.Error != nil || r.Result == nil
}

// BatchResult summarizes a run over one or more sources.
type BatchResult struct {
	Sources       []SourceResult
	Succeeded     int
	Failed        int
	TotalMothers  int
	TotalKittens  int
	TotalMale     int
	Duration      time.Duration
	FailedSources []SourceResult
}
