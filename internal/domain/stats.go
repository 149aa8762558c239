package domain

import "time"

// CollectStats holds statistics about one collection run.
type CollectStats struct {
	Sources  int
	Scraped  int
	Enqueued int
	Dropped  int
	Errors   int
	Duration time.Duration
}

// ProcessStats holds statistics about one stream-processing batch.
type ProcessStats struct {
	Read       int
	Created    int
	Duplicates int
	Failures   int
}

// RefreshResult is the structured outcome of a manual refresh, returned to the
// operator instead of an error.
type RefreshResult struct {
	Collected     int    `json:"collected"`
	Processed     int    `json:"processed"`
	DigestCreated bool   `json:"digest_created"`
	Message       string `json:"message,omitempty"`
}
