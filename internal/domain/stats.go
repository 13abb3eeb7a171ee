package domain

import "time"

// IngestStats holds statistics about one ingestion pass.
type IngestStats struct {
	Fetched    int
	Relevant   int
	Duplicates int
	Created    int
	Errors     int
	Duration   time.Duration
}
