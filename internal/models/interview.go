package models

import "time"

// InterviewEntry records one interview held with a pledge.
type InterviewEntry struct {
	Time    time.Time `json:"time"`
	Pledge  string    `json:"pledge"`
	Brother string    `json:"brother"`
	Quality int       `json:"quality"`
}

// InterviewSummary aggregates interviews for one roster pledge. PercentQuality is nil when the
// pledge has no interviews.
type InterviewSummary struct {
	Pledge             string   `json:"pledge"`
	NumberOfInterviews int      `json:"number_of_interviews"`
	NQuality           int      `json:"n_quality"`
	PercentQuality     *float64 `json:"percent_quality"`
}

// InterviewCount is a per-name interview tally.
type InterviewCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
