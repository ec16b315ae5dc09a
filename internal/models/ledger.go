package models

import "time"

// Canonical column sets for the flat ledger files.
var (
	LedgerColumns    = []string{"Time", "Name", "Point_Change", "Comments"}
	PendingColumns   = []string{"ID", "Time", "Name", "Point_Change", "Comments", "Requester"}
	InterviewColumns = []string{"Time", "Pledge", "Brother", "Quality"}
)

// LedgerEntry is one committed point change.
type LedgerEntry struct {
	Time        time.Time `json:"time"`
	Name        string    `json:"name"`
	PointChange int       `json:"point_change"`
	Comment     string    `json:"comment"`
}

// LoadStatus describes how a flat table was obtained.
type LoadStatus string

const (
	// LoadOK means the file existed and parsed cleanly.
	LoadOK LoadStatus = "ok"
	// LoadCreated means the file did not exist and was created empty.
	LoadCreated LoadStatus = "created"
	// LoadRecoveredEmpty means the file existed but was unreadable or malformed and an empty
	// table was returned in its place.
	LoadRecoveredEmpty LoadStatus = "recovered_empty"
)

// PledgeStanding is one row of the points ranking.
type PledgeStanding struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
	LastComment string `json:"last_comment,omitempty"`
}

// PointsBar pairs a pledge with its current total for bar charts.
type PointsBar struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// SeriesPoint is a cumulative total at an instant.
type SeriesPoint struct {
	Time  time.Time `json:"time"`
	Total int       `json:"total"`
}

// PledgeSeries is the cumulative points line of one pledge.
type PledgeSeries struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// CumulativeSeries is a time-indexed table of running totals: Totals[name][i] is the total of
// name at Times[i].
type CumulativeSeries struct {
	Times  []time.Time      `json:"times"`
	Names  []string         `json:"names"`
	Totals map[string][]int `json:"totals"`
}

// SumPoints totals the point changes recorded for name.
func SumPoints(entries []LedgerEntry, name string) int {
	total := 0
	for _, entry := range entries {
		if entry.Name == name {
			total += entry.PointChange
		}
	}
	return total
}
