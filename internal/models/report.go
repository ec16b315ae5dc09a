package models

import "time"

// ArtifactKind identifies rendered report outputs.
type ArtifactKind string

const (
	ArtifactPointsGraph   ArtifactKind = "points_graph"
	ArtifactPointsHistory ArtifactKind = "points_history"
	ArtifactPledgeGraph   ArtifactKind = "pledge_graph"
	ArtifactRankingsPDF   ArtifactKind = "rankings_pdf"
	ArtifactLedgerCSV     ArtifactKind = "ledger_csv"
)

// Artifact is a rendered file available through a signed download URL.
type Artifact struct {
	ID          string       `json:"id"`
	Kind        ArtifactKind `json:"kind"`
	Path        string       `json:"-"`
	ContentType string       `json:"content_type"`
	URL         string       `json:"url"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// SystemStatus is the operator-facing health summary.
type SystemStatus struct {
	StartedAt    time.Time `json:"started_at"`
	Uptime       string    `json:"uptime"`
	GoVersion    string    `json:"go_version"`
	OS           string    `json:"os"`
	Arch         string    `json:"arch"`
	Goroutines   int       `json:"goroutines"`
	HeapInUseMB  float64   `json:"heap_in_use_mb"`
	Pledges      int       `json:"pledges"`
	PendingCount int       `json:"pending_count"`
	LedgerRows   int       `json:"ledger_rows"`
	Interviews   int       `json:"interviews"`

	Metrics MetricsSnapshot `json:"metrics"`
}

// MetricsSnapshot summarises in-process counters.
type MetricsSnapshot struct {
	CacheHitRatio            float64 `json:"cache_hit_ratio"`
	RequestsTotal            uint64  `json:"requests_total"`
	AverageRequestDurationMs float64 `json:"average_request_duration_ms"`
	StorageRecoveries        uint64  `json:"storage_recoveries"`
}

// LogExcerpt is the result of tailing the bot log.
type LogExcerpt struct {
	Hours   int      `json:"hours"`
	Lines   []string `json:"lines"`
	Message string   `json:"message,omitempty"`
}
