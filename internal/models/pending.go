package models

import "time"

// PendingStatus captures workflow states for point change requests.
type PendingStatus string

const (
	PendingStatusRequested PendingStatus = "REQUESTED"
	PendingStatusApproved  PendingStatus = "APPROVED"
	PendingStatusRejected  PendingStatus = "REJECTED"
)

// PendingEntry is a proposed point change awaiting review. ID is assigned once at creation and
// never reused.
type PendingEntry struct {
	ID          int64     `json:"id"`
	Time        time.Time `json:"time"`
	Name        string    `json:"name"`
	PointChange float64   `json:"point_change"`
	Comment     string    `json:"comment"`
	Requester   string    `json:"requester"`
}

// ReviewResult reports the outcome of approving or rejecting one request.
type ReviewResult struct {
	ID      int64         `json:"id"`
	Success bool          `json:"success"`
	Status  PendingStatus `json:"status"`
	Message string        `json:"message"`
	Entry   *PendingEntry `json:"entry,omitempty"`
}
