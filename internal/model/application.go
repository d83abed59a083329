package model

import (
	"strings"
	"time"
)

// Status is the application lifecycle state tracked in the ledger.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
	StatusAccepted  Status = "Accepted"
	StatusWithdrawn Status = "Withdrawn"
)

// ParseStatus normalizes free text into a Status. Unknown or empty input
// maps to StatusApplied, the default state for a freshly seen application.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interview", "interviewing":
		return StatusInterview
	case "rejected", "rejection":
		return StatusRejected
	case "accepted", "offer":
		return StatusAccepted
	case "withdrawn", "cancelled":
		return StatusWithdrawn
	default:
		return StatusApplied
	}
}

// Origin tags record where an application record came from.
const (
	OriginInboxHeuristic = "inbox-heuristic"
	OriginInboxSemantic  = "inbox-semantic"
	OriginFileImport     = "file-import"
)

// Sentinels used when extraction cannot derive a field.
const (
	UnknownCompany  = "Unknown Company"
	UnknownPosition = "Unknown Position"
)

// Application is the canonical job application record, one ledger row per Key.
type Application struct {
	Key         string    `json:"key"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	AppliedAt   time.Time `json:"applied_at"`
	Status      Status    `json:"status"`
	SourceID    string    `json:"source_id,omitempty"`   // originating message id; empty for imports
	SourceDate  string    `json:"source_date,omitempty"` // raw date of the originating message
	Origin      string    `json:"origin"`
	Notes       string    `json:"notes,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// EmailMessage is the raw content of a single inbox message, as delivered
// by the message source.
type EmailMessage struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"` // raw RFC 2822 header value
	Body    string `json:"body"`
}

// Ledger column names, in fixed row order.
const (
	ColJobID       = "Job ID"
	ColCompany     = "Company"
	ColPosition    = "Position"
	ColAppliedAt   = "Application Date"
	ColStatus      = "Status"
	ColSourceID    = "Source ID"
	ColSourceDate  = "Source Date"
	ColOrigin      = "Origin"
	ColNotes       = "Notes"
	ColLastUpdated = "Last Updated"
)

// Columns is the ledger header row. Order is part of the row schema and
// must not change: cell updates address columns by position.
var Columns = []string{
	ColJobID, ColCompany, ColPosition, ColAppliedAt, ColStatus,
	ColSourceID, ColSourceDate, ColOrigin, ColNotes, ColLastUpdated,
}

// ColumnIndex returns the zero-based position of a column in the row
// schema, or -1 if the column is unknown.
func ColumnIndex(name string) int {
	for i, c := range Columns {
		if c == name {
			return i
		}
	}
	return -1
}
