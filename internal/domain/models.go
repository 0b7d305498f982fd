// Package domain defines the persistence model for the submission ledger.
// The ledger records what happened to each form submission that got past
// the edge gate and token check. It stores no field values; the marketing
// collaborators are the system of record for contact data.
package domain

import (
	"time"
)

// Submission statuses.
const (
	StatusAccepted  = "accepted"
	StatusDiscarded = "discarded"
)

// Forwarding outcomes recorded per collaborator.
const (
	ForwardOK      = "ok"
	ForwardFailed  = "failed"
	ForwardSkipped = "skipped"
)

// Submission is one ledger row.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - FormName / PageSlug: where the submission came from.
//   - Status: accepted or discarded (bot heuristic); enforced by DB constraint.
//   - Reason: bot heuristic reason for discarded rows.
//   - ClientIP: resolved by the edge gate.
//   - HubSpot / CustomerIO: ok, failed or skipped.
type Submission struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	FormName   string    `json:"form_name"   gorm:"type:varchar(255);not null;index:idx_form_created,priority:1"`
	PageSlug   string    `json:"page_slug"   gorm:"type:varchar(255)"`
	Status     string    `json:"status"      gorm:"type:varchar(16);not null;index;check:status IN ('accepted','discarded')"`
	Reason     string    `json:"reason"      gorm:"type:varchar(64)"`
	ClientIP   string    `json:"client_ip"   gorm:"type:varchar(64)"`
	HubSpot    string    `json:"hubspot"     gorm:"type:varchar(16)"`
	CustomerIO string    `json:"customerio"  gorm:"type:varchar(16)"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_form_created,priority:2"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }
