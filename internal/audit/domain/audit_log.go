package domain

import "time"

// AuditLog is one recorded authorization or ownership event.
// Metadata is a JSON object or empty; OrgID is audit.SentinelOrgID when no organization applies.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
