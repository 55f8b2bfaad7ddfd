// Package notification emits notification requests for affected users.
// Delivery (email, push) is someone else's job: requests leave through a Sink
// such as a Kafka topic and a failure never rolls back the mutation that caused it.
package notification

import (
	"context"
	"time"
)

// Kind names the event a notification is about.
type Kind string

const (
	KindMemberInvited       Kind = "member_invited"
	KindMemberJoined        Kind = "member_joined"
	KindMemberRemoved       Kind = "member_removed"
	KindMemberLeft          Kind = "member_left"
	KindMemberStatusChanged Kind = "member_status_changed"
	KindRoleChanged         Kind = "role_changed"
	KindPermissionsChanged  Kind = "permissions_changed"
	KindTransferRequested   Kind = "ownership_transfer_requested"
	KindTransferCode        Kind = "ownership_transfer_code"
	KindTransferCancelled   Kind = "ownership_transfer_cancelled"
	KindTransferCompleted   Kind = "ownership_transfer_completed"
	KindTransferCodeLockout Kind = "ownership_transfer_locked"
	KindJoinCodeRegenerated Kind = "join_code_regenerated"
)

// Notification is one request to tell a user something.
// Sensitive requests carry secrets in Message; sinks that log must redact it.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OrgID     string    `json:"org_id,omitempty"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Sensitive bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier accepts notification requests. Implementations never block on delivery and never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sink writes a notification request somewhere. Errors are reported to the caller, who logs them.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
