package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/domain"
	auditrepo "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit/repository"
)

// SentinelOrgID is the org_id used for audit events that have no org (e.g. a rejected call from a non-member).
const SentinelOrgID = "_system"

// Actions recorded by the domain services.
const (
	ActionMemberInvited       = "member_invited"
	ActionMemberJoined        = "member_joined"
	ActionMemberRemoved       = "member_removed"
	ActionMemberLeft          = "member_left"
	ActionMemberStatusChanged = "member_status_changed"
	ActionRoleChanged         = "role_changed"
	ActionPermissionsChanged  = "permissions_changed"
	ActionRoleCreated         = "custom_role_created"
	ActionRoleUpdated         = "custom_role_updated"
	ActionRoleDeleted         = "custom_role_deleted"
	ActionTransferInitiated   = "ownership_transfer_initiated"
	ActionTransferConfirmed   = "ownership_transfer_confirmed"
	ActionTransferCompleted   = "ownership_transfer_completed"
	ActionTransferCancelled   = "ownership_transfer_cancelled"
	ActionTransferCodeFailed  = "ownership_transfer_code_failed"
	ActionJoinCodeRegenerated = "join_code_regenerated"
	ActionJoinCodeUpdated     = "join_code_updated"
	ActionAccessDenied        = "access_denied"
)

// Resources recorded by the domain services.
const (
	ResourceMembership = "membership"
	ResourceRole       = "role"
	ResourceTransfer   = "ownership_transfer"
	ResourceJoinCode   = "join_code"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Str("resource", resource).Msg("audit: failed to log event")
	}
}

// Metadata encodes key/value pairs as a JSON object for the metadata column.
// Encoding failures yield an empty string.
func Metadata(kv map[string]any) string {
	if len(kv) == 0 {
		return ""
	}
	b, err := json.Marshal(kv)
	if err != nil {
		return ""
	}
	return string(b)
}

// Nop discards audit events.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, string, string, string, string) {}
