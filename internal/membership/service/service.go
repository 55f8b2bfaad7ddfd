package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/notification"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	roledomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

var (
	// ErrOwnerRoleLocked is returned when a role change touches Default(OWNER).
	ErrOwnerRoleLocked = fmt.Errorf("%w: the owner role can only change through an ownership transfer", errs.ErrOwnerInvariant)
	// ErrOwnerTarget is returned when the owner is the target of a member mutation.
	ErrOwnerTarget = domain.ErrOwnerMembership
	// ErrOwnerCannotLeave is returned when the owner tries to leave before transferring ownership.
	ErrOwnerCannotLeave = fmt.Errorf("%w: the owner must transfer ownership before leaving", errs.ErrOwnerInvariant)
	// ErrSelfTarget is returned when an actor targets their own membership through a member-management call.
	ErrSelfTarget = fmt.Errorf("%w: cannot target your own membership", errs.ErrValidation)
	// ErrDelegationExceedsActor is returned when delegating a permission the actor does not hold.
	ErrDelegationExceedsActor = fmt.Errorf("%w: cannot delegate a permission you do not hold", errs.ErrPermissionDenied)
	// ErrNotInvited is returned when accepting without a pending invitation.
	ErrNotInvited = fmt.Errorf("%w: membership is not an open invitation", errs.ErrInvalidState)
	// ErrInvitationPending is returned when changing the status of a member who has not accepted yet.
	ErrInvitationPending = fmt.Errorf("%w: invitation has not been accepted", errs.ErrInvalidState)
	// ErrAlreadyMember is returned when inviting a user who already belongs to an organization.
	ErrAlreadyMember = fmt.Errorf("%w: user already belongs to an organization", errs.ErrConflict)
)

// MembershipRepo is the membership repository needed by the service.
// The mutating methods refuse the owner's row with domain.ErrOwnerMembership,
// checked atomically with the write.
type MembershipRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	GetByUser(ctx context.Context, userID string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, id string, role rbac.RoleRef, at time.Time) (*domain.Membership, error)
	SetExtraPermissions(ctx context.Context, id string, perms rbac.Set, at time.Time) (*domain.Membership, error)
	SetStatus(ctx context.Context, id string, status domain.Status, joinedAt *time.Time, at time.Time) (*domain.Membership, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepo is the minimal custom role repository needed by the service.
type RoleRepo interface {
	GetByID(ctx context.Context, id string) (*roledomain.CustomRole, error)
}

// UserRepo is the identity lookup used to check invitees exist.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Member is a membership with the permissions it can exercise.
type Member struct {
	*domain.Membership
	Permissions rbac.Set
}

// Service implements membership queries and mutations. Every mutation resolves the
// actor, checks the permission, then the owner invariant, then the hierarchy guard.
type Service struct {
	memberships MembershipRepo
	roles       RoleRepo
	users       UserRepo
	access      *access.Resolver
	notifier    notification.Notifier
	audit       audit.AuditLogger
	metrics     *telemetry.Metrics
	now         func() time.Time
}

// NewService returns a membership Service. notifier, auditLogger and metrics may be nil.
func NewService(
	memberships MembershipRepo,
	roles RoleRepo,
	users UserRepo,
	resolver *access.Resolver,
	notifier notification.Notifier,
	auditLogger audit.AuditLogger,
	metrics *telemetry.Metrics,
) *Service {
	if notifier == nil {
		notifier = notification.Discard{}
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		memberships: memberships,
		roles:       roles,
		users:       users,
		access:      resolver,
		notifier:    notifier,
		audit:       auditLogger,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ResolvePermissions returns what the membership can exercise. An empty membershipID means the caller's own.
// Any active member may look up members of their own organization.
func (s *Service) ResolvePermissions(ctx context.Context, callerID, membershipID string) (rbac.Set, error) {
	actor, err := s.access.ActiveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if membershipID == "" || membershipID == actor.Membership.ID {
		return actor.Permissions.Clone(), nil
	}
	target, err := s.access.Target(ctx, actor, membershipID)
	if err != nil {
		return nil, err
	}
	return s.access.Acting(ctx, target)
}

// HasPermission reports whether the membership can exercise p.
func (s *Service) HasPermission(ctx context.Context, callerID, membershipID string, p rbac.Permission) (bool, error) {
	if !p.Valid() {
		return false, fmt.Errorf("%w: %q", rbac.ErrUnknownPermission, p)
	}
	set, err := s.ResolvePermissions(ctx, callerID, membershipID)
	if err != nil {
		return false, err
	}
	return rbac.Has(set, p), nil
}

// ListMembers returns every membership of the caller's organization.
func (s *Service) ListMembers(ctx context.Context, callerID string) ([]*Member, error) {
	actor, err := s.access.ActiveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	list, err := s.memberships.ListByOrg(ctx, actor.OrgID())
	if err != nil {
		return nil, err
	}
	out := make([]*Member, 0, len(list))
	for _, m := range list {
		perms, err := s.access.Acting(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, &Member{Membership: m, Permissions: perms})
	}
	return out, nil
}

// AssignRole moves the target onto newRole. Default(OWNER) is never assignable here,
// and the actor must outrank both the target's current role and the new one.
func (s *Service) AssignRole(ctx context.Context, actorID, targetID string, newRole rbac.RoleRef) (_ *domain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "assign_role", err) }()
	if err := newRole.Validate(); err != nil {
		return nil, err
	}
	actor, target, err := s.loadTarget(ctx, actorID, targetID, rbac.PermChangeRoles)
	if err != nil {
		return nil, err
	}
	if newRole.IsOwner() || target.IsOwner() {
		return nil, ErrOwnerRoleLocked
	}
	if err := s.access.RequireManage(actor, target.Role); err != nil {
		return nil, err
	}
	if id, ok := newRole.Custom(); ok {
		role, err := s.roles.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if role == nil || role.OrgID != actor.OrgID() {
			return nil, fmt.Errorf("%w: role %s", errs.ErrNotFound, id)
		}
	}
	if err := s.access.RequireManage(actor, newRole); err != nil {
		return nil, err
	}

	updated, err := s.memberships.UpdateRole(ctx, target.ID, newRole, s.now())
	if err != nil {
		return nil, err
	}
	log.Debug().Str("membership_id", target.ID).Str("from", target.Role.String()).Str("to", newRole.String()).Msg("role assigned")
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionRoleChanged, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": target.ID,
		"from":          target.Role.String(),
		"to":            newRole.String(),
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  target.UserID,
		OrgID:   target.OrgID,
		Kind:    notification.KindRoleChanged,
		Title:   "Your role has changed",
		Message: "Your role in the organization is now " + roleLabel(newRole) + ".",
	})
	return updated, nil
}

// SetExtraPermissions replaces the target's extra permission overlay.
// Owner-reserved permissions are rejected and the actor can only hand out what they hold.
func (s *Service) SetExtraPermissions(ctx context.Context, actorID, targetID string, perms rbac.Set) (_ *domain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "set_extra_permissions", err) }()
	actor, target, err := s.loadTarget(ctx, actorID, targetID, rbac.PermDelegatePermissions)
	if err != nil {
		return nil, err
	}
	if perms.Intersects(rbac.OwnerReserved()) {
		return nil, rbac.ErrReservedPermission
	}
	if target.IsOwner() {
		return nil, ErrOwnerTarget
	}
	if err := s.access.RequireManage(actor, target.Role); err != nil {
		return nil, err
	}
	if !perms.SubsetOf(actor.Permissions) {
		return nil, ErrDelegationExceedsActor
	}

	updated, err := s.memberships.SetExtraPermissions(ctx, target.ID, perms, s.now())
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionPermissionsChanged, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": target.ID,
		"permissions":   perms.Strings(),
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  target.UserID,
		OrgID:   target.OrgID,
		Kind:    notification.KindPermissionsChanged,
		Title:   "Your permissions have changed",
		Message: "Your additional permissions were updated: " + joinOrNone(perms.Strings()) + ".",
	})
	return updated, nil
}

// RemoveMember deletes another member's membership.
func (s *Service) RemoveMember(ctx context.Context, actorID, targetID string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, "remove_member", err) }()
	actor, target, err := s.loadTarget(ctx, actorID, targetID, rbac.PermRemoveMembers)
	if err != nil {
		return err
	}
	if target.ID == actor.Membership.ID {
		return ErrSelfTarget
	}
	if target.IsOwner() {
		return ErrOwnerTarget
	}
	if err := s.access.RequireManage(actor, target.Role); err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionMemberRemoved, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": target.ID,
		"user_id":       target.UserID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  target.UserID,
		OrgID:   target.OrgID,
		Kind:    notification.KindMemberRemoved,
		Title:   "You were removed from the organization",
		Message: "Your membership has been removed by an administrator.",
	})
	return nil
}

// Leave deletes the caller's own membership. The owner must transfer ownership first.
func (s *Service) Leave(ctx context.Context, userID string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, "leave", err) }()
	if userID == "" {
		return errs.ErrUnauthorized
	}
	m, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return access.ErrMembershipNotFound
	}
	if m.IsOwner() {
		return ErrOwnerCannotLeave
	}
	if err := s.memberships.Delete(ctx, m.ID); err != nil {
		if errors.Is(err, domain.ErrOwnerMembership) {
			return ErrOwnerCannotLeave
		}
		return err
	}
	s.audit.LogEvent(ctx, m.OrgID, userID, audit.ActionMemberLeft, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": m.ID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  userID,
		OrgID:   m.OrgID,
		Kind:    notification.KindMemberLeft,
		Title:   "You left the organization",
		Message: "Your membership has ended.",
	})
	return nil
}

// InviteMember creates an invited VIEWER membership for userID in the actor's organization.
func (s *Service) InviteMember(ctx context.Context, actorID, userID string) (_ *domain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "invite_member", err) }()
	actor, err := s.access.ActiveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(rbac.PermInviteMembers); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrValidation)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, userID)
	}
	existing, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	now := s.now()
	m := &domain.Membership{
		ID:              uuid.New().String(),
		UserID:          userID,
		OrgID:           actor.OrgID(),
		Role:            rbac.DefaultRef(rbac.RoleViewer),
		Status:          domain.StatusInvited,
		InvitedByUserID: actor.UserID(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionMemberInvited, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": m.ID,
		"user_id":       userID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  userID,
		OrgID:   m.OrgID,
		Kind:    notification.KindMemberInvited,
		Title:   "You have been invited",
		Message: "You have been invited to join an organization.",
	})
	return m, nil
}

// AcceptInvitation activates the caller's invited membership.
func (s *Service) AcceptInvitation(ctx context.Context, userID string) (_ *domain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "accept_invitation", err) }()
	if userID == "" {
		return nil, errs.ErrUnauthorized
	}
	m, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, access.ErrMembershipNotFound
	}
	if m.Status != domain.StatusInvited {
		return nil, ErrNotInvited
	}
	now := s.now()
	updated, err := s.memberships.SetStatus(ctx, m.ID, domain.StatusActive, &now, now)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, m.OrgID, userID, audit.ActionMemberJoined, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": m.ID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  m.InvitedByUserID,
		OrgID:   m.OrgID,
		Kind:    notification.KindMemberJoined,
		Title:   "Invitation accepted",
		Message: "A member you invited has joined the organization.",
	})
	return updated, nil
}

// SetMemberStatus suspends or reactivates another member.
func (s *Service) SetMemberStatus(ctx context.Context, actorID, targetID string, status domain.Status) (_ *domain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "set_member_status", err) }()
	if status != domain.StatusActive && status != domain.StatusSuspended {
		return nil, fmt.Errorf("%w: status must be active or suspended", errs.ErrValidation)
	}
	actor, target, err := s.loadTarget(ctx, actorID, targetID, rbac.PermRemoveMembers)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.Membership.ID {
		return nil, ErrSelfTarget
	}
	if target.IsOwner() {
		return nil, ErrOwnerTarget
	}
	if err := s.access.RequireManage(actor, target.Role); err != nil {
		return nil, err
	}
	if target.Status == domain.StatusInvited {
		return nil, ErrInvitationPending
	}
	if target.Status == status {
		return target, nil
	}

	updated, err := s.memberships.SetStatus(ctx, target.ID, status, nil, s.now())
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionMemberStatusChanged, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": target.ID,
		"status":        string(status),
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  target.UserID,
		OrgID:   target.OrgID,
		Kind:    notification.KindMemberStatusChanged,
		Title:   "Your membership status changed",
		Message: "Your membership is now " + string(status) + ".",
	})
	return updated, nil
}

// loadTarget resolves the active actor, checks p, and loads the target in the actor's organization.
func (s *Service) loadTarget(ctx context.Context, actorID, targetID string, p rbac.Permission) (*access.Actor, *domain.Membership, error) {
	actor, err := s.access.ActiveActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := actor.Require(p); err != nil {
		return nil, nil, err
	}
	target, err := s.access.Target(ctx, actor, targetID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

func roleLabel(ref rbac.RoleRef) string {
	if r, ok := ref.Default(); ok {
		return r.String()
	}
	return "a custom role"
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
