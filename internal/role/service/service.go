package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/role/repository"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
)

// ErrRoleNotFound is returned when a role is absent or belongs to another organization.
var ErrRoleNotFound = fmt.Errorf("%w: role", errs.ErrNotFound)

// CreateParams holds the fields of a new custom role.
type CreateParams struct {
	Name        string
	Description string
	Permissions rbac.Set
	Color       string
}

// Service manages an organization's custom roles.
type Service struct {
	roles   repository.Repository
	access  *access.Resolver
	audit   audit.AuditLogger
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewService returns a role Service. auditLogger and metrics may be nil.
func NewService(roles repository.Repository, resolver *access.Resolver, auditLogger audit.AuditLogger, metrics *telemetry.Metrics) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		roles:   roles,
		access:  resolver,
		audit:   auditLogger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns the custom roles of the caller's organization. Any active member may list them.
func (s *Service) List(ctx context.Context, callerID string) ([]*domain.CustomRole, error) {
	actor, err := s.access.ActiveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.roles.ListByOrg(ctx, actor.OrgID())
}

// Get returns one custom role of the caller's organization.
func (s *Service) Get(ctx context.Context, callerID, roleID string) (*domain.CustomRole, error) {
	actor, err := s.access.ActiveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, actor, roleID)
}

// Create adds a custom role. Requires CREATE_ROLES.
func (s *Service) Create(ctx context.Context, actorID string, p CreateParams) (_ *domain.CustomRole, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "create_custom_role", err) }()
	actor, err := s.access.ActiveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(rbac.PermCreateRoles); err != nil {
		return nil, err
	}
	now := s.now()
	r := &domain.CustomRole{
		ID:              uuid.New().String(),
		OrgID:           actor.OrgID(),
		Name:            p.Name,
		Description:     p.Description,
		Permissions:     p.Permissions.Clone(),
		Color:           p.Color,
		CreatedByUserID: actor.UserID(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.roles.Create(ctx, r); err != nil {
		return nil, err
	}
	log.Debug().Str("role_id", r.ID).Str("org_id", r.OrgID).Msg("custom role created")
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionRoleCreated, audit.ResourceRole, audit.Metadata(map[string]any{
		"role_id":     r.ID,
		"name":        r.Name,
		"permissions": r.Permissions.Strings(),
	}))
	return r, nil
}

// Update applies patch to a custom role. Requires EDIT_ROLES.
// Members holding the role see the new permissions on their next resolution.
func (s *Service) Update(ctx context.Context, actorID, roleID string, patch domain.Patch) (_ *domain.CustomRole, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "update_custom_role", err) }()
	actor, err := s.access.ActiveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(rbac.PermEditRoles); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, actor, roleID)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(current)
	next.UpdatedAt = s.now()
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := s.roles.Update(ctx, next); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionRoleUpdated, audit.ResourceRole, audit.Metadata(map[string]any{
		"role_id":     next.ID,
		"name":        next.Name,
		"permissions": next.Permissions.Strings(),
	}))
	return next, nil
}

// Delete removes a custom role. Requires DELETE_ROLES and fails with a conflict while it is assigned.
func (s *Service) Delete(ctx context.Context, actorID, roleID string) (err error) {
	defer func() { s.metrics.RecordOperation(ctx, "delete_custom_role", err) }()
	actor, err := s.access.ActiveActor(ctx, actorID)
	if err != nil {
		return err
	}
	if err := actor.Require(rbac.PermDeleteRoles); err != nil {
		return err
	}
	r, err := s.load(ctx, actor, roleID)
	if err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, r.ID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionRoleDeleted, audit.ResourceRole, audit.Metadata(map[string]any{
		"role_id": r.ID,
		"name":    r.Name,
	}))
	return nil
}

func (s *Service) load(ctx context.Context, actor *access.Actor, roleID string) (*domain.CustomRole, error) {
	if roleID == "" {
		return nil, fmt.Errorf("%w: role id is required", errs.ErrValidation)
	}
	r, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r == nil || r.OrgID != actor.OrgID() {
		return nil, ErrRoleNotFound
	}
	return r, nil
}
