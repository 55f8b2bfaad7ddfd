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
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/repository"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/notification"
	orgdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/organization/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/security"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
)

const (
	// DefaultRegenInterval is the minimum time between two regenerations.
	DefaultRegenInterval = time.Minute
	maxCollisionRetries  = 5
)

var (
	// ErrRegenTooSoon is returned when regenerating inside the rate-limit window.
	ErrRegenTooSoon = fmt.Errorf("%w: join code was regenerated too recently", errs.ErrInvalidState)
	// ErrAlreadyMember is returned when a user who already belongs to an organization joins.
	ErrAlreadyMember = fmt.Errorf("%w: user already belongs to an organization", errs.ErrConflict)
	// ErrCodeNotFound is returned for unknown codes.
	ErrCodeNotFound = fmt.Errorf("%w: join code", errs.ErrNotFound)
)

// MembershipGetter finds a user's membership.
type MembershipGetter interface {
	GetByUser(ctx context.Context, userID string) (*membershipdomain.Membership, error)
}

// OrgGetter loads organizations.
type OrgGetter interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// UpdateParams changes the settings of a join code.
type UpdateParams = domain.Patch

// Service issues join codes and admits members through them.
type Service struct {
	codes         repository.Repository
	memberships   MembershipGetter
	orgs          OrgGetter
	access        *access.Resolver
	notifier      notification.Notifier
	audit         audit.AuditLogger
	metrics       *telemetry.Metrics
	regenInterval time.Duration
	now           func() time.Time
	generate      func() (string, error)
}

// NewService returns a join code Service. notifier, auditLogger and metrics may be nil.
func NewService(
	codes repository.Repository,
	memberships MembershipGetter,
	orgs OrgGetter,
	resolver *access.Resolver,
	notifier notification.Notifier,
	auditLogger audit.AuditLogger,
	metrics *telemetry.Metrics,
	regenInterval time.Duration,
) *Service {
	if notifier == nil {
		notifier = notification.Discard{}
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if regenInterval <= 0 {
		regenInterval = DefaultRegenInterval
	}
	return &Service{
		codes:         codes,
		memberships:   memberships,
		orgs:          orgs,
		access:        resolver,
		notifier:      notifier,
		audit:         auditLogger,
		metrics:       metrics,
		regenInterval: regenInterval,
		now:           func() time.Time { return time.Now().UTC() },
		generate:      func() (string, error) { return security.GenerateCode(security.JoinCodeBytes) },
	}
}

// Get returns the organization's join code, issuing a disabled one on first use.
// Requires INVITE_MEMBERS.
func (s *Service) Get(ctx context.Context, callerID string) (*domain.JoinCode, error) {
	actor, err := s.inviter(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.current(ctx, actor.OrgID())
}

// Regenerate replaces the code. Old codes stop working immediately and the usage count restarts.
func (s *Service) Regenerate(ctx context.Context, actorID string) (_ *domain.JoinCode, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "regenerate_join_code", err) }()
	actor, err := s.inviter(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c, err := s.codes.GetByOrg(ctx, actor.OrgID())
	if err != nil {
		return nil, err
	}
	if c == nil {
		issued, created, err := s.issue(ctx, actor.OrgID())
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, ErrRegenTooSoon
		}
		c = issued
	} else {
		if now.Before(c.NextRegenAt(s.regenInterval)) {
			return nil, ErrRegenTooSoon
		}
		prev := c.LastRegenAt
		err := s.withFreshCode(actor.OrgID(), func(code string) error {
			next, err := s.codes.Rotate(ctx, actor.OrgID(), code, prev, now)
			if err != nil {
				return err
			}
			c = next
			return nil
		})
		if errors.Is(err, domain.ErrStale) {
			return nil, ErrRegenTooSoon
		}
		if err != nil {
			return nil, err
		}
	}

	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionJoinCodeRegenerated, audit.ResourceJoinCode, "")
	if org, err := s.orgs.GetOrganizationByID(ctx, actor.OrgID()); err == nil && org != nil && org.OwnerUserID != actor.UserID() {
		s.notifier.Notify(ctx, notification.Notification{
			UserID:  org.OwnerUserID,
			OrgID:   org.ID,
			Kind:    notification.KindJoinCodeRegenerated,
			Title:   "Join code regenerated",
			Message: "The organization's join code was regenerated. The previous code no longer works.",
		})
	}
	return c, nil
}

// Update changes whether the code is enabled, its expiry and the member limit.
// The code value and usage count are untouched.
func (s *Service) Update(ctx context.Context, actorID string, p UpdateParams) (_ *domain.JoinCode, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "update_join_code", err) }()
	actor, err := s.inviter(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", errs.ErrValidation)
	}
	if p.MaxMembers != nil && *p.MaxMembers <= 0 {
		return nil, fmt.Errorf("%w: member limit must be positive", errs.ErrValidation)
	}
	if _, err := s.current(ctx, actor.OrgID()); err != nil {
		return nil, err
	}
	c, err := s.codes.UpdateSettings(ctx, actor.OrgID(), p, now)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.OrgID(), actor.UserID(), audit.ActionJoinCodeUpdated, audit.ResourceJoinCode, audit.Metadata(map[string]any{
		"enabled": c.Enabled,
	}))
	return c, nil
}

// Join admits userID as an active VIEWER of the code's organization.
func (s *Service) Join(ctx context.Context, userID, code string) (_ *membershipdomain.Membership, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "join_with_code", err) }()
	if userID == "" {
		return nil, errs.ErrUnauthorized
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", errs.ErrValidation)
	}
	existing, err := s.memberships.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	now := s.now()
	m := &membershipdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      rbac.DefaultRef(rbac.RoleViewer),
		Status:    membershipdomain.StatusActive,
		JoinedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c, err := s.codes.Join(ctx, code, m, now)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	log.Debug().Str("org_id", c.OrgID).Str("user_id", userID).Int("usage_count", c.UsageCount).Msg("member joined with code")
	s.audit.LogEvent(ctx, m.OrgID, userID, audit.ActionMemberJoined, audit.ResourceMembership, audit.Metadata(map[string]any{
		"membership_id": m.ID,
		"via":           "join_code",
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  userID,
		OrgID:   m.OrgID,
		Kind:    notification.KindMemberJoined,
		Title:   "Welcome aboard",
		Message: "You joined the organization as a VIEWER.",
	})
	return m, nil
}

func (s *Service) inviter(ctx context.Context, userID string) (*access.Actor, error) {
	actor, err := s.access.ActiveActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(rbac.PermInviteMembers); err != nil {
		return nil, err
	}
	return actor, nil
}

// current returns the org's code, issuing one if none exists yet.
func (s *Service) current(ctx context.Context, orgID string) (*domain.JoinCode, error) {
	c, err := s.codes.GetByOrg(ctx, orgID)
	if err != nil || c != nil {
		return c, err
	}
	c, _, err = s.issue(ctx, orgID)
	return c, err
}

// issue stores a new disabled code for orgID. When another request issued one first,
// that code is returned and created is false.
func (s *Service) issue(ctx context.Context, orgID string) (c *domain.JoinCode, created bool, err error) {
	now := s.now()
	c = &domain.JoinCode{OrgID: orgID, CreatedAt: now, UpdatedAt: now, LastRegenAt: now}
	err = s.withFreshCode(orgID, func(code string) error {
		c.Code = code
		var err error
		created, err = s.codes.Create(ctx, c)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		return c, true, nil
	}
	c, err = s.codes.GetByOrg(ctx, orgID)
	if err != nil {
		return nil, false, err
	}
	if c == nil {
		return nil, false, fmt.Errorf("%w: join code for organization %s", errs.ErrNotFound, orgID)
	}
	return c, false, nil
}

// withFreshCode calls fn with new random codes until one does not collide with another
// organization's code.
func (s *Service) withFreshCode(orgID string, fn func(code string) error) error {
	for attempt := 0; ; attempt++ {
		code, err := s.generate()
		if err != nil {
			return err
		}
		err = fn(code)
		if err == nil || !errors.Is(err, errs.ErrConflict) || attempt+1 >= maxCollisionRetries {
			return err
		}
		log.Warn().Str("org_id", orgID).Int("attempt", attempt+1).Msg("join code collision, regenerating")
	}
}
