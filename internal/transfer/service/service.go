package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/access"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/audit"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/notification"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/rbac"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/security"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/telemetry"
	transferdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/repository"
	userdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/user/domain"
)

const (
	// DefaultTTL is how long a request stays pending.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxCodeAttempts is the number of wrong codes that cancel a request.
	DefaultMaxCodeAttempts = 5
)

var (
	// ErrNotOwner is returned when a non-owner calls an owner-only transfer operation.
	ErrNotOwner = fmt.Errorf("%w: only the organization owner can transfer ownership", errs.ErrPermissionDenied)
	// ErrNotInitiator is returned when the caller did not start the pending request.
	ErrNotInitiator = fmt.Errorf("%w: only the initiator can act on this transfer", errs.ErrPermissionDenied)
	// ErrNoPendingTransfer is returned when the organization has no pending request.
	ErrNoPendingTransfer = fmt.Errorf("%w: no pending ownership transfer", errs.ErrNotFound)
	// ErrTransferExpired is returned when the pending request ran out of time.
	ErrTransferExpired = fmt.Errorf("%w: ownership transfer expired", errs.ErrInvalidState)
	// ErrSelfTransfer is returned when the owner targets their own membership.
	ErrSelfTransfer = fmt.Errorf("%w: cannot transfer ownership to yourself", errs.ErrValidation)
	// ErrTargetNotActive is returned when the target member is invited or suspended.
	ErrTargetNotActive = fmt.Errorf("%w: target member is not active", errs.ErrInvalidState)
	// ErrIdentityMismatch is returned when the typed name or email does not match the target.
	ErrIdentityMismatch = fmt.Errorf("%w: typed name or email does not match the new owner", errs.ErrInvalidState)
	// ErrPhraseMismatch is returned when the confirmation phrase is wrong.
	ErrPhraseMismatch = fmt.Errorf("%w: confirmation phrase must be %q", errs.ErrInvalidState, transferdomain.ConfirmationPhrase)
	// ErrCodeMismatch is returned when the confirmation code is wrong.
	ErrCodeMismatch = fmt.Errorf("%w: confirmation code is incorrect", errs.ErrInvalidState)
	// ErrTooManyAttempts is returned when a wrong code exhausts the attempts and cancels the request.
	ErrTooManyAttempts = fmt.Errorf("%w: too many incorrect codes, transfer cancelled", errs.ErrInvalidState)
)

// Options tunes the coordinator.
type Options struct {
	TTL             time.Duration
	MaxCodeAttempts int
	// ReturnCode includes the plaintext confirmation code in Initiate's result.
	// Development only; production delivers it through a notification.
	ReturnCode bool
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxCodeAttempts <= 0 {
		o.MaxCodeAttempts = DefaultMaxCodeAttempts
	}
	return o
}

// UserGetter looks up directory users.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// InitiateResult is the outcome of Initiate. Code is empty unless Options.ReturnCode is set.
type InitiateResult struct {
	Request *transferdomain.Request
	Code    string
}

// Service coordinates the three-step ownership transfer.
type Service struct {
	transfers repository.Repository
	users     UserGetter
	access    *access.Resolver
	notifier  notification.Notifier
	audit     audit.AuditLogger
	metrics   *telemetry.Metrics
	opts      Options
	now       func() time.Time
}

// NewService returns a transfer Service. notifier, auditLogger and metrics may be nil.
func NewService(
	transfers repository.Repository,
	users UserGetter,
	resolver *access.Resolver,
	notifier notification.Notifier,
	auditLogger audit.AuditLogger,
	metrics *telemetry.Metrics,
	opts Options,
) *Service {
	if notifier == nil {
		notifier = notification.Discard{}
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Service{
		transfers: transfers,
		users:     users,
		access:    resolver,
		notifier:  notifier,
		audit:     auditLogger,
		metrics:   metrics,
		opts:      opts.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Initiate opens a transfer of the caller's organization to targetMembershipID.
func (s *Service) Initiate(ctx context.Context, ownerID, targetMembershipID string) (_ *InitiateResult, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "initiate_transfer", err) }()
	actor, err := s.owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	target, err := s.access.Target(ctx, actor, targetMembershipID)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.Membership.ID {
		return nil, ErrSelfTransfer
	}
	if target.Status != domain.StatusActive {
		return nil, ErrTargetNotActive
	}

	code, err := security.GenerateCode(security.ConfirmationCodeBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req := &transferdomain.Request{
		ID:             uuid.New().String(),
		OrgID:          actor.OrgID(),
		FromUserID:     actor.UserID(),
		ToUserID:       target.UserID,
		ToMembershipID: target.ID,
		CodeHash:       security.HashCode(code),
		State:          transferdomain.StateInitiated,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.opts.TTL),
	}
	if err := s.transfers.CreatePending(ctx, req, now); err != nil {
		return nil, err
	}
	log.Info().Str("transfer_id", req.ID).Str("org_id", req.OrgID).Str("to_user_id", req.ToUserID).Msg("ownership transfer initiated")
	s.metrics.RecordTransfer(ctx, string(transferdomain.StateInitiated))
	s.audit.LogEvent(ctx, req.OrgID, actor.UserID(), audit.ActionTransferInitiated, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id":   req.ID,
		"to_user_id":    req.ToUserID,
		"membership_id": req.ToMembershipID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  req.ToUserID,
		OrgID:   req.OrgID,
		Kind:    notification.KindTransferRequested,
		Title:   "Ownership transfer started",
		Message: "The organization owner has started transferring ownership to you.",
	})
	s.notifier.Notify(ctx, notification.Notification{
		UserID:    actor.UserID(),
		OrgID:     req.OrgID,
		Kind:      notification.KindTransferCode,
		Title:     "Your ownership transfer code",
		Message:   "Use this code to complete the transfer: " + code,
		Sensitive: true,
	})

	res := &InitiateResult{Request: req.Clone()}
	if s.opts.ReturnCode {
		res.Code = code
	}
	return res, nil
}

// ConfirmFirst checks the typed name or email of the new owner and advances the request.
func (s *Service) ConfirmFirst(ctx context.Context, ownerID, typed string) (_ *transferdomain.Request, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "confirm_transfer_first", err) }()
	actor, req, err := s.pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := req.State.Next(transferdomain.EventConfirmFirst); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, req.ToUserID)
	if err != nil {
		return nil, err
	}
	if !target.Matches(typed) {
		return nil, ErrIdentityMismatch
	}
	next, err := s.advance(ctx, req, transferdomain.EventConfirmFirst)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransfer(ctx, string(next.State))
	s.audit.LogEvent(ctx, next.OrgID, actor.UserID(), audit.ActionTransferConfirmed, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id": next.ID,
	}))
	return next, nil
}

// ConfirmFinal verifies the code and phrase and completes the transfer in one atomic step.
// Wrong codes are counted; the request is cancelled when the limit is reached.
func (s *Service) ConfirmFinal(ctx context.Context, ownerID, code, phrase string) (_ *transferdomain.Request, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "confirm_transfer_final", err) }()
	actor, req, err := s.pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := req.State.Next(transferdomain.EventConfirmFinal); err != nil {
		return nil, err
	}
	if !transferdomain.PhraseMatches(phrase) {
		return nil, ErrPhraseMismatch
	}
	if !security.CodeEqual(code, req.CodeHash) {
		return nil, s.failedCode(ctx, actor, req)
	}

	done, err := s.transfers.Complete(ctx, req.ID, s.now())
	if err != nil {
		return nil, err
	}
	log.Info().Str("transfer_id", done.ID).Str("org_id", done.OrgID).Str("new_owner", done.ToUserID).Msg("ownership transferred")
	s.metrics.RecordTransfer(ctx, string(done.State))
	s.audit.LogEvent(ctx, done.OrgID, actor.UserID(), audit.ActionTransferCompleted, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id":   done.ID,
		"from_user_id":  done.FromUserID,
		"to_user_id":    done.ToUserID,
		"membership_id": done.ToMembershipID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  done.ToUserID,
		OrgID:   done.OrgID,
		Kind:    notification.KindTransferCompleted,
		Title:   "You are now the owner",
		Message: "Ownership of the organization has been transferred to you.",
	})
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  done.FromUserID,
		OrgID:   done.OrgID,
		Kind:    notification.KindTransferCompleted,
		Title:   "Ownership transferred",
		Message: "You are no longer the owner. Your role is now ADMIN.",
	})
	return done, nil
}

// Cancel withdraws the caller's pending request.
func (s *Service) Cancel(ctx context.Context, ownerID string) (_ *transferdomain.Request, err error) {
	defer func() { s.metrics.RecordOperation(ctx, "cancel_transfer", err) }()
	actor, req, err := s.pending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	next, err := s.advance(ctx, req, transferdomain.EventCancel)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransfer(ctx, string(next.State))
	s.audit.LogEvent(ctx, next.OrgID, actor.UserID(), audit.ActionTransferCancelled, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id": next.ID,
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  next.ToUserID,
		OrgID:   next.OrgID,
		Kind:    notification.KindTransferCancelled,
		Title:   "Ownership transfer cancelled",
		Message: "The pending ownership transfer to you was cancelled.",
	})
	return next, nil
}

// GetPending returns the live request of the caller's organization, or nil when there is none.
// Any active member may look.
func (s *Service) GetPending(ctx context.Context, callerID string) (*transferdomain.Request, error) {
	actor, err := s.access.ActiveActor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	req, err := s.transfers.GetOpenByOrg(ctx, actor.OrgID())
	if err != nil {
		return nil, err
	}
	if req == nil || !req.PendingAt(s.now()) {
		return nil, nil
	}
	return req, nil
}

// ExpireStale marks every overdue pending request expired. Used by the reaper.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.transfers.ExpireStale(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for i := int64(0); i < n; i++ {
		s.metrics.RecordTransfer(ctx, string(transferdomain.StateExpired))
	}
	return n, nil
}

func (s *Service) owner(ctx context.Context, userID string) (*access.Actor, error) {
	actor, err := s.access.ActiveActor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.Membership.IsOwner() {
		return nil, ErrNotOwner
	}
	if err := actor.Require(rbac.PermTransferOwnership); err != nil {
		return nil, err
	}
	return actor, nil
}

// pending loads the caller's live request, expiring it on the way when its deadline passed.
func (s *Service) pending(ctx context.Context, ownerID string) (*access.Actor, *transferdomain.Request, error) {
	actor, err := s.owner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	req, err := s.transfers.GetOpenByOrg(ctx, actor.OrgID())
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, ErrNoPendingTransfer
	}
	if req.FromUserID != actor.UserID() {
		return nil, nil, ErrNotInitiator
	}
	if req.Expired(s.now()) {
		if _, err := s.advance(ctx, req, transferdomain.EventExpire); err == nil {
			s.metrics.RecordTransfer(ctx, string(transferdomain.StateExpired))
		} else if !errors.Is(err, errs.ErrInvalidState) {
			return nil, nil, err
		}
		return nil, nil, ErrTransferExpired
	}
	return actor, req, nil
}

// advance applies e to a copy of req and persists it if nobody moved the request meanwhile.
func (s *Service) advance(ctx context.Context, req *transferdomain.Request, e transferdomain.Event) (*transferdomain.Request, error) {
	next := req.Clone()
	if err := next.Apply(e, s.now()); err != nil {
		return nil, err
	}
	if err := s.transfers.Transition(ctx, next, req.State); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Service) failedCode(ctx context.Context, actor *access.Actor, req *transferdomain.Request) error {
	attempts, err := s.transfers.RecordFailedAttempt(ctx, req.ID)
	if err != nil {
		return err
	}
	log.Warn().Str("transfer_id", req.ID).Int("attempts", attempts).Msg("wrong ownership transfer code")
	s.audit.LogEvent(ctx, req.OrgID, actor.UserID(), audit.ActionTransferCodeFailed, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id": req.ID,
		"attempts":    attempts,
	}))
	if attempts < s.opts.MaxCodeAttempts {
		return ErrCodeMismatch
	}
	req.FailedAttempts = attempts

	cancelled, err := s.advance(ctx, req, transferdomain.EventCancel)
	if err != nil {
		return err
	}
	s.metrics.RecordTransfer(ctx, string(cancelled.State))
	s.audit.LogEvent(ctx, req.OrgID, actor.UserID(), audit.ActionTransferCancelled, audit.ResourceTransfer, audit.Metadata(map[string]any{
		"transfer_id": req.ID,
		"reason":      "too_many_attempts",
	}))
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  actor.UserID(),
		OrgID:   req.OrgID,
		Kind:    notification.KindTransferCodeLockout,
		Title:   "Ownership transfer locked",
		Message: "Too many incorrect codes were entered. The transfer was cancelled.",
	})
	s.notifier.Notify(ctx, notification.Notification{
		UserID:  req.ToUserID,
		OrgID:   req.OrgID,
		Kind:    notification.KindTransferCancelled,
		Title:   "Ownership transfer cancelled",
		Message: "The pending ownership transfer to you was cancelled.",
	})
	return ErrTooManyAttempts
}
