package handler

import (
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/transfer/domain"
)

// Request is the wire form of an ownership transfer request. The code hash never leaves the server.
type Request struct {
	ID               string     `json:"id"`
	OrgID            string     `json:"org_id"`
	FromUserID       string     `json:"from_user_id"`
	ToUserID         string     `json:"to_user_id"`
	ToMembershipID   string     `json:"to_membership_id"`
	State            string     `json:"state"`
	FailedAttempts   int        `json:"failed_attempts"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	FirstConfirmedAt *time.Time `json:"first_confirmed_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

func requestFromDomain(r *domain.Request) *Request {
	if r == nil {
		return nil
	}
	return &Request{
		ID:               r.ID,
		OrgID:            r.OrgID,
		FromUserID:       r.FromUserID,
		ToUserID:         r.ToUserID,
		ToMembershipID:   r.ToMembershipID,
		State:            string(r.State),
		FailedAttempts:   r.FailedAttempts,
		CreatedAt:        r.CreatedAt,
		ExpiresAt:        r.ExpiresAt,
		FirstConfirmedAt: r.FirstConfirmedAt,
		CompletedAt:      r.CompletedAt,
		CancelledAt:      r.CancelledAt,
	}
}

type InitiateTransferRequest struct {
	TargetMembershipID string `json:"target_membership_id"`
}

type InitiateTransferResponse struct {
	Request *Request `json:"request"`
	// Code is only present when the server runs with code return enabled.
	Code string `json:"code,omitempty"`
}

type ConfirmFirstRequest struct {
	// Typed is the new owner's name or email.
	Typed string `json:"typed"`
}

type ConfirmFinalRequest struct {
	Code   string `json:"code"`
	Phrase string `json:"phrase"`
}

type CancelTransferRequest struct{}

type GetPendingTransferRequest struct{}

type TransferResponse struct {
	Request *Request `json:"request"`
}
