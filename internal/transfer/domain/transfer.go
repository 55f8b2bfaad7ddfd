// Package domain holds the ownership transfer request and its state machine.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// ConfirmationPhrase must be typed, ignoring case, to complete a transfer.
const ConfirmationPhrase = "TRANSFER OWNERSHIP"

// State is the lifecycle state of a transfer request.
type State string

const (
	StateInitiated      State = "initiated"
	StateFirstConfirmed State = "first_confirmed"
	StateCompleted      State = "completed"
	StateCancelled      State = "cancelled"
	StateExpired        State = "expired"
)

// Event drives a transition.
type Event string

const (
	EventConfirmFirst Event = "confirm_first"
	EventConfirmFinal Event = "confirm_final"
	EventCancel       Event = "cancel"
	EventExpire       Event = "expire"
)

var transitions = map[State]map[Event]State{
	StateInitiated: {
		EventConfirmFirst: StateFirstConfirmed,
		EventCancel:       StateCancelled,
		EventExpire:       StateExpired,
	},
	StateFirstConfirmed: {
		EventConfirmFinal: StateCompleted,
		EventCancel:       StateCancelled,
		EventExpire:       StateExpired,
	},
}

// ErrIllegalTransition is returned when an event is not allowed in the current state.
var ErrIllegalTransition = fmt.Errorf("%w: illegal transfer transition", errs.ErrInvalidState)

// Next returns the state reached from s on e.
func (s State) Next(e Event) (State, error) {
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, e, s)
	}
	return next, nil
}

// Pending reports whether s is a non-terminal state.
func (s State) Pending() bool {
	return s == StateInitiated || s == StateFirstConfirmed
}

// Request is one attempt to hand an organization's ownership to another member.
// Only the hash of the confirmation code is kept.
type Request struct {
	ID               string
	OrgID            string
	FromUserID       string
	ToUserID         string
	ToMembershipID   string
	CodeHash         string
	State            State
	FailedAttempts   int
	CreatedAt        time.Time
	ExpiresAt        time.Time
	FirstConfirmedAt *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// ConfirmedOnce reports whether the typed-name step has passed.
func (r *Request) ConfirmedOnce() bool {
	return r.State == StateFirstConfirmed
}

// Expired reports whether r ran out of time at now.
func (r *Request) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// PendingAt reports whether r is still live at now.
func (r *Request) PendingAt(now time.Time) bool {
	return r.State.Pending() && !r.Expired(now)
}

// Apply moves r to the state reached by e and stamps the matching timestamp.
func (r *Request) Apply(e Event, at time.Time) error {
	next, err := r.State.Next(e)
	if err != nil {
		return err
	}
	r.State = next
	t := at
	switch next {
	case StateFirstConfirmed:
		r.FirstConfirmedAt = &t
	case StateCompleted:
		r.CompletedAt = &t
	case StateCancelled:
		r.CancelledAt = &t
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.FirstConfirmedAt = cloneTime(r.FirstConfirmedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

// PhraseMatches reports whether typed is the confirmation phrase, ignoring case and surrounding space.
func PhraseMatches(typed string) bool {
	return strings.EqualFold(strings.TrimSpace(typed), ConfirmationPhrase)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
