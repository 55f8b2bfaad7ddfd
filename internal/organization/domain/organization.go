package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// Org represents an organization/tenant. OwnerUserID always names the single Default(OWNER) member.
type Org struct {
	ID          string
	Name        string
	OwnerUserID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if o.OwnerUserID == "" {
		return fmt.Errorf("%w: owner is required", errs.ErrValidation)
	}
	return nil
}
