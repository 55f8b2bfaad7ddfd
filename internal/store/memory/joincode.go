package memory

import (
	"context"
	"time"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/joincode/domain"
	membershipdomain "github.com/SabevEnlapse/LynkSkill-1-sub001/internal/membership/domain"
)

// JoinCodeRepository implements the join code repository.
type JoinCodeRepository struct{ s *Store }

func (r *JoinCodeRepository) GetByOrg(_ context.Context, orgID string) (*domain.JoinCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.joinCodes[orgID].Clone(), nil
}

func (r *JoinCodeRepository) GetByCode(_ context.Context, code string) (*domain.JoinCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	orgID, ok := r.s.codeToOrg[code]
	if !ok {
		return nil, nil
	}
	return r.s.joinCodes[orgID].Clone(), nil
}

func (r *JoinCodeRepository) Create(_ context.Context, c *domain.JoinCode) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.joinCodes[c.OrgID]; ok {
		return false, nil
	}
	if _, ok := r.s.codeToOrg[c.Code]; ok {
		return false, errCodeTaken
	}
	r.s.joinCodes[c.OrgID] = c.Clone()
	r.s.codeToOrg[c.Code] = c.OrgID
	return true, nil
}

func (r *JoinCodeRepository) Rotate(_ context.Context, orgID, code string, prevRegenAt, now time.Time) (*domain.JoinCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	jc, ok := r.s.joinCodes[orgID]
	if !ok {
		return nil, errCodeMissing
	}
	if !jc.LastRegenAt.Equal(prevRegenAt) {
		return nil, domain.ErrStale
	}
	if owner, ok := r.s.codeToOrg[code]; ok && owner != orgID {
		return nil, errCodeTaken
	}
	delete(r.s.codeToOrg, jc.Code)
	jc.Code = code
	jc.UsageCount = 0
	jc.LastRegenAt = now
	jc.UpdatedAt = now
	r.s.codeToOrg[code] = orgID
	return jc.Clone(), nil
}

func (r *JoinCodeRepository) UpdateSettings(_ context.Context, orgID string, p domain.Patch, now time.Time) (*domain.JoinCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	jc, ok := r.s.joinCodes[orgID]
	if !ok {
		return nil, errCodeMissing
	}
	p.Apply(jc)
	jc.UpdatedAt = now
	return jc.Clone(), nil
}

func (r *JoinCodeRepository) Join(_ context.Context, code string, m *membershipdomain.Membership, now time.Time) (*domain.JoinCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	orgID, ok := r.s.codeToOrg[code]
	if !ok {
		return nil, errCodeMissing
	}
	jc := r.s.joinCodes[orgID]
	if err := jc.Usable(now, r.s.countActive(orgID)); err != nil {
		return nil, err
	}
	m.OrgID = orgID
	if err := r.s.insertMembership(m); err != nil {
		return nil, err
	}
	jc.UsageCount++
	jc.UpdatedAt = now
	return jc.Clone(), nil
}
