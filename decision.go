package access

import (
	"context"
	"fmt"
)

// Principal is an already-authenticated identity. RoleIDs usually holds the
// single role from the principal's profile, but the evaluator accepts any
// number and takes the broadest grant across them.
type Principal struct {
	ID      string
	RoleIDs []string
}

// Resource is the ownership metadata of the record being accessed. OwnerID
// nil means the record is unassigned.
type Resource struct {
	ID      string
	OwnerID *string
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Scope   Scope // the scope that granted access, empty on deny
	Reason  string
}

// TeamDirectory resolves team membership for the team scope.
type TeamDirectory interface {
	SharesTeam(ctx context.Context, profileA, profileB string) (bool, error)
}

// grant is the resolved outcome of the principal's roles for one
// (object, level): the broadest breadth scope plus whether unassigned
// records are additionally covered.
type grant struct {
	broadest   Scope
	unassigned bool
	found      bool
}

func (s *Service) resolveGrant(ctx context.Context, roleIDs []string, object string, level Level) (grant, error) {
	var g grant
	if len(roleIDs) == 0 {
		return g, nil
	}

	var joins []RolePermission
	if err := s.db.WithContext(ctx).Where("role IN ?", roleIDs).Find(&joins).Error; err != nil {
		return g, fmt.Errorf("failed to fetch role permissions: %w", err)
	}
	if len(joins) == 0 {
		return g, nil
	}

	ids := make([]string, 0, len(joins))
	for _, j := range joins {
		ids = append(ids, j.PermissionID)
	}

	var defs []PermissionDefinition
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&defs).Error; err != nil {
		return g, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	for _, def := range defs {
		t, err := def.Triple()
		if err != nil {
			s.log.Warnw("skipping malformed permission name", "name", def.Name)
			continue
		}
		if t.Object != object || t.Level != level {
			continue
		}
		g.found = true
		if t.Scope == ScopeUnassigned {
			g.unassigned = true
			continue
		}
		if breadth(t.Scope) > breadth(g.broadest) {
			g.broadest = t.Scope
		}
	}
	return g, nil
}

// Decide determines whether the principal may access the resource at the
// given level. Absence of any grant denies; it is not a negative grant, just
// the default. Among breadth scopes the broadest granted one wins
// (all > team > own); an unassigned grant independently covers ownerless
// resources.
func (s *Service) Decide(ctx context.Context, p Principal, object string, level Level, res Resource) (Decision, error) {
	if p.ID == "" || object == "" {
		return Decision{}, ErrInvalidInput
	}

	if cached, ok := s.cachedDecision(ctx, p, object, level, res); ok {
		return cached, nil
	}

	g, err := s.resolveGrant(ctx, p.RoleIDs, object, level)
	if err != nil {
		return Decision{}, err
	}

	d, err := s.evaluate(ctx, p, g, res)
	if err != nil {
		return Decision{}, err
	}
	s.cacheDecision(ctx, p, object, level, res, d)
	if s.auditEnabled {
		s.audit(ctx, p.ID, "decide", fmt.Sprintf("%s:%s:%s", object, level, res.ID), d.Allowed)
	}
	return d, nil
}

// evaluate applies the resolved grant to the resource. Collaborator
// failures propagate as errors and never become a deny; only real outcomes
// reach the caller and the cache.
func (s *Service) evaluate(ctx context.Context, p Principal, g grant, res Resource) (Decision, error) {
	if !g.found {
		return Decision{Reason: "no grant for object and level"}, nil
	}

	if g.unassigned && res.OwnerID == nil {
		return Decision{Allowed: true, Scope: ScopeUnassigned, Reason: "resource is unassigned"}, nil
	}

	switch g.broadest {
	case ScopeAll:
		return Decision{Allowed: true, Scope: ScopeAll, Reason: "granted for all records"}, nil
	case ScopeTeam:
		if res.OwnerID == nil {
			return Decision{Reason: "resource is unassigned and no unassigned grant exists"}, nil
		}
		shared, err := s.teams.SharesTeam(ctx, p.ID, *res.OwnerID)
		if err != nil {
			s.log.Errorw("team membership lookup failed", "principal", p.ID, "owner", *res.OwnerID, "error", err)
			return Decision{}, fmt.Errorf("failed to resolve team membership: %w", err)
		}
		if shared {
			return Decision{Allowed: true, Scope: ScopeTeam, Reason: "owner shares a team with principal"}, nil
		}
		return Decision{Reason: "owner is outside principal's teams"}, nil
	case ScopeOwn:
		if res.OwnerID != nil && *res.OwnerID == p.ID {
			return Decision{Allowed: true, Scope: ScopeOwn, Reason: "principal owns the resource"}, nil
		}
		return Decision{Reason: "principal does not own the resource"}, nil
	}

	return Decision{Reason: "granted scope does not cover the resource"}, nil
}

// HasGrant reports whether the principal holds any grant at all for the
// (object, level) pair, regardless of scope. Request middleware uses this
// as a cheap gate before handlers run the per-resource Decide.
func (s *Service) HasGrant(ctx context.Context, p Principal, object string, level Level) (bool, error) {
	g, err := s.resolveGrant(ctx, p.RoleIDs, object, level)
	if err != nil {
		return false, err
	}
	return g.found, nil
}

// PrincipalForProfile builds a Principal from a stored profile record.
func (s *Service) PrincipalForProfile(ctx context.Context, profileID string) (Principal, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{ID: profile.ID}
	if profile.RoleID != "" {
		p.RoleIDs = []string{profile.RoleID}
	}
	return p, nil
}
