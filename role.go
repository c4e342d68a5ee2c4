package access

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// The five built-in roles. Their id equals their name; they are never
// written by admins and never required to exist in storage.
var systemRoles = []Role{
	{ID: "super_admin", Name: "super_admin", Description: "Full access to every object", IsSystem: true},
	{ID: "team_manager", Name: "team_manager", Description: "Manages a sales team", IsSystem: true},
	{ID: "sales", Name: "sales", Description: "Works own leads and deals", IsSystem: true},
	{ID: "customer_service", Name: "customer_service", Description: "Handles tickets and contacts", IsSystem: true},
	{ID: "technical_support", Name: "technical_support", Description: "Resolves technical tickets", IsSystem: true},
}

// IsSystemRole reports whether id names one of the five built-in roles.
func IsSystemRole(id string) bool {
	for _, r := range systemRoles {
		if r.ID == id {
			return true
		}
	}
	return false
}

// SystemRoles returns copies of the built-in role records.
func SystemRoles() []Role {
	out := make([]Role, len(systemRoles))
	copy(out, systemRoles)
	return out
}

// ListRoles returns the five system roles merged with every custom role in
// storage. System roles missing from storage are synthesized on read rather
// than requiring a migration. Order: system roles first in their canonical
// order, then custom roles by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	var stored []Role
	if err := s.db.WithContext(ctx).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	byID := make(map[string]Role, len(stored))
	for _, r := range stored {
		byID[r.ID] = r
	}

	roles := make([]Role, 0, len(systemRoles)+len(stored))
	for _, sys := range systemRoles {
		if materialized, ok := byID[sys.ID]; ok {
			delete(byID, sys.ID)
			materialized.IsSystem = true
			roles = append(roles, materialized)
			continue
		}
		roles = append(roles, sys)
	}

	custom := make([]Role, 0, len(byID))
	for _, r := range byID {
		custom = append(custom, r)
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Name < custom[j].Name })
	return append(roles, custom...), nil
}

// GetRole retrieves a role by id, synthesizing unmaterialized system roles.
func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	var role Role
	err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error
	if err == nil {
		if IsSystemRole(role.ID) {
			role.IsSystem = true
		}
		return &role, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		for _, sys := range systemRoles {
			if sys.ID == id {
				r := sys
				return &r, nil
			}
		}
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	return nil, fmt.Errorf("failed to fetch role: %w", err)
}

// CreateRole creates a custom role. Names must not collide with any stored
// role or with a system role, materialized or not.
func (s *Service) CreateRole(ctx context.Context, name, description string, actorID string) (*Role, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	for _, sys := range systemRoles {
		if sys.Name == name {
			s.audit(ctx, actorID, "create_role", "role:"+name, false)
			return nil, fmt.Errorf("%w: role %s", ErrDuplicateName, name)
		}
	}

	var existing Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err == nil {
		s.audit(ctx, actorID, "create_role", "role:"+name, false)
		return nil, fmt.Errorf("%w: role %s", ErrDuplicateName, name)
	}

	role := Role{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: role %s", ErrDuplicateName, name)
		}
		s.audit(ctx, actorID, "create_role", "role:"+name, false)
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.audit(ctx, actorID, "create_role", "role:"+name, true)
	return &role, nil
}

// UpdateRole changes a custom role's name or description. System roles are
// frozen and return ErrForbidden.
func (s *Service) UpdateRole(ctx context.Context, id, name, description string, actorID string) (*Role, error) {
	if id == "" || name == "" {
		return nil, ErrInvalidInput
	}
	if IsSystemRole(id) {
		s.audit(ctx, actorID, "update_role", "role:"+id, false)
		return nil, fmt.Errorf("%w: %s", ErrForbidden, id)
	}

	var role Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}

	if name != role.Name {
		for _, sys := range systemRoles {
			if sys.Name == name {
				return nil, fmt.Errorf("%w: role %s", ErrDuplicateName, name)
			}
		}
		var collision Role
		if err := s.db.WithContext(ctx).Where("name = ? AND id <> ?", name, id).First(&collision).Error; err == nil {
			return nil, fmt.Errorf("%w: role %s", ErrDuplicateName, name)
		}
	}

	role.Name = name
	role.Description = description
	if err := s.db.WithContext(ctx).Save(&role).Error; err != nil {
		s.audit(ctx, actorID, "update_role", "role:"+id, false)
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "update_role", "role:"+id, true)
	return &role, nil
}

// DeleteRole removes a custom role and its permission assignments. Fails
// with ErrForbidden for system roles and with ErrInUse while any profile
// still references the role.
func (s *Service) DeleteRole(ctx context.Context, id string, actorID string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if IsSystemRole(id) {
		s.audit(ctx, actorID, "delete_role", "role:"+id, false)
		return fmt.Errorf("%w: %s", ErrForbidden, id)
	}

	var role Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: role %s", ErrNotFound, id)
	}

	principals, err := s.CountPrincipalsWithRole(ctx, id)
	if err != nil {
		return err
	}
	if principals > 0 {
		s.audit(ctx, actorID, "delete_role", "role:"+role.Name, false)
		return fmt.Errorf("%w: role %s is assigned to %d principal(s)", ErrInUse, role.Name, principals)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", id).Delete(&RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
	if err != nil {
		s.audit(ctx, actorID, "delete_role", "role:"+role.Name, false)
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "delete_role", "role:"+role.Name, true)
	return nil
}
