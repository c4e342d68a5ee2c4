package access

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SeedCatalog materializes one PermissionDefinition per
// {object} x {level} x {scope valid at that level} from the catalog. It only
// acts on an empty permissions table; once any row exists it is a no-op, so
// re-running it at every boot is safe. Returns the number of rows created.
func (s *Service) SeedCatalog(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&PermissionDefinition{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count permissions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	var defs []PermissionDefinition
	for _, obj := range s.catalog.Objects() {
		for _, ls := range obj.Levels {
			for _, scope := range ls.Scopes {
				t := Triple{Object: obj.Name, Level: ls.Level, Scope: scope}
				defs = append(defs, PermissionDefinition{
					Name:        t.Name(),
					Description: fmt.Sprintf("%s: %s access, %s scope", obj.Label, ls.Level, scope),
				})
			}
		}
	}
	if len(defs) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).CreateInBatches(defs, 100).Error; err != nil {
		s.log.Errorw("catalog seed failed", "error", err)
		return 0, fmt.Errorf("failed to seed permission catalog: %w", err)
	}

	s.invalidateCache(ctx)
	s.log.Infow("permission catalog seeded", "permissions", len(defs))
	return len(defs), nil
}

// CreatePermission creates a permission definition outside the seeded
// catalog. The name must still be a valid canonical triple.
func (s *Service) CreatePermission(ctx context.Context, name, description string, actorID string) (*PermissionDefinition, error) {
	if _, err := ParseName(name); err != nil {
		return nil, err
	}

	var existing PermissionDefinition
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err == nil {
		s.audit(ctx, actorID, "create_permission", "permission:"+name, false)
		return nil, fmt.Errorf("%w: permission %s", ErrDuplicateName, name)
	}

	def := PermissionDefinition{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: permission %s", ErrDuplicateName, name)
		}
		s.audit(ctx, actorID, "create_permission", "permission:"+name, false)
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "create_permission", "permission:"+name, true)
	return &def, nil
}

// DeletePermission removes a permission definition. Fails with ErrInUse
// while any role still references it.
func (s *Service) DeletePermission(ctx context.Context, id string, actorID string) error {
	if id == "" {
		return ErrInvalidInput
	}

	var def PermissionDefinition
	if err := s.db.WithContext(ctx).First(&def, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: permission %s", ErrNotFound, id)
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&RolePermission{}).Where("permission_id = ?", id).Count(&refs).Error; err != nil {
		return fmt.Errorf("failed to count permission references: %w", err)
	}
	if refs > 0 {
		s.audit(ctx, actorID, "delete_permission", "permission:"+def.Name, false)
		return fmt.Errorf("%w: permission %s is assigned to %d role(s)", ErrInUse, def.Name, refs)
	}

	if err := s.db.WithContext(ctx).Delete(&def).Error; err != nil {
		s.audit(ctx, actorID, "delete_permission", "permission:"+def.Name, false)
		return fmt.Errorf("failed to delete permission: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "delete_permission", "permission:"+def.Name, true)
	return nil
}

// GetPermission retrieves a permission definition by id.
func (s *Service) GetPermission(ctx context.Context, id string) (*PermissionDefinition, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	var def PermissionDefinition
	if err := s.db.WithContext(ctx).First(&def, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("%w: permission %s", ErrNotFound, id)
	}
	return &def, nil
}

// ListPermissions retrieves all permission definitions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]PermissionDefinition, error) {
	var defs []PermissionDefinition
	if err := s.db.WithContext(ctx).Order("name").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return defs, nil
}
