package access

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ReplaceRolePermissions replaces a role's entire permission set with the
// given definition ids. Delete and insert run in one transaction so a failed
// insert can never leave the role stripped of permissions. This is a full
// snapshot replacement: concurrent editors race and the last snapshot wins.
func (s *Service) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string, actorID string) error {
	if roleID == "" {
		return ErrInvalidInput
	}
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}

	// Reject unknown ids up front so the transaction never half-applies a
	// snapshot referencing deleted definitions.
	if len(permissionIDs) > 0 {
		var known int64
		if err := s.db.WithContext(ctx).Model(&PermissionDefinition{}).
			Where("id IN ?", permissionIDs).Count(&known).Error; err != nil {
			return fmt.Errorf("failed to verify permission ids: %w", err)
		}
		if int(known) != len(dedupe(permissionIDs)) {
			return fmt.Errorf("%w: unknown permission id in assignment", ErrNotFound)
		}
	}

	rows := make([]RolePermission, 0, len(permissionIDs))
	for _, id := range dedupe(permissionIDs) {
		rows = append(rows, RolePermission{RoleID: roleID, PermissionID: id})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role = ?", roleID).Delete(&RolePermission{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		s.audit(ctx, actorID, "replace_role_permissions", "role:"+roleID, false)
		return fmt.Errorf("failed to replace role permissions: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "replace_role_permissions", "role:"+roleID, true)
	return nil
}

// PermissionsForRole resolves the join to full permission definitions,
// ordered by name.
func (s *Service) PermissionsForRole(ctx context.Context, roleID string) ([]PermissionDefinition, error) {
	if roleID == "" {
		return nil, ErrInvalidInput
	}

	var joins []RolePermission
	if err := s.db.WithContext(ctx).Where("role = ?", roleID).Find(&joins).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch role permissions: %w", err)
	}
	if len(joins) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(joins))
	for _, j := range joins {
		ids = append(ids, j.PermissionID)
	}

	var defs []PermissionDefinition
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return defs, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
