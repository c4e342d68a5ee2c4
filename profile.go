package access

import (
	"context"
	"fmt"
)

// UpsertProfile creates or updates a principal record.
func (s *Service) UpsertProfile(ctx context.Context, profile Profile) error {
	if profile.ID == "" || profile.Email == "" {
		return ErrInvalidInput
	}
	if profile.RoleID != "" {
		if _, err := s.GetRole(ctx, profile.RoleID); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	s.invalidateCache(ctx)
	return nil
}

// GetProfile retrieves a principal record by id.
func (s *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	var profile Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	return &profile, nil
}

// AssignRoleToProfile sets the profile's role column. An empty roleID
// clears the assignment.
func (s *Service) AssignRoleToProfile(ctx context.Context, profileID, roleID string, actorID string) error {
	if profileID == "" {
		return ErrInvalidInput
	}
	if roleID != "" {
		if _, err := s.GetRole(ctx, roleID); err != nil {
			return err
		}
	}

	result := s.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", profileID).
		Update("role", roleID)
	if result.Error != nil {
		s.audit(ctx, actorID, "assign_role", "profile:"+profileID, false)
		return fmt.Errorf("failed to assign role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: profile %s", ErrNotFound, profileID)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "assign_role", fmt.Sprintf("profile:%s role:%s", profileID, roleID), true)
	return nil
}

// CountPrincipalsWithRole counts the profiles currently assigned a role.
// The role in-use guard runs on this before deletion.
func (s *Service) CountPrincipalsWithRole(ctx context.Context, roleID string) (int64, error) {
	if roleID == "" {
		return 0, ErrInvalidInput
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Profile{}).Where("role = ?", roleID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count principals with role: %w", err)
	}
	return count, nil
}
