package access

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// dbTeamDirectory is the default TeamDirectory, resolving membership from
// the team_members table.
type dbTeamDirectory struct {
	db *gorm.DB
}

// SharesTeam reports whether the two profiles belong to a common team. A
// profile always shares a team with itself, membership or not, so a
// team-scoped grant covers the principal's own records the way a CRM user
// expects; an owner other than the principal still needs an actual common
// team.
func (d *dbTeamDirectory) SharesTeam(ctx context.Context, profileA, profileB string) (bool, error) {
	if profileA == profileB {
		return true, nil
	}

	var aTeams []string
	if err := d.db.WithContext(ctx).Model(&TeamMember{}).
		Where("profile_id = ?", profileA).
		Pluck("team_id", &aTeams).Error; err != nil {
		return false, fmt.Errorf("failed to fetch team memberships: %w", err)
	}
	if len(aTeams) == 0 {
		return false, nil
	}

	var count int64
	if err := d.db.WithContext(ctx).Model(&TeamMember{}).
		Where("profile_id = ? AND team_id IN ?", profileB, aTeams).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to fetch team memberships: %w", err)
	}
	return count > 0, nil
}

// CreateTeam creates a team.
func (s *Service) CreateTeam(ctx context.Context, name string, actorID string) (*Team, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}

	var existing Team
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: team %s", ErrDuplicateName, name)
	}

	team := Team{Name: name}
	if err := s.db.WithContext(ctx).Create(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: team %s", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.audit(ctx, actorID, "create_team", "team:"+name, true)
	return &team, nil
}

// DeleteTeam removes a team and its memberships.
func (s *Service) DeleteTeam(ctx context.Context, id string, actorID string) error {
	if id == "" {
		return ErrInvalidInput
	}

	var team Team
	if err := s.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return fmt.Errorf("%w: team %s", ErrNotFound, id)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&team).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "delete_team", "team:"+team.Name, true)
	return nil
}

// AddTeamMember puts a profile into a team.
func (s *Service) AddTeamMember(ctx context.Context, teamID, profileID string, actorID string) error {
	if teamID == "" || profileID == "" {
		return ErrInvalidInput
	}

	var team Team
	if err := s.db.WithContext(ctx).First(&team, "id = ?", teamID).Error; err != nil {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}

	member := TeamMember{TeamID: teamID, ProfileID: profileID}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "add_team_member", fmt.Sprintf("team:%s profile:%s", teamID, profileID), true)
	return nil
}

// RemoveTeamMember removes a profile from a team.
func (s *Service) RemoveTeamMember(ctx context.Context, teamID, profileID string, actorID string) error {
	if teamID == "" || profileID == "" {
		return ErrInvalidInput
	}

	result := s.db.WithContext(ctx).
		Where("team_id = ? AND profile_id = ?", teamID, profileID).
		Delete(&TeamMember{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove team member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: membership of %s in team %s", ErrNotFound, profileID, teamID)
	}

	s.invalidateCache(ctx)
	s.audit(ctx, actorID, "remove_team_member", fmt.Sprintf("team:%s profile:%s", teamID, profileID), true)
	return nil
}

// TeamsOf lists the team ids a profile belongs to.
func (s *Service) TeamsOf(ctx context.Context, profileID string) ([]string, error) {
	if profileID == "" {
		return nil, ErrInvalidInput
	}

	var teamIDs []string
	if err := s.db.WithContext(ctx).Model(&TeamMember{}).
		Where("profile_id = ?", profileID).
		Pluck("team_id", &teamIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch team memberships: %w", err)
	}
	return teamIDs, nil
}

// ListTeams retrieves all teams.
func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := s.db.WithContext(ctx).Order("name").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	return teams, nil
}
