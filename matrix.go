package access

import (
	"context"
	"fmt"
	"sort"
)

// ObjectPermission is one row of the admin matrix: for each level of one
// object, the single scope the role is granted there. A level absent from
// the map means no access at that level. The map holds one scope per level,
// so two scopes for the same cell are impossible to express.
type ObjectPermission struct {
	Object string
	Levels map[Level]Scope
}

var levelOrder = []Level{LevelReadOnly, LevelReadEdit, LevelFullAccess}

// EncodeMatrix flattens a matrix into the permission-definition ids to
// persist. Each selected cell resolves to an existing definition by its
// canonical name; cells with no matching definition are silently dropped.
// The codec never creates definitions.
func (s *Service) EncodeMatrix(ctx context.Context, matrix []ObjectPermission) ([]string, error) {
	var names []string
	for _, op := range matrix {
		for _, level := range levelOrder {
			scope, ok := op.Levels[level]
			if !ok {
				continue
			}
			names = append(names, Triple{Object: op.Object, Level: level, Scope: scope}.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	var defs []PermissionDefinition
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve matrix permissions: %w", err)
	}
	idByName := make(map[string]string, len(defs))
	for _, d := range defs {
		idByName[d.Name] = d.ID
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := idByName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DecodeMatrix groups permission-definition ids back into the matrix
// view-model. Definitions are folded in name order, so if storage ever held
// two scopes for the same (object, level) the result is still deterministic.
// Ids of since-deleted definitions are dropped.
func (s *Service) DecodeMatrix(ctx context.Context, permissionIDs []string) ([]ObjectPermission, error) {
	if len(permissionIDs) == 0 {
		return nil, nil
	}

	var defs []PermissionDefinition
	if err := s.db.WithContext(ctx).Where("id IN ?", permissionIDs).Order("name").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve permission ids: %w", err)
	}
	return s.matrixFromDefinitions(defs), nil
}

func (s *Service) matrixFromDefinitions(defs []PermissionDefinition) []ObjectPermission {
	byObject := make(map[string]map[Level]Scope)
	for _, def := range defs {
		t, err := def.Triple()
		if err != nil {
			// A malformed name cannot come out of the seeded catalog or
			// CreatePermission; skip rather than fail the whole matrix.
			s.log.Warnw("skipping malformed permission name", "name", def.Name)
			continue
		}
		if byObject[t.Object] == nil {
			byObject[t.Object] = make(map[Level]Scope)
		}
		byObject[t.Object][t.Level] = t.Scope
	}

	objects := make([]string, 0, len(byObject))
	for obj := range byObject {
		objects = append(objects, obj)
	}
	sort.Strings(objects)

	matrix := make([]ObjectPermission, 0, len(objects))
	for _, obj := range objects {
		matrix = append(matrix, ObjectPermission{Object: obj, Levels: byObject[obj]})
	}
	return matrix
}

// MatrixForRole returns a role's current permission set as a matrix.
func (s *Service) MatrixForRole(ctx context.Context, roleID string) ([]ObjectPermission, error) {
	defs, err := s.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return s.matrixFromDefinitions(defs), nil
}

// ApplyMatrix encodes a matrix and replaces the role's permission set with
// it in one call.
func (s *Service) ApplyMatrix(ctx context.Context, roleID string, matrix []ObjectPermission, actorID string) error {
	ids, err := s.EncodeMatrix(ctx, matrix)
	if err != nil {
		return err
	}
	return s.ReplaceRolePermissions(ctx, roleID, ids, actorID)
}
