package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)

	// Objects in name order, cells all backed by seeded definitions.
	matrix := []ObjectPermission{
		{Object: "contacts", Levels: map[Level]Scope{
			LevelReadOnly: ScopeAll,
		}},
		{Object: "deals", Levels: map[Level]Scope{
			LevelReadOnly:   ScopeTeam,
			LevelReadEdit:   ScopeOwn,
			LevelFullAccess: ScopeUnassigned,
		}},
		{Object: "tickets", Levels: map[Level]Scope{
			LevelReadEdit: ScopeAll,
		}},
	}

	ids, err := svc.EncodeMatrix(ctx, matrix)
	require.NoError(t, err)
	require.Len(t, ids, 5)

	decoded, err := svc.DecodeMatrix(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, matrix, decoded)
}

func TestEncodeMatrixDropsUnbackedCells(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)

	// Emails support no team scope at read-only, so no definition exists for
	// that cell; the codec drops it without error.
	matrix := []ObjectPermission{
		{Object: "emails", Levels: map[Level]Scope{
			LevelReadOnly: ScopeTeam,
		}},
		{Object: "deals", Levels: map[Level]Scope{
			LevelReadOnly: ScopeOwn,
		}},
	}

	ids, err := svc.EncodeMatrix(ctx, matrix)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	decoded, err := svc.DecodeMatrix(ctx, ids)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "deals", decoded[0].Object)
}

func TestDecodeMatrixScopeExclusivity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)

	// Storage cannot be stopped from holding two scopes for one cell; the
	// decoded view-model still carries exactly one scope per (object, level).
	var own, all PermissionDefinition
	require.NoError(t, svc.db.First(&own, "name = ?", "deals_read-only_own").Error)
	require.NoError(t, svc.db.First(&all, "name = ?", "deals_read-only_all").Error)

	decoded, err := svc.DecodeMatrix(ctx, []string{own.ID, all.ID})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Len(t, decoded[0].Levels, 1)

	// Folding happens in name order, so the outcome is stable:
	// deals_read-only_own sorts after deals_read-only_all and wins.
	assert.Equal(t, ScopeOwn, decoded[0].Levels[LevelReadOnly])
}

func TestDecodeMatrixDropsDeletedDefinitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)

	var def PermissionDefinition
	require.NoError(t, svc.db.First(&def, "name = ?", "deals_read-only_own").Error)

	decoded, err := svc.DecodeMatrix(ctx, []string{def.ID, "since-deleted"})
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, ScopeOwn, decoded[0].Levels[LevelReadOnly])
}

func TestApplyAndReadBackMatrix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, "analyst", "", "admin")
	require.NoError(t, err)

	matrix := []ObjectPermission{
		{Object: "deals", Levels: map[Level]Scope{
			LevelReadOnly: ScopeTeam,
			LevelReadEdit: ScopeOwn,
		}},
	}
	require.NoError(t, svc.ApplyMatrix(ctx, role.ID, matrix, "admin"))

	got, err := svc.MatrixForRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, matrix, got)
}

func TestMatrixForRoleEmpty(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.MatrixForRole(context.Background(), "sales")
	require.NoError(t, err)
	assert.Empty(t, got)
}
