package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogSize(c Catalog) int {
	n := 0
	for _, obj := range c.Objects() {
		for _, ls := range obj.Levels {
			n += len(ls.Scopes)
		}
	}
	return n
}

func TestSeedCatalogCompleteness(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalogSize(svc.Catalog()), created)

	defs, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, created)

	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		_, dup := seen[def.Name]
		assert.False(t, dup, "duplicate name %s", def.Name)
		seen[def.Name] = struct{}{}

		// Every seeded row decomposes into a valid triple.
		tr, err := def.Triple()
		require.NoError(t, err)
		assert.Contains(t, svc.Catalog().ScopesFor(tr.Object, tr.Level), tr.Scope)
	}
}

func TestSeedCatalogIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	require.Positive(t, first)

	second, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, second)

	defs, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, first)
}

func TestSeedCatalogSkippedWhenNonEmpty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "deals_read-only_own", "manual", "admin")
	require.NoError(t, err)

	created, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestCreatePermissionDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "deals_read-only_own", "first", "admin")
	require.NoError(t, err)

	_, err = svc.CreatePermission(ctx, "deals_read-only_own", "second", "admin")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreatePermissionRejectsMalformedName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreatePermission(context.Background(), "deals-read", "bad", "admin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeletePermissionInUseGuard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	def, err := svc.CreatePermission(ctx, "deals_read-only_own", "", "admin")
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, "analyst", "", "admin")
	require.NoError(t, err)
	require.NoError(t, svc.ReplaceRolePermissions(ctx, role.ID, []string{def.ID}, "admin"))

	err = svc.DeletePermission(ctx, def.ID, "admin")
	assert.ErrorIs(t, err, ErrInUse)

	// Dropping the last reference unblocks deletion.
	require.NoError(t, svc.ReplaceRolePermissions(ctx, role.ID, nil, "admin"))
	require.NoError(t, svc.DeletePermission(ctx, def.ID, "admin"))

	_, err = svc.GetPermission(ctx, def.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPermissionNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetPermission(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
