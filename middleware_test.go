package access

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareApp(t *testing.T, svc *Service, profileID string) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if profileID != "" {
			c.Locals("profile_id", profileID)
		}
		return c.Next()
	})
	app.Get("/deals", svc.RequireGrant("deals", LevelReadOnly), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireGrantAllows(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	grantScopes(t, svc, "sales", "deals", LevelReadOnly, ScopeOwn)
	require.NoError(t, svc.UpsertProfile(ctx, Profile{ID: "u1", Email: "u1@example.com", RoleID: "sales"}))

	app := newMiddlewareApp(t, svc, "u1")
	resp, err := app.Test(httptest.NewRequest("GET", "/deals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireGrantDeniesWithoutGrant(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SeedCatalog(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.UpsertProfile(ctx, Profile{ID: "u1", Email: "u1@example.com", RoleID: "sales"}))

	app := newMiddlewareApp(t, svc, "u1")
	resp, err := app.Test(httptest.NewRequest("GET", "/deals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireGrantRejectsAnonymous(t *testing.T) {
	svc := newTestService(t)

	app := newMiddlewareApp(t, svc, "")
	resp, err := app.Test(httptest.NewRequest("GET", "/deals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireGrantRejectsUnknownProfile(t *testing.T) {
	svc := newTestService(t)

	app := newMiddlewareApp(t, svc, "ghost")
	resp, err := app.Test(httptest.NewRequest("GET", "/deals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
