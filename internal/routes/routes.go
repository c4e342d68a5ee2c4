package routes

import (
	"errors"

	access "github.com/bohemiyan/crm-access"
	"github.com/gofiber/fiber/v2"
)

type roleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type matrixRequest struct {
	Matrix []access.ObjectPermission `json:"matrix"`
}

// Setup registers the admin API for the authorization core.
func Setup(app *fiber.App, svc *access.Service) {
	api := app.Group("/api/v1")

	api.Get("/permissions", func(c *fiber.Ctx) error {
		defs, err := svc.ListPermissions(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(defs)
	})

	api.Post("/permissions/seed", func(c *fiber.Ctx) error {
		created, err := svc.SeedCatalog(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(fiber.Map{"created": created})
	})

	api.Get("/roles", func(c *fiber.Ctx) error {
		roles, err := svc.ListRoles(c.Context())
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(roles)
	})

	api.Post("/roles", func(c *fiber.Ctx) error {
		var req roleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		role, err := svc.CreateRole(c.Context(), req.Name, req.Description, actorID(c))
		if err != nil {
			return statusFor(err)
		}
		return c.Status(fiber.StatusCreated).JSON(role)
	})

	api.Put("/roles/:id", func(c *fiber.Ctx) error {
		var req roleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		role, err := svc.UpdateRole(c.Context(), c.Params("id"), req.Name, req.Description, actorID(c))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(role)
	})

	api.Delete("/roles/:id", func(c *fiber.Ctx) error {
		if err := svc.DeleteRole(c.Context(), c.Params("id"), actorID(c)); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Get("/roles/:id/matrix", func(c *fiber.Ctx) error {
		matrix, err := svc.MatrixForRole(c.Context(), c.Params("id"))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(matrixRequest{Matrix: matrix})
	})

	api.Put("/roles/:id/matrix", func(c *fiber.Ctx) error {
		var req matrixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		if err := svc.ApplyMatrix(c.Context(), c.Params("id"), req.Matrix, actorID(c)); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Get("/audit", func(c *fiber.Ctx) error {
		entries, err := svc.ListAuditEntries(c.Context(), access.AuditFilter{})
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(entries)
	})

	// Example of a route gated by the middleware; real record endpoints
	// belong to the enclosing application.
	api.Get("/deals", svc.RequireGrant("deals", access.LevelReadOnly), func(c *fiber.Ctx) error {
		return c.SendString("deal list")
	})
}

func actorID(c *fiber.Ctx) string {
	if id, ok := c.Locals("profile_id").(string); ok {
		return id
	}
	return ""
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, access.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, access.ErrDuplicateName):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, access.ErrForbidden), errors.Is(err, access.ErrInUse):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, access.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
