package access

import (
	"github.com/gofiber/fiber/v2"
)

// RequireGrant provides Fiber middleware gating a route on the principal
// holding any grant for (object, level). Scope enforcement against concrete
// records happens in handlers via Decide; this gate only rejects principals
// with no grant at all.
func (s *Service) RequireGrant(object string, level Level) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileID, ok := c.Locals("profile_id").(string)
		if !ok || profileID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "profile_id not found in context")
		}

		principal, err := s.PrincipalForProfile(c.Context(), profileID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown principal")
		}

		granted, err := s.HasGrant(c.Context(), principal, object, level)
		if err != nil {
			s.log.Errorw("grant check failed", "profile", profileID, "object", object, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "grant check failed")
		}
		if !granted {
			s.audit(c.Context(), profileID, "middleware_check", object+":"+string(level), false)
			return fiber.NewError(fiber.StatusForbidden, ErrAccessDenied.Error())
		}

		c.Locals("principal", principal)
		return c.Next()
	}
}
