package server

import (
	"fellowship/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured and stored feature flags and their
// evaluated state for the current user. Stored values win over config.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	flags, err := s.flagStore.Manager(c.UserContext(), s.featureFlags)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{
		"raw":       flags.Raw(),
		"evaluated": flags.Snapshot(userID),
	})
}

// GetStoredFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetStoredFeatureFlags(c *fiber.Ctx) error {
	flags, err := s.adminService.ListFlags(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(flags)
}

// PutFeatureFlag handles PUT /api/admin/feature-flags/:key
func (s *Server) PutFeatureFlag(c *fiber.Ctx) error {
	key := c.Params("key")
	var req struct {
		Value string `json:"value"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.adminService.SetFlag(c.UserContext(), currentUserID(c), key, req.Value); err != nil {
		return respond(c, err)
	}
	value, err := s.adminService.GetFlag(c.UserContext(), key)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"key": key, "value": value})
}

// DeleteFeatureFlag handles DELETE /api/admin/feature-flags/:key
func (s *Server) DeleteFeatureFlag(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Flag key is required"))
	}
	if err := s.adminService.DeleteFlag(c.UserContext(), currentUserID(c), key); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
