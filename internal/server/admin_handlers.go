package server

import (
	"fellowship/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPolicies handles GET /api/admin/policies
func (s *Server) GetPolicies(c *fiber.Ctx) error {
	return c.JSON(s.adminService.Policies())
}

// DeleteEntity handles DELETE /api/admin/entities/:kind/:id. The entity is
// hard-deleted and its delete policies applied; a RESTRICT dependency
// answers 409.
func (s *Server) DeleteEntity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	kind := models.EntityKind(c.Params("kind"))
	if err := s.adminService.DeleteOwner(c.UserContext(), currentUserID(c), kind, id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecomputeXp handles POST /api/admin/xp/recompute/:id
func (s *Server) RecomputeXp(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	totals, err := s.adminService.RecomputeXp(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(totals)
}

// RecomputeAllXp handles POST /api/admin/xp/recompute
func (s *Server) RecomputeAllXp(c *fiber.Ctx) error {
	n, err := s.adminService.RecomputeAllXp(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"users": n})
}

// RecountPost handles POST /api/admin/posts/:id/recount
func (s *Server) RecountPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.adminService.RecountPost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// RecountPrayer handles POST /api/admin/prayers/:id/recount
func (s *Server) RecountPrayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	prayer, err := s.adminService.RecountPrayer(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(prayer)
}

// GetAdmins handles GET /api/admin/admins
func (s *Server) GetAdmins(c *fiber.Ctx) error {
	admins, err := s.adminService.ListAdmins(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(admins)
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote-admin
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, true)
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote-admin
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdmin(c, false)
}

func (s *Server) setAdmin(c *fiber.Ctx, admin bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.adminService.SetAdmin(c.UserContext(), currentUserID(c), id, admin)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}
