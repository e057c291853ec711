package server

import (
	"strings"

	"fellowship/internal/consistency"
	"fellowship/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserXp handles GET /api/users/:id/xp
func (s *Server) GetUserXp(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	totals, err := s.xpService.Totals(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(totals)
}

// GetMyXp handles GET /api/me/xp
func (s *Server) GetMyXp(c *fiber.Ctx) error {
	totals, err := s.xpService.Totals(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(totals)
}

// GetMyXpEvents handles GET /api/me/xp/events
func (s *Server) GetMyXpEvents(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	events, err := s.xpService.Events(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(events)
}

// RecordXpEvent handles POST /api/admin/xp/events
func (s *Server) RecordXpEvent(c *fiber.Ctx) error {
	var req struct {
		UserID   uint    `json:"user_id"`
		Fruit    string  `json:"fruit"`
		Amount   int64   `json:"amount"`
		Reason   string  `json:"reason"`
		Metadata *string `json:"metadata,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ev, err := s.xpService.RecordEvent(c.UserContext(), consistency.XpEventInput{
		UserID:   req.UserID,
		Fruit:    models.Fruit(strings.ToLower(req.Fruit)),
		Amount:   req.Amount,
		Reason:   req.Reason,
		Metadata: req.Metadata,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}
