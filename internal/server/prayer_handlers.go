package server

import (
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPrayers handles GET /api/prayers?status=OPEN
func (s *Server) GetPrayers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	status := models.PrayerStatus(strings.ToUpper(c.Query("status")))

	prayers, err := s.prayerService.ListPrayers(c.UserContext(), status, page.Limit, page.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(prayers)
}

// GetPrayer handles GET /api/prayers/:id
func (s *Server) GetPrayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	prayer, err := s.prayerService.GetPrayer(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(prayer)
}

// CreatePrayer handles POST /api/prayers
func (s *Server) CreatePrayer(c *fiber.Ctx) error {
	var req struct {
		Title        string `json:"title"`
		Body         string `json:"body"`
		GroupID      *uint  `json:"group_id,omitempty"`
		LinkedPostID *uint  `json:"linked_post_id,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	prayer, err := s.prayerService.CreatePrayer(c.UserContext(), service.CreatePrayerInput{
		UserID:       currentUserID(c),
		GroupID:      req.GroupID,
		LinkedPostID: req.LinkedPostID,
		Title:        req.Title,
		Body:         req.Body,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(prayer)
}

// UpdatePrayerStatus handles PUT /api/prayers/:id/status
func (s *Server) UpdatePrayerStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	prayer, err := s.prayerService.UpdateStatus(c.UserContext(), service.UpdatePrayerStatusInput{
		UserID:   currentUserID(c),
		PrayerID: id,
		Status:   models.PrayerStatus(strings.ToUpper(req.Status)),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(prayer)
}

// DeletePrayer handles DELETE /api/prayers/:id. The prayer is soft-deleted.
func (s *Server) DeletePrayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.prayerService.DeletePrayer(c.UserContext(), service.DeletePrayerInput{
		UserID:   currentUserID(c),
		PrayerID: id,
	}); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RestorePrayer handles POST /api/prayers/:id/restore
func (s *Server) RestorePrayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	prayer, err := s.prayerService.RestorePrayer(c.UserContext(), service.DeletePrayerInput{
		UserID:   currentUserID(c),
		PrayerID: id,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(prayer)
}

// CommitPrayer handles POST /api/prayers/:id/commits
func (s *Server) CommitPrayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Message string `json:"message"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	commit, err := s.prayerService.Commit(c.UserContext(), service.CommitPrayerInput{
		UserID:   currentUserID(c),
		PrayerID: id,
		Message:  req.Message,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(commit)
}

// GetPrayerCommits handles GET /api/prayers/:id/commits
func (s *Server) GetPrayerCommits(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commits, err := s.prayerService.ListCommits(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(commits)
}

// DeletePrayerCommit handles DELETE /api/prayer-commits/:id
func (s *Server) DeletePrayerCommit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.prayerService.DeleteCommit(c.UserContext(), service.DeleteCommitInput{
		UserID:   currentUserID(c),
		CommitID: id,
	}); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
