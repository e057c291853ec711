package server

import (
	"strings"

	"fellowship/internal/models"
	"fellowship/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?user_id=&group_id=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	in := service.ListPostsInput{Limit: page.Limit, Offset: page.Offset}
	if v := c.QueryInt("user_id", 0); v > 0 {
		id := uint(v)
		in.UserID = &id
	}
	if v := c.QueryInt("group_id", 0); v > 0 {
		id := uint(v)
		in.GroupID = &id
	}

	posts, err := s.postService.ListPosts(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		GroupID *uint  `json:"group_id,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  currentUserID(c),
		GroupID: req.GroupID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. The post is soft-deleted.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	}); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RestorePost handles POST /api/posts/:id/restore
func (s *Server) RestorePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.RestorePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// AddReaction handles POST /api/posts/:id/reactions
func (s *Server) AddReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Type string `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.AddReaction(c.UserContext(), service.ReactionInput{
		UserID: currentUserID(c),
		PostID: id,
		Type:   models.ReactionType(strings.ToUpper(req.Type)),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// RemoveReaction handles DELETE /api/posts/:id/reactions/:type
func (s *Server) RemoveReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.RemoveReaction(c.UserContext(), service.ReactionInput{
		UserID: currentUserID(c),
		PostID: id,
		Type:   models.ReactionType(strings.ToUpper(c.Params("type"))),
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// GetReactionCounts handles GET /api/posts/:id/reactions
func (s *Server) GetReactionCounts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, err := s.postService.ReactionCounts(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(counts)
}
