package server

import (
	"leconn/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
// @Summary Like, unlike or toggle a post
// @Description With {"action":"like"|"unlike"} the like row is inserted or removed idempotently. Without an action the current state is toggled.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{action=string} false "Intended final state"
// @Success 200 {object} models.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Action string `json:"action"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	state, err := s.likeService.Apply(ctx, currentUserID(c), postID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	if state.Changed {
		s.publishReactionUpdate(ctx, postID)
	}
	return c.JSON(state)
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	state, err := s.likeService.SetLike(ctx, currentUserID(c), postID, models.LikeActionUnlike)
	if err != nil {
		return respondError(c, err)
	}
	if state.Changed {
		s.publishReactionUpdate(ctx, postID)
	}
	return c.JSON(state)
}

// RepostPost handles POST /api/posts/:id/repost
func (s *Server) RepostPost(c *fiber.Ctx) error {
	return s.setRepost(c, true)
}

// UnrepostPost handles DELETE /api/posts/:id/repost
func (s *Server) UnrepostPost(c *fiber.Ctx) error {
	return s.setRepost(c, false)
}

func (s *Server) setRepost(c *fiber.Ctx, reposted bool) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	state, err := s.repostService.SetRepost(ctx, currentUserID(c), postID, reposted)
	if err != nil {
		return respondError(c, err)
	}
	if state.Changed {
		s.publishReactionUpdate(ctx, postID)
	}
	return c.JSON(state)
}
