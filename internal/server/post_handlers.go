package server

import (
	"leconn/internal/models"
	"leconn/internal/notifications"
	"leconn/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
// @Summary Create a post or reply
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{content=string,parent_id=int} true "Post content; parent_id makes it a reply"
// @Success 201 {object} models.FeedPost
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	post, err := s.postService.CreatePost(ctx, models.CreatePostInput{
		UserID:   currentUserID(c),
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(ctx, notifications.EventPostCreated, post)
	if post.ParentID != nil {
		s.publishReactionUpdate(ctx, *post.ParentID)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Newest first. Each item carries the aggregated like_count and the caller's is_liked.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "1..100, default 20"
// @Param user_id query int false "Only posts by this author"
// @Param before_id query int false "Only posts older than this id"
// @Success 200 {array} models.FeedPost
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	authorID, err := parseOptionalID(c, "user_id")
	if err != nil {
		return nil
	}
	beforeID, err := parseOptionalID(c, "before_id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		ViewerID: currentUserID(c),
		UserID:   authorID,
		BeforeID: beforeID,
		Limit:    limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	beforeID, err := parseOptionalID(c, "before_id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	if _, err := s.userService.GetUserByID(ctx, authorID); err != nil {
		return respondError(c, err)
	}
	posts, err := s.postService.ListPosts(ctx, service.ListPostsInput{
		ViewerID: currentUserID(c),
		UserID:   &authorID,
		BeforeID: beforeID,
		Limit:    limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetReplies handles GET /api/posts/:id/replies
func (s *Server) GetReplies(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	limit, err := parseLimit(c)
	if err != nil {
		return nil
	}
	replies, err := s.postService.ListReplies(c.UserContext(), id, currentUserID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(replies)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse "missing or not owned by the caller"
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	post, err := s.postService.DeletePost(ctx, service.DeletePostInput{UserID: currentUserID(c), PostID: id})
	if err != nil {
		return respondError(c, err)
	}

	s.publishBroadcastEvent(ctx, notifications.EventPostDeleted, notifications.PostDeletedPayload{
		PostID: post.ID,
		UserID: post.UserID,
	})
	if post.ParentID != nil {
		s.publishReactionUpdate(ctx, *post.ParentID)
	}
	return c.JSON(fiber.Map{"success": true})
}
