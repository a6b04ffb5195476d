package server

import (
	"leconn/internal/middleware"
	"leconn/internal/models"
	"leconn/internal/service"

	"github.com/gofiber/fiber/v2"
)

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// session answers a successful signup or login with a fresh token.
func (s *Server) session(c *fiber.Ctx, status int, user *models.User) error {
	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(authResponse{Token: token, User: user})
}

// Signup creates an account and signs it in.
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,name=string,email=string,password=string} true "New account"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "username or email taken"
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var in service.SignupInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return respondError(c, models.NewValidationError("username, email and password are required"))
	}

	user, err := s.userService.Signup(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return s.session(c, fiber.StatusCreated, user)
}

// Login exchanges email and password for a token.
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	user, err := s.userService.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.session(c, fiber.StatusOK, user)
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return respondError(c, models.NewUnauthorizedError("Authorization required"))
	}
	if err := s.auth.Revoke(c.UserContext(), claims); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetMe handles GET /api/auth/me and returns the caller's private profile.
func (s *Server) GetMe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	profile, err := s.userService.GetProfile(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.PrivateUser{Profile: *profile, Email: user.Email, IsAdmin: user.IsAdmin})
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue websocket ticket
// @Description Returns a single-use ticket valid for a short time, passed as ?ticket= to /api/ws
// @Tags realtime
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	ticket, err := s.auth.IssueWSTicket(c.UserContext(), currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Realtime updates are unavailable",
			Code:  models.CodeInternal,
		})
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(middleware.WSTicketTTL.Seconds()),
	})
}
