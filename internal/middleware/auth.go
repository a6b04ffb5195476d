// Package middleware provides HTTP middleware: authentication, rate limiting,
// request logging, tracing and metrics.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leconn/internal/models"
	"leconn/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token claims constants.
const (
	TokenIssuer   = "leconn-api"
	TokenAudience = "leconn-client"
	TokenTTL      = 7 * 24 * time.Hour
	WSTicketTTL   = 30 * time.Second
)

// LocalUserID is the fiber.Locals key holding the authenticated user id.
const LocalUserID = "userID"

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return uint(id), nil
}

// Auth issues and verifies access tokens. Redis is optional; without it
// revocation and websocket tickets are unavailable.
type Auth struct {
	secret []byte
	redis  *redis.Client
	now    func() time.Time
}

// NewAuth creates an Auth bound to the signing secret.
func NewAuth(secret string, rdb *redis.Client) *Auth {
	return &Auth{secret: []byte(secret), redis: rdb, now: time.Now}
}

// IssueToken signs a token for the user.
func (a *Auth) IssueToken(userID uint, username string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := a.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates signature, issuer, audience and expiry.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// Revoke blacklists the token id until the token would have expired.
func (a *Auth) Revoke(ctx context.Context, claims *Claims) error {
	if a.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return a.redis.Set(ctx, "blacklist:"+claims.ID, "1", ttl).Err()
}

// IssueWSTicket stores a single-use ticket for opening a websocket.
func (a *Auth) IssueWSTicket(ctx context.Context, userID uint) (string, error) {
	if a.redis == nil {
		return "", errors.New("websocket tickets require redis")
	}
	ticket := uuid.NewString()
	if err := a.redis.Set(ctx, wsTicketKey(ticket), strconv.FormatUint(uint64(userID), 10), WSTicketTTL).Err(); err != nil {
		return "", fmt.Errorf("store ws ticket: %w", err)
	}
	return ticket, nil
}

func wsTicketKey(ticket string) string {
	return "ws_ticket:" + ticket
}

func (a *Auth) redeemTicket(ctx context.Context, ticket string) (uint, bool) {
	if a.redis == nil {
		return 0, false
	}
	raw, err := a.redis.GetDel(ctx, wsTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (a *Auth) isRevoked(ctx context.Context, jti string) bool {
	if a.redis == nil || jti == "" {
		return false
	}
	n, err := a.redis.Exists(ctx, "blacklist:"+jti).Result()
	return err == nil && n > 0
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Authenticate resolves the caller from the bearer token.
func (a *Auth) Authenticate(c *fiber.Ctx) (*Claims, uint, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil, 0, models.NewUnauthorizedError("Authorization required")
	}
	claims, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, 0, models.NewUnauthorizedError("Invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, models.NewUnauthorizedError("Invalid user ID in token")
	}
	if a.isRevoked(c.UserContext(), claims.ID) {
		return nil, 0, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, userID, nil
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals(LocalUserID, userID)
	c.SetUserContext(observability.WithUserID(c.UserContext(), userID))
}

// Required rejects requests without a valid token. Websocket paths must
// present a ticket from IssueWSTicket instead.
func (a *Auth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/ws") && c.Query("ticket") != "" {
			userID, ok := a.redeemTicket(c.UserContext(), c.Query("ticket"))
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			setUser(c, userID)
			return c.Next()
		}

		claims, userID, err := a.Authenticate(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		c.Locals("claims", claims)
		setUser(c, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by Required.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// ClaimsFrom returns the claims stored by Required.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals("claims").(*Claims)
	return claims, ok
}
