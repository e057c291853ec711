// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"fellowship/internal/config"
	"fellowship/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingHeader  = errors.New("authorization header required")
	errHeaderFormat   = errors.New("invalid authorization header format")
	errInvalidToken   = errors.New("invalid or expired token")
	errMissingSubject = errors.New("invalid token structure - missing subject")
	errInvalidSubject = errors.New("invalid user ID in token")
)

// userIDFromHeader verifies a "Bearer <token>" header and returns the uint
// user id carried in the sub claim. Tokens are issued elsewhere.
func userIDFromHeader(header, secret string) (uint, error) {
	if header == "" {
		return 0, errMissingHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, errHeaderFormat
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errMissingSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errInvalidSubject
	}
	return uint(userID), nil
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	userID, err := userIDFromHeader(c.Get("Authorization"), cfg.JWTSecret)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(err.Error()))
	}

	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return c.Next()
}

// AdminChecker reports whether a user holds the admin role.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

// AdminRequired rejects authenticated users that are not admins. It must run
// after AuthRequired.
func AdminRequired(isAdmin AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("authentication required"))
		}
		admin, err := isAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewForbiddenError("admin access required"))
		}
		return c.Next()
	}
}
