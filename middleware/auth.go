package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AsaielHummadi/Sustain/services/authz"
	"github.com/AsaielHummadi/Sustain/types"
)

const authContextKey = "auth"

// RequireAuth parses the Bearer token and stores the identity triple as an
// authz.Context in Locals. Every protected handler reads that context instead
// of touching claims directly.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Authorization header missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Invalid or expired token",
				Status:  fiber.StatusUnauthorized,
			})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Invalid token claims",
				Status:  fiber.StatusUnauthorized,
			})
		}

		userID, uOK := claims["user_id"].(float64)
		orgID, oOK := claims["organization_id"].(float64)
		roleID, rOK := claims["role_id"].(float64)
		if !uOK || !oOK || !rOK {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Invalid token claims",
				Status:  fiber.StatusUnauthorized,
			})
		}

		ctx := authz.Context{
			UserID:         uint(userID),
			OrganizationID: uint(orgID),
			RoleID:         int(roleID),
		}
		c.Locals(authContextKey, ctx)
		c.Locals("user_id", ctx.UserID)
		return c.Next()
	}
}

// RequireRoles allows the request through only when the caller holds one of
// the given roles. Must run after RequireAuth.
func RequireRoles(roleIDs ...int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, ok := c.Locals(authContextKey).(authz.Context)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Authentication required",
				Status:  fiber.StatusUnauthorized,
			})
		}
		for _, roleID := range roleIDs {
			if ctx.RoleID == roleID {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "You do not have permission to access this resource",
			Status:  fiber.StatusForbidden,
		})
	}
}

// AuthContext returns the identity stored by RequireAuth.
func AuthContext(c *fiber.Ctx) authz.Context {
	ctx, _ := c.Locals(authContextKey).(authz.Context)
	return ctx
}
