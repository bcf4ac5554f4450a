package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated panel caller.
type Principal struct {
	Staff domain.StaffMember
}

// StaffChecker decides whether a chat user may use the panel.
type StaffChecker interface {
	IsStaff(ctx context.Context, userID string) (bool, error)
}

// AuthMiddleware validates bearer tokens and re-checks the staff role.
type AuthMiddleware struct {
	tokens *TokenManager
	staff  StaffChecker
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, staff StaffChecker) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	isStaff, err := m.staff.IsStaff(c.UserContext(), claims.Subject)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !isStaff {
		return apperrors.NewForbidden("staff role required")
	}

	c.Locals(principalKey, &Principal{Staff: claims.StaffMember()})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
