package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-router/internal/domain"
	"github.com/spec-kit/lead-router/internal/repository"
	apperrors "github.com/spec-kit/lead-router/pkg/util"
)

const principalKey = "auth_principal"

// WebhookSecretHeader carries the per-organization intake secret.
const WebhookSecretHeader = "X-Webhook-Secret"

// Principal represents the authenticated operator.
type Principal struct {
	OperatorID string
	Role       domain.OperatorRole
}

// AuthMiddleware validates bearer tokens on operator routes and webhook
// secrets on intake routes.
type AuthMiddleware struct {
	tokens *TokenManager
	orgs   repository.OrganizationRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, orgs repository.OrganizationRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, orgs: orgs}
}

// Handle enforces bearer-token authentication for operator routes.
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

	c.Locals(principalKey, &Principal{OperatorID: claims.OperatorID, Role: claims.Role})
	return c.Next()
}

// WebhookHandle authenticates intake requests against the organization's
// webhook secret. The organization id comes from the route parameter.
func (m *AuthMiddleware) WebhookHandle(c *fiber.Ctx) error {
	orgID := c.Params("orgId")
	if orgID == "" {
		return apperrors.NewValidationError("organization id required", nil)
	}

	secret := c.Get(WebhookSecretHeader)
	if secret == "" {
		return apperrors.NewUnauthorized("missing webhook secret")
	}

	org, err := m.orgs.GetByID(c.Context(), orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("organization", map[string]any{"organization_id": orgID})
		}
		return apperrors.MapError(err)
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(org.WebhookSecret)) != 1 {
		return apperrors.NewUnauthorized("invalid webhook secret")
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated operator.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
