package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-activity/internal/domain"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, expires, err := tm.GenerateToken(42, domain.RoleSupervisor)
	require.NoError(t, err)
	assert.False(t, expires.IsZero())

	p, err := tm.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.Equal(t, domain.RoleSupervisor, p.Role)
}

func TestGenerateToken_ClaimsCarryOnlyIdentityAndRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(5, domain.RoleSupervisor)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	assert.Equal(t, "SUPERVISOR", claims["role"])
	assert.Equal(t, "5", claims["sub"])
	assert.NotContains(t, claims, "teams")
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("a", 5).GenerateToken(1, domain.RoleOperator)
	require.NoError(t, err)

	_, err = NewTokenManager("b", 5).ParseToken(token)
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "abc", "Basic abc", "Bearer  "} {
		_, err := BearerToken(h)
		assert.Error(t, err, h)
	}
}

func newTestApp(tm *TokenManager, roles ...domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
	}})
	mw := NewAuthMiddleware(tm)
	app.Get("/p", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"user": p.UserID})
	})
	return app
}

func TestMiddleware_RoleGate(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm, domain.RoleService)

	svc, _, err := tm.GenerateToken(1, domain.RoleService)
	require.NoError(t, err)
	op, _, err := tm.GenerateToken(2, domain.RoleOperator)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"service allowed", "Bearer " + svc, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"operator forbidden", "Bearer " + op, http.StatusForbidden},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireRole_ReportsDomainErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		var de *apperrors.DomainError
		require.ErrorAs(t, err, &de)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	app.Get("/anon", RequireAnyRole(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/op", func(c *fiber.Ctx) error {
		c.Locals(principalKey, &Principal{UserID: 2, Role: domain.RoleOperator})
		return c.Next()
	}, RequireRole(domain.RoleService), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/op", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
