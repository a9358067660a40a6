package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openlearn-vn/openlearn-api/internal/models"
)

func setRole(role interface{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func requestStatus(t *testing.T, app *fiber.App, path string) int {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	return resp.StatusCode
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", setRole(models.RoleAdmin), RequireRole(models.RoleAdmin, models.RoleManager), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusOK, requestStatus(t, app, "/admin"))
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", setRole(models.RoleStudent), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusForbidden, requestStatus(t, app, "/admin"))
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", setRole(nil), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusForbidden, requestStatus(t, app, "/admin"))
}

func TestRequireRoleIgnoresNonRoleLocal(t *testing.T) {
	app := fiber.New()
	// A raw string in the slot must not pass the typed role check.
	app.Get("/admin", setRole("admin"), RequireRole(models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusForbidden, requestStatus(t, app, "/admin"))
}

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func TestJWTProtectedStoresTypedRole(t *testing.T) {
	const secret = "test-secret"

	var seen models.Role
	app := fiber.New()
	app.Get("/whoami", JWTProtected(secret), func(c *fiber.Ctx) error {
		seen = RoleFromContext(c)
		return c.SendStatus(fiber.StatusOK)
	})

	token := signedToken(t, secret, jwt.MapClaims{
		"sub":  float64(42),
		"role": "teacher",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, models.RoleTeacher, seen)
}

func TestJWTProtectedRejectsUnsignedRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/whoami", JWTProtected("test-secret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	require.Equal(t, fiber.StatusUnauthorized, requestStatus(t, app, "/whoami"))
}

func TestJWTProtectedRejectsWrongSecret(t *testing.T) {
	app := fiber.New()
	app.Get("/whoami", JWTProtected("right-secret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token := signedToken(t, "wrong-secret", jwt.MapClaims{"sub": float64(1), "role": "student"})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
