package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const secret = "test-secret"

func token(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(secret), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c) + "|" + UserRole(c) + "|" + UserEmail(c))
	})
	app.Get("/admin", AuthMiddleware(secret), OnlyRoles("", RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, bearer string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthMiddlewareClaims(t *testing.T) {
	app := newApp()
	exp := time.Now().Add(time.Hour).Unix()

	code, body := get(t, app, "/me", token(t, secret, jwt.MapClaims{
		"sub": "user-1", "role": "Coach", "email": " Coach@Academy.test ", "exp": exp,
	}))
	if code != fiber.StatusOK || body != "user-1|coach|coach@academy.test" {
		t.Fatalf("status=%d body=%q", code, body)
	}

	// no role claim = parent
	code, body = get(t, app, "/me", token(t, secret, jwt.MapClaims{"id": "user-2", "exp": exp}))
	if code != fiber.StatusOK || body != "user-2|parent|" {
		t.Fatalf("status=%d body=%q", code, body)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	app := newApp()
	exp := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"missing":   "",
		"bad key":   token(t, "other", jwt.MapClaims{"sub": "u", "exp": exp}),
		"expired":   token(t, secret, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no exp":    token(t, secret, jwt.MapClaims{"sub": "u"}),
		"no userid": token(t, secret, jwt.MapClaims{"exp": exp}),
	}
	for name, tok := range cases {
		if code, _ := get(t, app, "/me", tok); code != fiber.StatusUnauthorized {
			t.Errorf("%s: status=%d, want 401", name, code)
		}
	}
}

func TestOnlyRoles(t *testing.T) {
	app := newApp()
	exp := time.Now().Add(time.Hour).Unix()

	if code, _ := get(t, app, "/admin", token(t, secret, jwt.MapClaims{"sub": "u", "role": "parent", "exp": exp})); code != fiber.StatusForbidden {
		t.Fatalf("parent on admin route: status=%d", code)
	}
	if code, _ := get(t, app, "/admin", token(t, secret, jwt.MapClaims{"sub": "u", "role": "admin", "exp": exp})); code != fiber.StatusOK {
		t.Fatalf("admin: status=%d", code)
	}
}
