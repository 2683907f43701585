package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", JWTMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	app.Get("/open", OptionalJWTMiddleware(secret), func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"user_id": userID})
	})
	return app
}

func TestJWTMiddlewareMissingToken(t *testing.T) {
	app := protectedApp("secret")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401")
	}
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	svc := NewService("secret", nil)
	token, err := svc.signToken("u1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	app := protectedApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200")
	}
}

func TestJWTMiddlewareWrongSecret(t *testing.T) {
	svc := NewService("other-secret", nil)
	token, _ := svc.signToken("u1", time.Minute)

	app := protectedApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret")
	}
}

func TestOptionalMiddlewareAnonymous(t *testing.T) {
	app := protectedApp("secret")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected anonymous pass-through")
	}
}

func TestOptionalMiddlewareBadTokenIgnored(t *testing.T) {
	app := protectedApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected pass-through with invalid token")
	}
}

func TestBearerFromHeader(t *testing.T) {
	if bearerFromHeader("Bearer abc") != "abc" {
		t.Fatalf("expected token")
	}
	if bearerFromHeader("bearer abc") != "abc" {
		t.Fatalf("expected case-insensitive scheme")
	}
	if bearerFromHeader("Basic abc") != "" {
		t.Fatalf("expected empty for non-bearer")
	}
	if bearerFromHeader("") != "" {
		t.Fatalf("expected empty for missing header")
	}
}
