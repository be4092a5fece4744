package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gramv/onboardingsoftware/internal/utils"
)

const testSecret = "test-secret"

// newLocalsEchoApp chains the cookie auth exactly as the router does and
// echoes back the identity the middleware attached.
func newLocalsEchoApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami",
		JWTFromCookie(testSecret),
		AttachJWTLocals(),
		func(c *fiber.Ctx) error {
			id, _ := c.Locals("userId").(string)
			return c.SendString(id)
		},
	)
	return app
}

func TestJWTFromCookieRejectsMissingCookie(t *testing.T) {
	app := newLocalsEchoApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestJWTFromCookieRejectsForgedToken(t *testing.T) {
	app := newLocalsEchoApp()

	forged, err := utils.SignJWT("wrong-secret", uuid.New().String(), "hr_admin", uuid.New().String(), 60)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", CookieName+"="+forged)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestIdentityComesFromClaimsNotQuery(t *testing.T) {
	app := newLocalsEchoApp()

	realID := uuid.New()
	token, err := utils.SignJWT(testSecret, realID.String(), "employee", uuid.New().String(), 60)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	// a client claiming to be someone else via the query string
	victimID := uuid.New()
	req := httptest.NewRequest("GET", "/whoami?user_id="+victimID.String(), nil)
	req.Header.Set("Cookie", CookieName+"="+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != realID.String() {
		t.Fatalf("identity = %q, want the token subject %q", body, realID)
	}
	if string(body) == victimID.String() {
		t.Fatal("query-supplied identity was honored")
	}
}
