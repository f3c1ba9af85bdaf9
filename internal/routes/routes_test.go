package routes

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperwallet/hyperwallet/internal/config"
	"github.com/hyperwallet/hyperwallet/internal/logging"
)

const testAdminToken = "operator-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash admin token: %v", err)
	}
	cfg := config.Config{
		AppEnv:         "dev",
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		AdminTokenHash: string(hash),
		BlockInterval:  time.Second,
		GenesisTime:    time.Unix(0, 0).UTC(),
		RelayStream:    "relay:actions",
	}
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func TestTokenIssuanceRequiresAdminToken(t *testing.T) {
	app := newTestApp(t)
	body := `{"address":"0x00000000000000000000000000000000000000bb"}`

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/admin/auth/token", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous issuance: expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}

	req = httptest.NewRequest(fiber.MethodPost, "/api/v1/admin/auth/token", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", "not-the-operator")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong admin token: expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}

	// The old public path must not exist.
	req = httptest.NewRequest(fiber.MethodPost, "/api/v1/auth/token", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == fiber.StatusOK {
		t.Fatal("token issuance reachable without admin credentials")
	}
}

func TestAdminIssuedTokenAuthenticatesCaller(t *testing.T) {
	app := newTestApp(t)
	body := `{"address":"0x00000000000000000000000000000000000000bb"}`

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/admin/auth/token", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Admin-Token", testAdminToken)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("issue token: expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	resp.Body.Close()
	if token.AccessToken == "" {
		t.Fatal("empty access token")
	}

	// The minted bearer passes caller auth on a protected route.
	req = httptest.NewRequest(fiber.MethodPost, "/api/v1/wallets", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token.AccessToken)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create wallet: expected %d got %d", fiber.StatusCreated, resp.StatusCode)
	}

	// Without a bearer the same route stays closed.
	req = httptest.NewRequest(fiber.MethodPost, "/api/v1/wallets", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("create wallet unauthenticated: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("unauthenticated create: expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}
