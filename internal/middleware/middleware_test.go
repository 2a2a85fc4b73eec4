package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/utils"
)

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", append(handlers, func(c *fiber.Ctx) error {
		id, _ := GetCurrentUserID(c)
		return c.SendString(id.String())
	})...)
	return app
}

func request(t *testing.T, app *fiber.App, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	secret := "secret"
	userID := uuid.New()
	valid, err := utils.GenerateToken(secret, userID, "a@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := utils.GenerateToken(secret, userID, "", -time.Minute)
	foreign, _ := utils.GenerateToken("other", userID, "", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
	}

	app := newApp(AuthMiddleware(secret))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			if resp := request(t, app, headers); resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestOptionalAuthContinuesWithoutToken(t *testing.T) {
	app := newApp(OptionalAuth("secret"))
	if resp := request(t, app, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	hash, err := utils.HashSecret("s3cret")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		plain  string
		hash   string
		header string
		want   int
	}{
		{"plain match", "s3cret", "", "s3cret", http.StatusOK},
		{"hash match", "", hash, "s3cret", http.StatusOK},
		{"mismatch", "s3cret", "", "nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", "", http.StatusUnauthorized},
		{"not configured", "", "", "s3cret", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(AdminKeyMiddleware(tt.plain, tt.hash))
			headers := map[string]string{}
			if tt.header != "" {
				headers[AdminKeyHeader] = tt.header
			}
			if resp := request(t, app, headers); resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
