package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/store/memory"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

func newAuthApp(t *testing.T) (*fiber.App, *utils.JWTService, int64) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "x", Name: "Alice"}
	require.NoError(t, st.Update(ctx, func(tx store.Tx) error { return tx.CreateUser(ctx, u) }))

	jwtService := utils.NewJWTService("secret", time.Hour)
	auth := AuthMiddleware(jwtService, st)

	app := fiber.New()
	grp := app.Group("/private")
	grp.Use(auth)
	grp.Use(auth)
	grp.Get("/", func(c fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(fiber.Map{"id": id})
	})
	return app, jwtService, u.ID
}

func status(t *testing.T, app *fiber.App, method, path string, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app, jwtService, userID := newAuthApp(t)

	valid, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)
	ghost, err := jwtService.GenerateToken(userID + 100)
	require.NoError(t, err)
	foreign, err := utils.NewJWTService("other", time.Hour).GenerateToken(userID)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		want   int
	}{
		"missing header":    {"", fiber.StatusUnauthorized},
		"not bearer":        {"Token " + valid, fiber.StatusUnauthorized},
		"garbage token":     {"Bearer abc.def.ghi", fiber.StatusUnauthorized},
		"foreign signature": {"Bearer " + foreign, fiber.StatusUnauthorized},
		"deleted user":      {"Bearer " + ghost, fiber.StatusUnauthorized},
		"valid":             {"Bearer " + valid, fiber.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			headers := map[string]string{}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			assert.Equal(t, tc.want, status(t, app, "GET", "/private", headers))
		})
	}
}

func TestWritesOnly(t *testing.T) {
	deny := func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusUnauthorized) }

	app := fiber.New()
	grp := app.Group("/items")
	grp.Use(WritesOnly(deny))
	grp.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	grp.Post("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	grp.Delete("/:id", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/items", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "POST", "/items", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "DELETE", "/items/1", nil))
}

func TestRequireAdminAPIKey(t *testing.T) {
	newApp := func(key string) *fiber.App {
		app := fiber.New()
		grp := app.Group("/admin")
		grp.Use(RequireAdminAPIKey(key))
		grp.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
		return app
	}

	app := newApp("top-secret")
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "GET", "/admin", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "GET", "/admin", map[string]string{"X-Admin-Key": "nope"}))
	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/admin", map[string]string{"X-Admin-Key": "top-secret"}))

	disabled := newApp("  ")
	assert.Equal(t, fiber.StatusServiceUnavailable, status(t, disabled, "GET", "/admin", map[string]string{"X-Admin-Key": ""}))
}

func TestRateLimitWriteSkipsReads(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimitWrite())
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, status(t, app, "GET", "/", nil))
	}
	for i := 0; i < 100; i++ {
		status(t, app, "HEAD", "/", nil)
		status(t, app, "OPTIONS", "/", nil)
	}

	for i := 0; i < 60; i++ {
		require.Equal(t, fiber.StatusOK, status(t, app, "POST", "/", nil))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "POST", "/", nil))
}
