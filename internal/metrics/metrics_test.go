package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                    "/",
		"/":                   "/",
		"/api/cards":          "/api/cards",
		"/api/trades/42":      "/api/trades/:id",
		"/api/me/cards/7/":    "/api/me/cards/:id",
		"/api/admin/cards/13": "/api/admin/cards/:id",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(tradeEvents.WithLabelValues("created"))
	TradeCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(tradeEvents.WithLabelValues("created")))

	beforeAdded := testutil.ToFloat64(collectionEvents.WithLabelValues("added"))
	CardsAdded(3)
	assert.Equal(t, beforeAdded+3, testutil.ToFloat64(collectionEvents.WithLabelValues("added")))

	SetOpenTrades(5)
	assert.Equal(t, float64(5), testutil.ToFloat64(openTrades))
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/api/trades/:id", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/trades/:id", "204"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/trades/9", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/trades/:id", "204")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "cardswap_http_requests_total"))
}
