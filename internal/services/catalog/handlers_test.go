package catalog

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/cardswap-api/internal/middleware"
	"github.com/rajivgeraev/cardswap-api/internal/models"
)

type listResponse struct {
	Cards []models.Card `json:"cards"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func newTestApp(t *testing.T, n int) *fiber.App {
	t.Helper()
	s, _ := newTestService(t, n)
	app := fiber.New()
	s.SetupRoutes(app, middleware.RequireAdminAPIKey("admin-key"))
	return app
}

func TestListCardsHandler(t *testing.T) {
	app := newTestApp(t, 150)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cards?page=2&limit=500", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body listResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 150, body.Total)
	assert.Equal(t, MaxLimit, body.Limit)
	assert.Len(t, body.Cards, 50)
	assert.Equal(t, int64(101), body.Cards[0].ID)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cards?page=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListCardsHandlerFilters(t *testing.T) {
	s, _ := newTestService(t, 3)
	_, err := s.CreateCard(context.Background(), CardInput{Name: "Fire Dragon", Rarity: models.RarityEpic, Set: "Promo Pack"})
	require.NoError(t, err)
	app := fiber.New()
	s.SetupRoutes(app, middleware.RequireAdminAPIKey("admin-key"))

	get := func(query url.Values) listResponse {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/cards?"+query.Encode(), nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var body listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	body := get(url.Values{"set": {"Promo Pack"}})
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Cards, 1)
	assert.Equal(t, "Fire Dragon", body.Cards[0].Name)

	body = get(url.Values{"set": {"Base"}, "q": {"card 2"}})
	assert.Equal(t, 1, body.Total)

	body = get(url.Values{"q": {"fd"}})
	assert.Zero(t, body.Total)
	assert.Empty(t, body.Cards)
}

func TestGetCardHandler(t *testing.T) {
	app := newTestApp(t, 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/cards/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cards/9", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cards/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdminCardRoutes(t *testing.T) {
	app := newTestApp(t, 0)
	payload := `{"name":"Shadow Dragon","rarity":"rare","set":"Mystic Legends"}`

	req := httptest.NewRequest("POST", "/api/admin/cards", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/admin/cards", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", "admin-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var card models.Card
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, models.RarityRare, card.Rarity)

	req = httptest.NewRequest("DELETE", "/api/admin/cards/1", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/cards/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
