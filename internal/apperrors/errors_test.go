package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NotFound("карта не найдена")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "карта не найдена", err.Error())

	wrapped := fmt.Errorf("create trade: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("x"), fiber.StatusNotFound},
		{"forbidden", Forbidden("x"), fiber.StatusForbidden},
		{"invalid trade", InvalidTrade("x"), fiber.StatusBadRequest},
		{"invalid argument", InvalidArgument("x"), fiber.StatusBadRequest},
		{"conflict", Conflict("x"), fiber.StatusConflict},
		{"unauthorized", Unauthorized("x"), fiber.StatusUnauthorized},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "slow down"), fiber.StatusTooManyRequests},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "conflict", ErrConflict.Error())
}

func TestRespondHidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/forbidden", func(c fiber.Ctx) error {
		return Respond(c, Forbidden("чужой обмен"))
	})
	app.Get("/internal", func(c fiber.Ctx) error {
		return Respond(c, errors.New("pq: connection refused"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/forbidden", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "чужой обмен", body["error"])

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body["error"], "pq")
}
