package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
)

func TestRequestLogger_NivelSegunEstado(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(apphttp.RequestLogger(zerolog.New(&buf)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "/ok", first["path"])
	assert.NotEmpty(t, first["request_id"])
	assert.Equal(t, "warn", second["level"])
	assert.EqualValues(t, 404, second["status"])
}
