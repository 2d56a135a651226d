package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })
	return app
}

func decodeError(t *testing.T, app *fiber.App) (int, ErrorResponse) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandler_FiberErrorKeepsStatus(t *testing.T) {
	status, body := decodeError(t, errorApp(fiber.NewError(fiber.StatusForbidden, "sede is outside your scope")))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.False(t, body.Success)
	assert.Equal(t, "sede is outside your scope", body.Message)
	assert.Equal(t, "FORBIDDEN", body.ErrorCode)
}

func TestErrorHandler_PlainErrorIsHidden(t *testing.T) {
	status, body := decodeError(t, errorApp(errors.New("pq: connection refused")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Message)
}
