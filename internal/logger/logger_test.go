package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	Initialize("info")
	SetOutput(buf)
	return buf
}

func TestSetLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"chatty", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			captureOutput(t)
			SetLevel(tt.in)
			assert.Equal(t, tt.want, Level())
		})
	}
}

func TestWithFields(t *testing.T) {
	buf := captureOutput(t)

	InfoWithFields("generated", map[string]interface{}{"template_id": "t1", "count": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "generated", entry["msg"])
	assert.Equal(t, "t1", entry["template_id"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "info", entry["level"])
}

func TestAPILogger(t *testing.T) {
	buf := captureOutput(t)

	app := fiber.New()
	app.Use(APILogger())
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}).Name("ok")
	app.Get("/boom", func(_ *fiber.Ctx) error {
		return errors.New("boom")
	}).Name("boom")

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Request", entry["msg"])
	assert.Equal(t, "ok", entry["route"])
	assert.Equal(t, float64(fiber.StatusNoContent), entry["status"])
	assert.Equal(t, "GET", entry["method"])

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}
