package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newApp(t *testing.T) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/ws", RequireUpgrade(), func(c *fiber.Ctx) error { return c.SendString("upgraded") })
	return app, logs
}

func TestRequestLoggerLogsStatus(t *testing.T) {
	app, logs := newApp(t)

	for path, want := range map[string]int{"/ok": fiber.StatusOK, "/missing": fiber.StatusNotFound} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != want {
			t.Errorf("%s: status = %d, want %d", path, resp.StatusCode, want)
		}
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Errorf("%s: missing request id header", path)
		}

		entries := logs.FilterField(zap.String("path", path)).All()
		if len(entries) != 1 {
			t.Fatalf("%s: %d log entries, want 1", path, len(entries))
		}
		if got := entries[0].ContextMap()["status"]; got != int64(want) {
			t.Errorf("%s: logged status %v, want %d", path, got, want)
		}
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	app, _ := newApp(t)

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestRequireUpgradeRejectsPlainRequests(t *testing.T) {
	app, _ := newApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}
