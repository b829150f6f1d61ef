package v1_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/stape-io/awin-conversion-api-tag/api/v1"
	"github.com/stape-io/awin-conversion-api-tag/internal/audit"
	"github.com/stape-io/awin-conversion-api-tag/internal/awin"
	"github.com/stape-io/awin-conversion-api-tag/internal/config"
	"github.com/stape-io/awin-conversion-api-tag/internal/pipeline"
	"github.com/stape-io/awin-conversion-api-tag/internal/testsupport"
)

func newTestApp(t *testing.T, cfg *config.Config, upstreamStatus int) *fiber.App {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(upstreamStatus)
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	logger := testsupport.Logger()
	auditLogger := audit.NewLogger(&testsupport.CaptureSink{}, nil, false)
	p := pipeline.New(awin.NewClientWithBaseURL(server.URL), auditLogger, logger, cfg.ContainerID)

	app := fiber.New()
	app.Post("/api/v1/events", v1.TrackEventHandler(cfg, p, logger))
	return app
}

func postEvent(t *testing.T, app *fiber.App, body string, cookies map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestPageViewSetsClickIDCookie(t *testing.T) {
	app := newTestApp(t, testsupport.TestConfig(), http.StatusOK)

	resp := postEvent(t, app, `{
		"type": "pageView",
		"event": {"page_location": "https://shop.example.com/landing?awc=ABC123"}
	}`, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "awin_awc", cookies[0].Name)
	assert.Equal(t, "ABC123", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].Secure)
}

func TestConversionAcceptedWithPersistedClickID(t *testing.T) {
	app := newTestApp(t, testsupport.TestConfig(), http.StatusOK)

	resp := postEvent(t, app, `{
		"type": "conversion",
		"event": {"transaction_id": "R42", "value": 99.9, "currency": "EUR"}
	}`, map[string]string{"awin_awc": "ABC123"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Event accepted", body["message"])
}

func TestConversionRejectedWithoutAttribution(t *testing.T) {
	app := newTestApp(t, testsupport.TestConfig(), http.StatusOK)

	resp := postEvent(t, app, `{
		"type": "conversion",
		"event": {"transaction_id": "R42", "value": 99.9, "currency": "EUR"}
	}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "EVENT_REJECTED", body["code"])
}

func TestConversionMapsUpstreamRejectionToBadGateway(t *testing.T) {
	app := newTestApp(t, testsupport.TestConfig(), http.StatusBadRequest)

	resp := postEvent(t, app, `{
		"type": "conversion",
		"event": {"transaction_id": "R42", "value": 99.9, "currency": "EUR"}
	}`, map[string]string{"awin_awc": "ABC123"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "UPSTREAM_FAILED", body["code"])
}

func TestMalformedEnvelopeRejected(t *testing.T) {
	app := newTestApp(t, testsupport.TestConfig(), http.StatusOK)

	for name, body := range map[string]string{
		"not json":     `{"type": "pageView"`,
		"unknown type": `{"type": "install", "event": {}}`,
		"missing type": `{"event": {}}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := postEvent(t, app, body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestConfigOverridesApplyPerRequest(t *testing.T) {
	cfg := testsupport.TestConfig()
	app := newTestApp(t, cfg, http.StatusOK)

	// The static config has consent detection off; the override enables
	// manual mode with a declined value, which blocks the cookie writes.
	resp := postEvent(t, app, `{
		"type": "pageView",
		"event": {"page_location": "https://shop.example.com/?awc=ABC123"},
		"config": {"cookieConsentDetection": "manual", "cookieConsentManualValue": "false"}
	}`, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}

func TestTraceIDHeaderIsHonored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sink := &testsupport.CaptureSink{}
	cfg := testsupport.TestConfig()
	cfg.Tag.LogType = "always"
	logger := testsupport.Logger()
	p := pipeline.New(awin.NewClientWithBaseURL(server.URL),
		audit.NewLogger(sink, nil, false), logger, cfg.ContainerID)

	app := fiber.New()
	app.Post("/api/v1/events", v1.TrackEventHandler(cfg, p, logger))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{
		"type": "conversion",
		"event": {"transaction_id": "R1", "value": 10, "currency": "USD"}
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trace-id", "client-trace-7")
	req.AddCookie(&http.Cookie{Name: "awin_awc", Value: "ABC123"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "client-trace-7", sink.Last(t).TraceID)
}
