package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/news"
	"github.com/i474232898/travel-context/internal/scheduler"
	"github.com/i474232898/travel-context/internal/store"
	"github.com/i474232898/travel-context/internal/suggest"
	"github.com/i474232898/travel-context/internal/weather"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// rainProvider reports daytime rain everywhere except on the equator, where
// it fails.
type rainProvider struct{ down bool }

func (rainProvider) Name() string { return "stub" }

func (p rainProvider) Fetch(ctx context.Context, c geo.Coordinates) (weather.Reading, error) {
	if p.down || c.Latitude == 0 {
		return weather.Reading{}, errors.New("upstream down")
	}
	temp, code, day := 17.0, 61, true
	return weather.Reading{ProviderName: "stub", TemperatureC: &temp, WeatherCode: &code, IsDay: &day}, nil
}

type stubBridge struct{ fail bool }

func (b *stubBridge) Entries(ctx context.Context, src news.FeedSource) ([]news.RawEntry, error) {
	if b.fail {
		return nil, errors.New("feed down")
	}
	return []news.RawEntry{{Title: "Phewa boats return", Link: "https://news.example.com/phewa"}}, nil
}

type testEnv struct {
	app    *fiber.App
	svc    Services
	bridge *stubBridge
}

func newTestEnv(t *testing.T, provider weather.Provider) *testEnv {
	t.Helper()

	geoSvc := geo.NewService(nil, nil, nil, geo.Options{Logger: quiet})
	weatherSvc := weather.NewService([]weather.Provider{provider}, weather.WithLogger(quiet))
	engine := suggest.NewEngine(suggest.WithRand(rand.New(rand.NewPCG(1, 2))))
	sched := scheduler.New(geoSvc, weatherSvc, engine, store.NewMemoryStore(), time.Hour, quiet)
	bridge := &stubBridge{}
	panel := news.NewPanel(news.NewResolver([]news.FeedSource{{Name: "stub", URL: "https://news.example.com/rss"}}, bridge, "", 0, quiet))

	svc := Services{Geo: geoSvc, Weather: weatherSvc, Suggest: engine, Scheduler: sched, News: panel}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc)
	return &testEnv{app: app, svc: svc, bridge: bridge}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestLocationUsesReportedCoordinates(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	resp, body := env.do(t, http.MethodGet, "/api/v1/location?lat=27.7172&lon=85.324", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["source"] != string(geo.SourceDevice) || body["displayName"] != "27.7172, 85.3240" {
		t.Fatalf("unexpected label %v", body)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/location", "")
	if body["source"] != string(geo.SourceFallback) || body["displayName"] != "Pokhara, Nepal" {
		t.Fatalf("expected fallback label, got %v", body)
	}
}

func TestCoordinateValidation(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	for _, target := range []string{
		"/api/v1/location?lat=95&lon=10",
		"/api/v1/location?lat=10",
		"/api/v1/weather/current?lat=abc&lon=10",
		"/api/v1/suggestion?lon=200&lat=1",
	} {
		resp, body := env.do(t, http.MethodGet, target, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
		}
		if body["error"] != true {
			t.Errorf("%s: expected error envelope, got %v", target, body)
		}
	}
}

func TestCurrentWeather(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	resp, body := env.do(t, http.MethodGet, "/api/v1/weather/current?lat=28.2&lon=83.98", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	snap := body["snapshot"].(map[string]any)
	if snap["weatherCode"].(float64) != 61 {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	class := body["classification"].(map[string]any)
	if class["category"] != string(weather.CategoryRain) {
		t.Fatalf("unexpected classification %v", class)
	}
}

func TestCurrentWeatherUnavailable(t *testing.T) {
	env := newTestEnv(t, rainProvider{down: true})

	resp, body := env.do(t, http.MethodGet, "/api/v1/weather/current", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if body["message"] != "Unavailable" {
		t.Fatalf("unexpected body %v", body)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/v1/suggestion", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for suggestion, got %d", resp.StatusCode)
	}
}

func TestBatchWeatherDropsFailures(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	payload := `{"locations":[
		{"name":"Pokhara","lat":28.2,"lon":83.98},
		{"name":"Equator","lat":0,"lon":10},
		{"name":"Kathmandu","lat":27.71,"lon":85.32}
	]}`
	resp, body := env.do(t, http.MethodPost, "/api/v1/weather/batch", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["requested"].(float64) != 3 {
		t.Fatalf("unexpected requested count %v", body["requested"])
	}
	snaps := body["snapshots"].([]any)
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	first := snaps[0].(map[string]any)["location"].(map[string]any)
	second := snaps[1].(map[string]any)["location"].(map[string]any)
	if first["displayName"] != "Pokhara" || second["displayName"] != "Kathmandu" {
		t.Fatalf("batch order not preserved: %v, %v", first, second)
	}
	if first["source"] != string(geo.SourceNamed) {
		t.Fatalf("unexpected source %v", first["source"])
	}
}

func TestBatchWeatherValidation(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	many := `{"locations":[` + strings.Repeat(`{"lat":1,"lon":1},`, 20) + `{"lat":1,"lon":1}]}`
	for name, payload := range map[string]string{
		"empty":       `{"locations":[]}`,
		"missing lat": `{"locations":[{"name":"x","lon":1}]}`,
		"bad lon":     `{"locations":[{"name":"x","lat":1,"lon":181}]}`,
		"too many":    many,
		"not json":    `{`,
	} {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/weather/batch", payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, resp.StatusCode)
		}
	}
}

func TestSuggestion(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	resp, body := env.do(t, http.MethodGet, "/api/v1/suggestion", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	sug := body["suggestion"].(map[string]any)
	text, _ := sug["text"].(string)

	basis := weather.Snapshot{WeatherCode: 61, IsDaytime: true, Location: geo.DefaultLocation}
	found := false
	for _, c := range env.svc.Suggest.Candidates(basis) {
		if c == text {
			found = true
		}
	}
	if !found {
		t.Fatalf("suggestion %q not drawn from the rain pool", text)
	}
}

func TestContext(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	resp, body := env.do(t, http.MethodGet, "/api/v1/context", "")
	if resp.StatusCode != http.StatusOK || body["snapshot"] != nil {
		t.Fatalf("expected empty context, got %d %v", resp.StatusCode, body)
	}

	env.svc.Scheduler.RunCycle(context.Background())

	_, body = env.do(t, http.MethodGet, "/api/v1/context", "")
	if body["snapshot"] == nil || body["suggestion"] == nil || body["unavailable"] != false {
		t.Fatalf("unexpected context %v", body)
	}
	class := body["classification"].(map[string]any)
	if class["iconKey"] == "" || class["category"] != string(weather.CategoryRain) {
		t.Fatalf("unexpected classification %v", class)
	}
}

func TestNewsPanel(t *testing.T) {
	env := newTestEnv(t, rainProvider{})

	resp, body := env.do(t, http.MethodGet, "/api/v1/news", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["unavailable"] != false || len(body["items"].([]any)) != 1 {
		t.Fatalf("unexpected panel %v", body)
	}

	env.bridge.fail = true
	_, body = env.do(t, http.MethodPost, "/api/v1/news/retry", "")
	if body["unavailable"] != true || len(body["items"].([]any)) != 0 {
		t.Fatalf("expected unavailable empty panel, got %v", body)
	}
}
