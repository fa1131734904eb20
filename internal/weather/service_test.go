package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/travel-context/internal/geo"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubProvider struct {
	name    string
	reading func(geo.Coordinates) (Reading, error)
	calls   int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, c geo.Coordinates) (Reading, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.reading(c)
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
func boolp(v bool) *bool     { return &v }

func rainReading() Reading {
	return Reading{TemperatureC: f64(19.5), WeatherCode: intp(61), IsDay: boolp(true)}
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func TestFetchCurrentNormalizesWithDefaults(t *testing.T) {
	p := &stubProvider{name: "stub", reading: func(geo.Coordinates) (Reading, error) {
		return rainReading(), nil
	}}
	svc := NewService([]Provider{p}, WithClock(func() time.Time { return fixedNow }), WithLogger(quiet))

	loc := geo.LocationLabel{DisplayName: "Pokhara", Source: geo.SourceIP, Coordinates: geo.Coordinates{Latitude: 28.2, Longitude: 83.98}}
	snap, err := svc.FetchCurrent(context.Background(), loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.FeelsLikeC != 19.5 {
		t.Fatalf("feels-like should default to temperature, got %v", snap.FeelsLikeC)
	}
	if snap.HumidityPct != 0 || snap.WindKph != 0 || snap.VisibilityKm != 0 {
		t.Fatalf("optional fields should default to 0: %+v", snap)
	}
	if snap.WeatherCode != 61 || !snap.IsDaytime {
		t.Fatalf("unexpected code/day: %+v", snap)
	}
	if snap.Location != loc {
		t.Fatalf("location not carried: %+v", snap.Location)
	}
	if !snap.FetchedAt.Equal(fixedNow) {
		t.Fatalf("unexpected fetchedAt %v", snap.FetchedAt)
	}
	if snap.Provider != "stub" {
		t.Fatalf("provider name should default to the provider, got %q", snap.Provider)
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", p.calls)
	}
}

func TestFetchCurrentMalformedPayloadFallsThrough(t *testing.T) {
	broken := &stubProvider{name: "broken", reading: func(geo.Coordinates) (Reading, error) {
		return Reading{TemperatureC: f64(10)}, nil // no code, no day flag
	}}
	good := &stubProvider{name: "good", reading: func(geo.Coordinates) (Reading, error) {
		return rainReading(), nil
	}}
	svc := NewService([]Provider{broken, good}, WithLogger(quiet))

	snap, err := svc.FetchCurrent(context.Background(), geo.LocationLabel{DisplayName: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Provider != "good" {
		t.Fatalf("expected second provider to win, got %q", snap.Provider)
	}
}

func TestFetchCurrentTotalFailureIsTyped(t *testing.T) {
	p := &stubProvider{name: "down", reading: func(geo.Coordinates) (Reading, error) {
		return Reading{}, errors.New("connection refused")
	}}
	svc := NewService([]Provider{p}, WithLogger(quiet))

	_, err := svc.FetchCurrent(context.Background(), geo.LocationLabel{DisplayName: "Pokhara"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if len(fe.Tried) != 1 || fe.Tried[0] != "down" {
		t.Fatalf("unexpected tried list %v", fe.Tried)
	}

	if _, err := NewService(nil, WithLogger(quiet)).FetchCurrent(context.Background(), geo.LocationLabel{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable with no providers, got %v", err)
	}
}

func TestFetchBatchToleratesPartialFailure(t *testing.T) {
	failLat := 3.0
	p := &stubProvider{name: "stub", reading: func(c geo.Coordinates) (Reading, error) {
		if c.Latitude == failLat {
			return Reading{}, errors.New("upstream 500")
		}
		// Finish out of order so ordering cannot come from completion time.
		time.Sleep(time.Duration(10-int(c.Latitude)) * time.Millisecond)
		return Reading{TemperatureC: f64(c.Latitude), WeatherCode: intp(0), IsDay: boolp(true)}, nil
	}}
	svc := NewService([]Provider{p}, WithLogger(quiet))

	input := []Named{
		{Name: "one", Coordinates: geo.Coordinates{Latitude: 1}},
		{Name: "two", Coordinates: geo.Coordinates{Latitude: 2}},
		{Name: "three", Coordinates: geo.Coordinates{Latitude: 3}},
		{Name: "four", Coordinates: geo.Coordinates{Latitude: 4}},
		{Name: "five", Coordinates: geo.Coordinates{Latitude: 5}},
	}

	got := svc.FetchBatch(context.Background(), input)
	if len(got) != 4 {
		t.Fatalf("expected 4 snapshots, got %d", len(got))
	}

	want := []string{"one", "two", "four", "five"}
	for i, name := range want {
		if got[i].Location.DisplayName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Location.DisplayName)
		}
		if got[i].Location.Source != geo.SourceNamed {
			t.Fatalf("expected named provenance, got %s", got[i].Location.Source)
		}
	}
}

func TestFetchBatchEmpty(t *testing.T) {
	svc := NewService(nil, WithLogger(quiet))
	if got := svc.FetchBatch(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestNormalizeRejectsMissingRequiredFields(t *testing.T) {
	cases := map[string]Reading{
		"temperature": {WeatherCode: intp(0), IsDay: boolp(true)},
		"code":        {TemperatureC: f64(1), IsDay: boolp(true)},
		"day":         {TemperatureC: f64(1), WeatherCode: intp(0)},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Normalize(r, geo.LocationLabel{}, fixedNow); !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestNormalizeRoundsHumidity(t *testing.T) {
	r := Reading{TemperatureC: f64(5), WeatherCode: intp(3), IsDay: boolp(false), HumidityPct: f64(67.6), FeelsLikeC: f64(2)}
	snap, err := Normalize(r, geo.LocationLabel{}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.HumidityPct != 68 || snap.FeelsLikeC != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
