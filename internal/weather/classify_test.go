package weather

import "testing"

func TestClassifyIsTotal(t *testing.T) {
	known := map[Category]bool{
		CategoryClear: true, CategoryCloudy: true, CategoryOvercast: true, CategoryFog: true,
		CategoryRain: true, CategorySnow: true, CategoryStorm: true,
	}
	for code := 0; code <= 99; code++ {
		for _, day := range []bool{true, false} {
			c := Classify(code, day)
			if !known[c.Category] {
				t.Fatalf("code %d day=%v: unknown category %q", code, day, c.Category)
			}
			if c.IconKey == "" {
				t.Fatalf("code %d day=%v: empty icon key", code, day)
			}
		}
	}
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		code int
		day  bool
		want Classification
	}{
		{0, true, Classification{CategoryClear, "clear-day"}},
		{0, false, Classification{CategoryClear, "clear-night"}},
		{1, false, Classification{CategoryClear, "mostly-clear-night"}},
		{2, true, Classification{CategoryCloudy, "partly-cloudy-day"}},
		{3, true, Classification{CategoryOvercast, "overcast"}},
		{45, false, Classification{CategoryFog, "fog"}},
		{53, true, Classification{CategoryRain, "drizzle"}},
		{61, true, Classification{CategoryRain, "rain"}},
		{81, false, Classification{CategoryRain, "showers"}},
		{73, true, Classification{CategorySnow, "snow"}},
		{86, true, Classification{CategorySnow, "snow"}},
		{95, true, Classification{CategoryStorm, "thunderstorm"}},
		{42, true, Classification{CategoryOvercast, "overcast"}},
		{-1, true, Classification{CategoryOvercast, "overcast"}},
		{1000, false, Classification{CategoryOvercast, "overcast"}},
	}
	for _, tt := range tests {
		if got := Classify(tt.code, tt.day); got != tt.want {
			t.Errorf("Classify(%d, %v) = %+v, want %+v", tt.code, tt.day, got, tt.want)
		}
	}
}

func TestPrecipitationIgnoresDaytime(t *testing.T) {
	for code := 40; code <= 99; code++ {
		if Classify(code, true).Category != Classify(code, false).Category {
			t.Fatalf("code %d: category depends on daytime", code)
		}
		if Classify(code, true).IconKey != Classify(code, false).IconKey {
			t.Fatalf("code %d: icon depends on daytime", code)
		}
	}
}

func TestPredicates(t *testing.T) {
	for _, code := range []int{51, 61, 65, 71, 80, 85, 95, 99} {
		if !IsPrecipitation(code) {
			t.Errorf("expected %d to be precipitation", code)
		}
	}
	for _, code := range []int{0, 1, 2, 3, 45, 48, 50} {
		if IsPrecipitation(code) {
			t.Errorf("expected %d not to be precipitation", code)
		}
	}
	if !IsClearSky(0) || !IsClearSky(1) || IsClearSky(2) {
		t.Errorf("unexpected clear-sky predicate")
	}
	if CategoryStorm.Label() != "Thunderstorm" || Category("x").Label() != "Overcast" {
		t.Errorf("unexpected labels")
	}
}
