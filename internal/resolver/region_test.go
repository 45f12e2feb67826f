package resolver

import (
	"strings"
	"testing"
)

func TestNormalizeRegion(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"rank ASEAN countries by pollution", "ASEAN"},
		{"southeast asian air quality", "ASEAN"},
		{"which south asia country is cleanest", "South Asia"},
		{"compare east asia", "East Asia"},
		{"pollution in europe", "Europe"},
		{"top EU countries", "Europe"},
		{"african air quality trends", "Africa"},
		{"latin america rankings", "South America"},
		{"middle eastern countries", "Middle East"},
		{"worldwide pollution ranking", "Global"},
		{"all countries ranked", "Global"},
		{"what about Myanmar", ""},
	}
	for _, tc := range cases {
		if got := NormalizeRegion(tc.text); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.text, tc.want, got)
		}
	}
}

func TestCanonicalCountry(t *testing.T) {
	if got := CanonicalCountry("Viet Nam"); got != "Vietnam" {
		t.Fatalf("expected Vietnam, got %q", got)
	}
	if got := CanonicalCountry("USA"); got != "United States" {
		t.Fatalf("expected United States, got %q", got)
	}
	if got := CanonicalCountry("Myanmar"); got != "Myanmar" {
		t.Fatalf("names without synonyms pass through, got %q", got)
	}
}

func TestResolveGlobal(t *testing.T) {
	available := []string{"Thailand", "Myanmar", "France"}

	res := Resolve("", available)
	if !res.OK || res.Region != "Global" {
		t.Fatalf("empty region should resolve globally: %+v", res)
	}
	if len(res.Countries) != 3 {
		t.Fatalf("expected all 3 countries, got %v", res.Countries)
	}
	if res.Countries[0] != "France" {
		t.Fatalf("expected sorted output, got %v", res.Countries)
	}

	res = Resolve("Global", available)
	if !res.OK || len(res.Countries) != 3 {
		t.Fatalf("Global should resolve all countries: %+v", res)
	}
}

func TestResolveRegionIntersection(t *testing.T) {
	available := []string{"Myanmar", "Thailand", "France", "India"}

	res := Resolve("ASEAN", available)
	if !res.OK {
		t.Fatalf("expected resolution, got %+v", res)
	}
	if len(res.Countries) != 2 {
		t.Fatalf("expected Myanmar and Thailand only, got %v", res.Countries)
	}
	if res.Countries[0] != "Myanmar" || res.Countries[1] != "Thailand" {
		t.Fatalf("unexpected members: %v", res.Countries)
	}
}

func TestResolveUnknownRegion(t *testing.T) {
	res := Resolve("Atlantis", []string{"Myanmar"})
	if res.OK {
		t.Fatalf("unknown region should not resolve")
	}
	if len(res.Countries) != 0 {
		t.Fatalf("expected empty country list, got %v", res.Countries)
	}
	if !strings.Contains(res.Error, "not a recognised region") {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if !strings.Contains(res.Error, "Supported regions:") {
		t.Fatalf("error should list supported regions, got %q", res.Error)
	}
}

func TestResolveEmptyIntersection(t *testing.T) {
	res := Resolve("Caribbean", []string{"Myanmar", "Thailand"})
	if res.OK {
		t.Fatalf("empty intersection should not resolve")
	}
	if !strings.Contains(res.Error, "No pollution data is available") {
		t.Fatalf("unexpected error %q", res.Error)
	}
}
