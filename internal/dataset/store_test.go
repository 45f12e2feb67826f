package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	historyPath := writeFile(t, dir, "history.json", `{
		"Myanmar": [
			{"year": 2021, "pm25": 30.8},
			{"year": 2019, "pm25": 33.1},
			{"year": 2020, "pm25": 31.5}
		]
	}`)
	baselinesPath := writeFile(t, dir, "baselines.json", `{
		"Myanmar": {
			"2021": {"Stroke": 48000, "Ischemic heart disease": 52000}
		}
	}`)
	rawPath := writeFile(t, dir, "raw.json", `[
		{"location_name": "Myanmar", "year": 2021, "age_name": "70-74 years",
		 "cause_name": "Stroke", "measure_name": "Deaths",
		 "val": 9000, "upper": 11000, "lower": 7000}
	]`)

	store, err := LoadStore(historyPath, baselinesPath, rawPath)
	if err != nil {
		t.Fatalf("LoadStore returned error: %v", err)
	}

	series, ok := store.History("Myanmar")
	if !ok || len(series) != 3 {
		t.Fatalf("expected 3 history rows, got %v %v", series, ok)
	}
	if series[0].Year != 2019 || series[2].Year != 2021 {
		t.Fatalf("history not sorted by year: %v", series)
	}

	baseline, ok := store.BaselineForYear("Myanmar", 2021)
	if !ok || baseline["Stroke"] != 48000 {
		t.Fatalf("baseline lookup failed: %v %v", baseline, ok)
	}

	if !store.HasRawRecords() {
		t.Fatalf("expected raw records loaded")
	}
}

func TestLoadStoreWithoutRawHealth(t *testing.T) {
	dir := t.TempDir()
	historyPath := writeFile(t, dir, "history.json", `{"Myanmar": [{"year": 2021, "pm25": 30.8}]}`)
	baselinesPath := writeFile(t, dir, "baselines.json", `{}`)

	store, err := LoadStore(historyPath, baselinesPath, "")
	if err != nil {
		t.Fatalf("LoadStore returned error: %v", err)
	}
	if store.HasRawRecords() {
		t.Fatalf("expected no raw records")
	}
}

func TestLoadStoreBadYearKey(t *testing.T) {
	dir := t.TempDir()
	historyPath := writeFile(t, dir, "history.json", `{}`)
	baselinesPath := writeFile(t, dir, "baselines.json", `{"Myanmar": {"recent": {"Stroke": 1}}}`)

	if _, err := LoadStore(historyPath, baselinesPath, ""); err == nil {
		t.Fatalf("expected error for non-numeric year key")
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	if _, err := LoadStore("/nonexistent/history.json", "/nonexistent/baselines.json", ""); err == nil {
		t.Fatalf("expected error for missing files")
	}
}

func TestStoreAccessors(t *testing.T) {
	store := NewStore(map[string][]YearValue{
		"Myanmar":  {{Year: 2021, Value: 30.8}, {Year: 2019, Value: 33.1}},
		"Thailand": {{Year: 2020, Value: 22.8}},
	}, nil, nil)

	countries := store.Countries()
	if len(countries) != 2 || countries[0] != "Myanmar" || countries[1] != "Thailand" {
		t.Fatalf("unexpected country list: %v", countries)
	}
	if !store.HasCountry("Myanmar") || store.HasCountry("Atlantis") {
		t.Fatalf("HasCountry misbehaves")
	}

	if v, ok := store.Value("Myanmar", 2019); !ok || v != 33.1 {
		t.Fatalf("expected 33.1, got %v %v", v, ok)
	}
	if _, ok := store.Value("Myanmar", 1999); ok {
		t.Fatalf("expected miss for absent year")
	}

	series, _ := store.History("Myanmar")
	if series[0].Year != 2019 {
		t.Fatalf("NewStore should sort series, got %v", series)
	}
}

func TestBaselineNearestYear(t *testing.T) {
	store := NewStore(nil, map[string]map[int]map[string]float64{
		"Myanmar": {
			2015: {"Stroke": 44000},
			2021: {"Stroke": 48000},
		},
	}, nil)

	baseline, year, ok := store.BaselineNearestYear("Myanmar", 2027)
	if !ok || year != 2021 {
		t.Fatalf("expected nearest year 2021, got %d %v", year, ok)
	}
	if baseline["Stroke"] != 48000 {
		t.Fatalf("unexpected baseline %v", baseline)
	}

	_, _, ok = store.BaselineNearestYear("Atlantis", 2027)
	if ok {
		t.Fatalf("expected miss for unknown country")
	}
}

func TestRawRecordsSubstringMatch(t *testing.T) {
	store := NewStore(nil, nil, []MortalityRecord{
		{LocationName: "Myanmar", Year: 2021, CauseName: "Stroke"},
		{LocationName: "Republic of Korea", Year: 2021, CauseName: "Stroke"},
	})

	records := store.RawRecords("myanmar")
	if len(records) != 1 || records[0].LocationName != "Myanmar" {
		t.Fatalf("case-insensitive match failed: %v", records)
	}

	records = store.RawRecords("Korea")
	if len(records) != 1 || records[0].LocationName != "Republic of Korea" {
		t.Fatalf("substring match failed: %v", records)
	}

	if records := store.RawRecords("Atlantis"); len(records) != 0 {
		t.Fatalf("expected no matches, got %v", records)
	}
}
