// Package dataset loads the on-disk PM2.5 history and IHME health
// baselines and exposes read-only lookups over them.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// YearValue is a single annual PM2.5 observation.
type YearValue struct {
	Year  int
	Value float64
}

// MortalityRecord is one row of the raw IHME mortality extract.
type MortalityRecord struct {
	LocationName string  `json:"location_name"`
	Year         int     `json:"year"`
	AgeName      string  `json:"age_name"`
	CauseName    string  `json:"cause_name"`
	MeasureName  string  `json:"measure_name"`
	Val          float64 `json:"val"`
	Upper        float64 `json:"upper"`
	Lower        float64 `json:"lower"`
}

// Store holds the immutable datasets the engines read from. Build it once
// at startup and share it; all lookups are safe for concurrent use.
type Store struct {
	history   map[string][]YearValue
	baselines map[string]map[int]map[string]float64
	raw       []MortalityRecord
}

// NewStore builds a Store from pre-parsed data. Primarily for tests.
func NewStore(history map[string][]YearValue, baselines map[string]map[int]map[string]float64, raw []MortalityRecord) *Store {
	if history == nil {
		history = map[string][]YearValue{}
	}
	if baselines == nil {
		baselines = map[string]map[int]map[string]float64{}
	}
	for _, series := range history {
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	}
	return &Store{history: history, baselines: baselines, raw: raw}
}

// LoadStore reads the history, baselines and raw health files. The raw
// health path may be empty; age stratification is then unavailable.
func LoadStore(historyPath, baselinesPath, rawHealthPath string) (*Store, error) {
	history, err := loadHistory(historyPath)
	if err != nil {
		return nil, fmt.Errorf("load pm25 history: %w", err)
	}
	baselines, err := loadBaselines(baselinesPath)
	if err != nil {
		return nil, fmt.Errorf("load health baselines: %w", err)
	}
	var raw []MortalityRecord
	if rawHealthPath != "" {
		raw, err = loadRaw(rawHealthPath)
		if err != nil {
			return nil, fmt.Errorf("load raw health records: %w", err)
		}
	}
	return NewStore(history, baselines, raw), nil
}

func loadHistory(path string) (map[string][]YearValue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var byCountry map[string][]struct {
		Year int     `json:"year"`
		PM25 float64 `json:"pm25"`
	}
	if err := json.Unmarshal(data, &byCountry); err != nil {
		return nil, err
	}
	history := make(map[string][]YearValue, len(byCountry))
	for country, rows := range byCountry {
		series := make([]YearValue, 0, len(rows))
		for _, row := range rows {
			series = append(series, YearValue{Year: row.Year, Value: row.PM25})
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
		history[country] = series
	}
	return history, nil
}

func loadBaselines(path string) (map[string]map[int]map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var byCountry map[string]map[string]map[string]float64
	if err := json.Unmarshal(data, &byCountry); err != nil {
		return nil, err
	}
	baselines := make(map[string]map[int]map[string]float64, len(byCountry))
	for country, years := range byCountry {
		perYear := make(map[int]map[string]float64, len(years))
		for yearStr, diseases := range years {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				return nil, fmt.Errorf("baselines %s: bad year %q", country, yearStr)
			}
			perYear[year] = diseases
		}
		baselines[country] = perYear
	}
	return baselines, nil
}

func loadRaw(path string) ([]MortalityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []MortalityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// History returns the sorted annual series for a country, matched exactly.
func (s *Store) History(country string) ([]YearValue, bool) {
	series, ok := s.history[country]
	return series, ok
}

// Countries lists every country with PM2.5 history, sorted.
func (s *Store) Countries() []string {
	names := make([]string, 0, len(s.history))
	for name := range s.history {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasCountry reports whether PM2.5 history exists for the country.
func (s *Store) HasCountry(country string) bool {
	_, ok := s.history[country]
	return ok
}

// Value returns the recorded PM2.5 value for a country and year.
func (s *Store) Value(country string, year int) (float64, bool) {
	for _, yv := range s.history[country] {
		if yv.Year == year {
			return yv.Value, true
		}
	}
	return 0, false
}

// BaselineCountries lists every country with aggregated health baselines.
func (s *Store) BaselineCountries() []string {
	names := make([]string, 0, len(s.baselines))
	for name := range s.baselines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaselineForYear returns the disease->deaths map for an exact country
// key and year.
func (s *Store) BaselineForYear(country string, year int) (map[string]float64, bool) {
	diseases, ok := s.baselines[country][year]
	if !ok || len(diseases) == 0 {
		return nil, false
	}
	return diseases, true
}

// BaselineNearestYear returns the baseline for an exact country key at
// the available year closest to the requested one.
func (s *Store) BaselineNearestYear(country string, year int) (map[string]float64, int, bool) {
	perYear := s.baselines[country]
	if len(perYear) == 0 {
		return nil, 0, false
	}
	bestYear := 0
	bestDist := 1 << 30
	for candidate := range perYear {
		dist := candidate - year
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist || (dist == bestDist && candidate < bestYear) {
			bestYear = candidate
			bestDist = dist
		}
	}
	return perYear[bestYear], bestYear, true
}

// RawRecords returns mortality rows whose location matches any of the
// given names by bidirectional substring, case-insensitively.
func (s *Store) RawRecords(names ...string) []MortalityRecord {
	lowered := make([]string, 0, len(names))
	for _, name := range names {
		lowered = append(lowered, strings.ToLower(name))
	}
	var out []MortalityRecord
	for _, rec := range s.raw {
		loc := strings.ToLower(rec.LocationName)
		for _, name := range lowered {
			if strings.Contains(loc, name) || strings.Contains(name, loc) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// HasRawRecords reports whether any raw mortality rows exist at all.
func (s *Store) HasRawRecords() bool {
	return len(s.raw) > 0
}
