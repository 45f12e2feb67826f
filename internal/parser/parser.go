// Package parser routes free-text questions to intents with ordered
// keyword rules and extracts the entities the analytics layer needs.
// A semantic-similarity fallback handles questions no rule matches.
package parser

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/airsight/airsight-engine/internal/models"
	"github.com/airsight/airsight-engine/internal/resolver"
	"github.com/airsight/airsight-engine/internal/utils"
)

// Embedder produces a vector for a text. Implementations may call out
// to a local embedding server; a nil Embedder disables the semantic
// fallback entirely.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	ruleConfidence        = 0.95
	compareLowConfidence  = 0.6
	semanticFloor         = 0.25
	noEmbedderConfidence  = 0.3
	defaultFallbackIntent = models.IntentForecast
)

// Parser is safe for concurrent use once constructed.
type Parser struct {
	countryMap  map[string]string
	countryKeys []string // longest first
	embedder    Embedder
	logger      *slog.Logger
	now         func() time.Time
	defaultYear int

	embedOnce   sync.Once
	exampleVecs map[models.Intent][][]float32
}

// Option tweaks parser construction.
type Option func(*Parser)

// WithEmbedder enables the semantic fallback.
func WithEmbedder(e Embedder) Option {
	return func(p *Parser) { p.embedder = e }
}

// WithClock overrides the wall clock used for relative year phrases.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithDefaultYear overrides the year used when none is mentioned.
func WithDefaultYear(year int) Option {
	return func(p *Parser) { p.defaultYear = year }
}

// NewParser builds the lookup tables from the available country names.
// Multi-word countries are also matchable by any word over 3 letters.
func NewParser(countries []string, logger *slog.Logger, opts ...Option) *Parser {
	p := &Parser{
		countryMap:  make(map[string]string, len(countries)*2),
		logger:      logger,
		now:         time.Now,
		defaultYear: 2026,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, c := range countries {
		lower := strings.ToLower(c)
		p.countryMap[lower] = c
		for _, part := range strings.Fields(lower) {
			if len(part) > 3 {
				p.countryMap[part] = c
			}
		}
	}
	p.countryKeys = make([]string, 0, len(p.countryMap))
	for key := range p.countryMap {
		p.countryKeys = append(p.countryKeys, key)
	}
	sort.SliceStable(p.countryKeys, func(i, j int) bool {
		if len(p.countryKeys[i]) != len(p.countryKeys[j]) {
			return len(p.countryKeys[i]) > len(p.countryKeys[j])
		}
		return p.countryKeys[i] < p.countryKeys[j]
	})
	if logger != nil {
		logger.Info("query parser ready",
			"rule_intents", len(intentRules),
			"countries", len(countries),
			"semantic_fallback", p.embedder != nil)
	}
	return p
}

// Parse turns one message (plus optional prior turns) into a structured
// query. Missing entities are backfilled from the most recent prior
// user turn only.
func (p *Parser) Parse(ctx context.Context, message string, history []models.Turn) models.ParsedQuery {
	msg := strings.ToLower(strings.TrimSpace(message))

	countries := p.extractCountries(msg)
	years := p.extractYears(msg)
	year := 0
	if len(years) > 0 {
		year = years[len(years)-1]
	}
	var yearRange *models.YearRange
	if len(years) >= 2 {
		yearRange = &models.YearRange{Start: years[0], End: years[1]}
	}
	month := extractMonth(msg)
	percent := extractPercent(msg)
	percentSign := extractPercentSign(msg, percent)
	ageGroup := extractAgeGroup(msg)
	disease := extractDisease(msg)
	region := resolver.NormalizeRegion(msg)

	intent, confidence, matchedRule := detectIntentRules(msg, countries)
	if intent == models.IntentUnknown {
		intent, confidence, matchedRule = p.detectIntentSemantic(ctx, message)
	}

	// A change question needs two years; with one it is a forecast.
	if intent == models.IntentChange && yearRange == nil {
		intent = models.IntentForecast
	}
	if intent == models.IntentForecast && month != 0 {
		intent = models.IntentForecastMonthly
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != "user" {
			continue
		}
		prev := strings.ToLower(strings.TrimSpace(history[i].Content))
		if len(countries) == 0 {
			countries = p.extractCountries(prev)
		}
		if year == 0 {
			if prevYears := p.extractYears(prev); len(prevYears) > 0 {
				year = prevYears[len(prevYears)-1]
			}
		}
		if month == 0 {
			month = extractMonth(prev)
		}
		if percent == nil {
			percent = extractPercent(prev)
		}
		break
	}

	if year == 0 {
		year = p.defaultYear
	}

	country := ""
	if len(countries) > 0 {
		country = countries[0]
	}

	return models.ParsedQuery{
		RawMessage:  message,
		Intent:      intent,
		Confidence:  utils.Round(confidence, 3),
		MatchedRule: matchedRule,
		Countries:   countries,
		Country:     country,
		Year:        year,
		YearRange:   yearRange,
		Month:       month,
		Percent:     percent,
		PercentSign: percentSign,
		AgeGroup:    ageGroup,
		Disease:     disease,
		Region:      region,
	}
}

func detectIntentRules(msg string, countries []string) (models.Intent, float64, string) {
	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			if !pattern.MatchString(msg) {
				continue
			}
			if rule.intent == models.IntentCompare && len(countries) < 2 {
				return rule.intent, compareLowConfidence, pattern.String()
			}
			return rule.intent, ruleConfidence, pattern.String()
		}
	}
	return models.IntentUnknown, 0, ""
}

func (p *Parser) detectIntentSemantic(ctx context.Context, message string) (models.Intent, float64, string) {
	if p.embedder == nil {
		return defaultFallbackIntent, noEmbedderConfidence, ""
	}

	p.embedOnce.Do(func() {
		p.exampleVecs = make(map[models.Intent][][]float32, len(intentExamples))
		for intent, examples := range intentExamples {
			vecs := make([][]float32, 0, len(examples))
			for _, example := range examples {
				vec, err := p.embedder.Embed(ctx, example)
				if err != nil {
					if p.logger != nil {
						p.logger.Warn("embedding intent example failed", "intent", intent, "error", err)
					}
					vecs = append(vecs, nil)
					continue
				}
				vecs = append(vecs, vec)
			}
			p.exampleVecs[intent] = vecs
		}
	})

	queryVec, err := p.embedder.Embed(ctx, message)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("embedding query failed", "error", err)
		}
		return defaultFallbackIntent, noEmbedderConfidence, ""
	}

	bestIntent := defaultFallbackIntent
	bestScore := 0.0
	bestExample := ""
	for intent, vecs := range p.exampleVecs {
		for i, vec := range vecs {
			if vec == nil {
				continue
			}
			score := cosine(queryVec, vec)
			if score > bestScore {
				bestScore = score
				bestIntent = intent
				bestExample = intentExamples[intent][i]
			}
		}
	}
	if bestScore < semanticFloor {
		bestIntent = defaultFallbackIntent
	}
	return bestIntent, bestScore, bestExample
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// extractCountries finds country mentions, longest key first, masking
// matched spans so "South Korea" never also yields "Korea".
func (p *Parser) extractCountries(msg string) []string {
	var found []string
	masked := msg
	for _, key := range p.countryKeys {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
		if !pattern.MatchString(masked) {
			continue
		}
		proper := p.countryMap[key]
		if !contains(found, proper) {
			found = append(found, proper)
		}
		masked = pattern.ReplaceAllString(masked, " [MATCHED] ")
	}
	return found
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

var (
	yearRe      = regexp.MustCompile(`\b(20[0-4]\d)\b`)
	nextYearRe  = regexp.MustCompile(`\bnext\s+year\b`)
	thisYearRe  = regexp.MustCompile(`\bthis\s+year\b`)
	lastYearRe  = regexp.MustCompile(`\blast\s+year\b`)
	inNYearsRe  = regexp.MustCompile(`\bin\s+(\d+)\s+years?\b`)
	sinceYearRe = regexp.MustCompile(`\bsince\s+(20[0-4]\d)\b`)
)

// extractYears collects explicit and relative year mentions, sorted and
// deduplicated.
func (p *Parser) extractYears(msg string) []int {
	currentYear := p.now().Year()

	var years []int
	for _, m := range yearRe.FindAllStringSubmatch(msg, -1) {
		y, _ := strconv.Atoi(m[1])
		years = append(years, y)
	}
	if nextYearRe.MatchString(msg) {
		years = append(years, currentYear+1)
	}
	if thisYearRe.MatchString(msg) {
		years = append(years, currentYear)
	}
	if lastYearRe.MatchString(msg) {
		years = append(years, currentYear-1)
	}
	if m := inNYearsRe.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		years = append(years, currentYear+n)
	}
	if m := sinceYearRe.FindStringSubmatch(msg); m != nil {
		y, _ := strconv.Atoi(m[1])
		years = append(years, y, currentYear)
	}

	seen := map[int]bool{}
	var unique []int
	for _, y := range years {
		if !seen[y] {
			seen[y] = true
			unique = append(unique, y)
		}
	}
	sort.Ints(unique)
	return unique
}

func extractMonth(msg string) int {
	for _, entry := range monthMap {
		if entry.re.MatchString(msg) {
			return entry.num
		}
	}
	return 0
}

var (
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	byPercentRe = regexp.MustCompile(`by\s+(\d+(?:\.\d+)?)\s+percent`)
	pctTokenRe  = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:%|percent)`)
)

// extractPercent returns the unsigned percent value; the sign is
// resolved separately from the surrounding keywords.
func extractPercent(msg string) *float64 {
	if m := percentRe.FindStringSubmatch(msg); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &v
	}
	if m := byPercentRe.FindStringSubmatch(msg); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &v
	}
	return nil
}

// extractPercentSign picks increase (+1) or decrease (-1) by keyword
// proximity to the percent token, defaulting to decrease.
func extractPercentSign(msg string, percent *float64) int {
	if percent == nil {
		for _, kw := range decreaseKeywords {
			if strings.Contains(msg, kw) {
				return -1
			}
		}
		for _, kw := range increaseKeywords {
			if strings.Contains(msg, kw) {
				return 1
			}
		}
		return -1
	}

	pctPos := len(msg) / 2
	if loc := pctTokenRe.FindStringIndex(msg); loc != nil {
		pctPos = loc[0]
	}

	incDist := math.MaxInt32
	decDist := math.MaxInt32
	for _, kw := range increaseKeywords {
		if idx := strings.Index(msg, kw); idx >= 0 {
			if d := abs(idx - pctPos); d < incDist {
				incDist = d
			}
		}
	}
	for _, kw := range decreaseKeywords {
		if idx := strings.Index(msg, kw); idx >= 0 {
			if d := abs(idx - pctPos); d < decDist {
				decDist = d
			}
		}
	}

	switch {
	case incDist < decDist:
		return 1
	case decDist < incDist:
		return -1
	}
	for _, kw := range increaseKeywords {
		if strings.Contains(msg, kw) {
			return 1
		}
	}
	for _, kw := range decreaseKeywords {
		if strings.Contains(msg, kw) {
			return -1
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func extractAgeGroup(msg string) string {
	for _, entry := range ageKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(msg, kw) {
				return entry.group
			}
		}
	}
	return ""
}

func extractDisease(msg string) string {
	for _, entry := range diseaseKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(msg, kw) {
				return entry.disease
			}
		}
	}
	return ""
}
