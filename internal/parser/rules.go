package parser

import (
	"regexp"

	"github.com/airsight/airsight-engine/internal/models"
)

// increaseKeywords and decreaseKeywords resolve scenario direction by
// proximity to the percent token.
var increaseKeywords = []string{
	"rise", "rises", "rising", "increase", "increases", "increasing",
	"higher", "go up", "goes up", "up by", "worsen", "worsens",
	"worse", "spike", "spikes", "grow", "grows",
}

var decreaseKeywords = []string{
	"reduce", "reduces", "reduction", "decrease", "decreases",
	"lower", "lowered", "go down", "goes down", "down by",
	"cut", "cuts", "drop", "drops", "prevent", "save",
	"meet", "meets", "guideline",
}

type intentRule struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+expr))
	}
	return out
}

// intentRules fire in order; the first rule with any matching pattern
// wins. Priority-A rules must override everything below them.
var intentRules = []intentRule{
	// Scenario: has a %, "what if", or reduce/increase by N.
	{models.IntentScenario, compileAll(
		`\d+\s*%`,
		`\d+\s+percent`,
		`\b(rise|increase|grow)[sd]?\s+by\s+\d{1,3}\b`,
		`\b(reduce|decrease|drop|cut|lower)\w*\s+by\s+\d{1,3}\b`,
		`\breduce\b`, `\breduction\b`,
		`\bcuts?\s+(pm|pollution)\b`,
		`\bdrop\s+(pm|pollution)\b`,
		`\blower\s*by\b`, `\braise\s*by\b`,
		`\bif\b.*\bredu`, `\bwhat\s+if\b`,
		`\bwhat\s+happens?\b`,
		`\bhow\s+many\s+(deaths?|lives?)\s+(saved|prevented|happen)`,
		`\bbaseline\s+vs\b`,
		`\bsensitive\s+to\s+a\s+\d`,
		`\bmarginal\s+death`,
		`\bwho\s+guideline\b`,
		`\bstays?\s+at\b`,
		`\bdrops?\s+below\b`,
	)},

	// Sensitivity: elasticity questions without a specific percent.
	{models.IntentSensitivity, compileAll(
		`\bsensitiv\w*\s+(?:to|of)\s+pm`,
		`\bsensitiv\w*\s+(?:to|of)\s+pollution`,
		`\bmost\s+sensitive\b`,
		`\belasticity\b`,
		`\bper\s+1\s*(?:ug|µg|microgram)`,
		`\bmarginal\s+effect\b`,
		`\bdeaths?\s+per\s+(?:ug|µg|unit)\b`,
	)},

	{models.IntentLowestBurden, compileAll(
		`\blowest\s+(?:health\s+)?burden\b`,
		`\bleast\s+(?:health\s+)?burden\b`,
		`\blowest\s+deaths?\b`,
		`\bleast\s+deaths?\b`,
		`\bfewest\s+deaths?\b`,
		`\blowest\s+mortality\b`,
		`\blowest\s+dalys?\b`,
		`\bleast\s+dalys?\b`,
	)},

	{models.IntentFastestImprovement, compileAll(
		`\bimproving\s+fastest\b`,
		`\bfastest\s+improv`,
		`\bmost\s+improved\b`,
		`\bimproved?\s+most\b`,
		`\bcleaner\s+fastest\b`,
		`\bgetting\s+cleaner\s+fast`,
		`\b(worse|worsening)\s+fastest\b`,
		`\bgetting\s+worse\s+fast`,
	)},

	{models.IntentStability, compileAll(
		`\bmost\s+stable\b`,
		`\bleast\s+stable\b`,
		`\bstable\s+(?:pollution\s+)?pattern\b`,
		`\bmost\s+volatile\b`,
		`\bleast\s+volatile\b`,
		`\bvolatil`,
		`\bstable\s+or\s+volatile\b`,
	)},

	// Ranking by PM2.5 level, not by risk score.
	{models.IntentRankPM25, compileAll(
		`\btop\s+\d+\s+(most\s+)?polluted\b`,
		`\bhighest\s+pm2\.?5\b`,
		`\blowest\s+pm2\.?5\b`,
		`\brank\w*\s+by\s+pm2?\.?5?\b`,
		`\brank\w*\s+by\s+pollution\b`,
		`\bmost\s+polluted\b`,
		`\bleast\s+polluted\b`,
		`\bcleanest\b`,
	)},

	{models.IntentDeathsChangeYoY, compileAll(
		`\bdeaths?\s+(increase|decrease|change|grew|dropped)\w*\s+(compared|vs|versus|from)\b`,
		`\b(increase|decrease|change)\w*\s+in\s+deaths?\b`,
		`\byoy\s+deaths?\b`,
		`\bdeaths?\s+yoy\b`,
		`\bdeaths?\s+this\s+year\s+vs\b`,
		`\bpollution\s+deaths?\s+(increase|decrease)\w*\s+(compared|vs)\b`,
		`\bdeaths?\s+(increase|decrease)\w*.*\b(compared|last\s+year)\b`,
	)},

	{models.IntentRiskRanking, compileAll(
		`\branke?d?\s+by\s+risk\b`,
		`\branking\b`,
		`\brisk\s+ranking\b`,
		`\bregional\s+risk\b`,
		`\bacross\s+all\b`,
		`\bshow\s+countries\b`,
		`\branke?d?\b`,
		`\brank\w*\s+by\s+(?:death|mortality)\b`,
		`\brank\w*\s+by\s+death\s+rate\b`,
	)},

	{models.IntentHighestRisk, compileAll(
		`\bhighest\s+risk(?:\s+score)?\b`,
		`\bhighest\s+pollution\s+risk\b`,
		`\blowest\s+risk(?:\s+score)?\b`,
		`\bmost\s+dangerous\b`,
		`\bgetting\s+(cleaner|worse)\b.*\bregion\b`,
		`\boverall\b.*\bregion\b`,
	)},

	{models.IntentHealthDALYs, compileAll(
		`\bdalys?\b`,
		`\bdisability[- ]adjusted\b`,
	)},

	{models.IntentExplainability, compileAll(
		`\bwhy\s+is\b`,
		`\bwhat\s+(are\s+the\s+)?main\s+drivers?\b`,
		`\bfactors?\s+contribut`,
		`\bwhat\s+features?\b`,
		`\bwhat\s+assumptions?\b`,
		`\bhow\s+reliable\b`,
		`\bhow\s+certain\b`,
		`\bwhy\s+does\b`,
		`\bwhy\s+(is\s+)?confidence\b`,
		`\bnonlinear\b`,
		`\bdiminishing\s+returns\b`,
		`\bstructural\s+break\b`,
	)},

	{models.IntentRiskLevel, compileAll(
		`\brisk\s+level\b`,
		`\brisk\s+tier\b`,
		`\bhigh\s+risk\b`,
		`\bmoderate\s+risk\b`,
		`\bred\s+zone\b`,
		`\brisk\s+score\b`,
	)},

	// Trend covers direction over time; stability words stay out.
	{models.IntentTrend, compileAll(
		`\btrend\b`, `\btrajectory\b`,
		`\bimproving\b`, `\bimproved\b`,
		`\bworsening\b`,
		`\bimproving\s+or\s+worsening\b`,
		`\bincreasing\b`, `\bdecreasing\b`,
		`\bgetting\s+(better|worse|cleaner)\b`,
		`\bover\s+the\s+years?\b`,
		`\bover\s+time\b`,
		`\bover\s+the\s+next\b`,
		`\byear\s+over\s+year\b`,
		`\bprojection\b`, `\bprojected\b`,
		`\bgrowth\s+rate\b`,
		`\b\d+[- ]year\b`,
		`\bphase\b`,
		`\bregime\b`,
		`\bpercentage\s+(increase|decrease)\b`,
		`20\d{2}[\x{2013}-]20\d{2}\b`,
	)},

	// Year-to-year change sits above compare; "2024 vs 2026" is more
	// specific than a bare "vs".
	{models.IntentChange, compileAll(
		`\bfrom\s+20\d{2}\s+to\s+20\d{2}\b`,
		`\bbetween\s+20\d{2}\s+and\s+20\d{2}\b`,
		`\bsince\s+20\d{2}\b`,
		`\bchange\b`,
		`\bdifference\b`,
		`\b20\d{2}\s+vs\s+20\d{2}\b`,
		`\boutlook\b`,
	)},

	{models.IntentCompare, compileAll(
		`\bcompare\b`, `\bvs\b`, `\bversus\b`,
	)},

	// "death rate" before the broad deaths rule.
	{models.IntentHealthRate, compileAll(
		`\bper\s+100[,.]?000\b`,
		`\bdeath\s+rate\b`, `\bmortality\s+rate\b`,
		`\bper\s+capita\b`, `\bper\s+lakh\b`,
	)},

	{models.IntentHealthDeaths, compileAll(
		`\bdeaths?\b`, `\bmortality\b`,
		`\battribut`, `\bdie\b`, `\bkill`,
		`\bhow\s+many\s+(people\s+)?die`,
		`\bhealth\s+(risk|impact|burden|effect)\b`,
		`\bconfidence\s+interval\b`,
	)},

	{models.IntentTopDiseases, compileAll(
		`\btop\s+\d*\s*diseases?\b`,
		`\bbreakdown\b`,
		`\bcaused\s+by\b`,
		`\bwhich\s+diseases?\b`,
		`\bdisease\s+list\b`,
		`\bdisease\s+burden\b`,
		`\bcontribute\s+most\b`,
		`\blinked\s+to\s+pollution\b`,
		`\bsensitive\b.*\bdisease\b`,
		`\bdisease\b.*\bsensitive\b`,
	)},

	{models.IntentBestMonth, compileAll(
		`\bbest\s+(month|time|period)\b`,
		`\bcleanest\s+(month|air)\b`,
		`\bwhen\s+to\s+(visit|travel)\b`,
		`\bsafest\s+month\b`,
		`\bmonthly\s+(breakdown|data|prediction)\b`,
	)},

	{models.IntentWorstMonth, compileAll(
		`\bworst\s+(month|time|period)\b`,
		`\bmost\s+polluted\s+month\b`,
		`\bavoid\s+visiting\b`,
		`\bpeak\s+pollution\b`,
	)},
}

// intentExamples drive the semantic fallback.
var intentExamples = map[models.Intent][]string{
	models.IntentForecast: {
		"What is the PM2.5 level?",
		"Air pollution forecast",
		"Predict air quality",
		"How polluted will it be?",
		"PM2.5 concentration?",
		"AQI forecast",
	},
	models.IntentHealthDeaths: {
		"How many people die from pollution?",
		"Health impact of PM2.5",
		"Mortality from air quality",
		"Death toll from air pollution",
	},
	models.IntentScenario: {
		"What if PM2.5 reduces by 15%?",
		"How many deaths if pollution drops 20%?",
	},
	models.IntentTrend: {
		"Is air quality improving?",
		"Pollution trend over time",
	},
}

// countryOptionalIntents run against a default or regional country set
// when the question names none.
var countryOptionalIntents = map[models.Intent]bool{
	models.IntentRiskRanking:        true,
	models.IntentHighestRisk:        true,
	models.IntentListCountries:      true,
	models.IntentScenario:           true,
	models.IntentExplainability:     true,
	models.IntentHealthDALYs:        true,
	models.IntentRankPM25:           true,
	models.IntentStability:          true,
	models.IntentFastestImprovement: true,
	models.IntentLowestBurden:       true,
	models.IntentSensitivity:        true,
	models.IntentDeathsChangeYoY:    true,
}

// CountryOptional reports whether an intent can run without a country.
func CountryOptional(intent models.Intent) bool {
	return countryOptionalIntents[intent]
}

type monthPattern struct {
	re  *regexp.Regexp
	num int
}

func mp(name string, num int) monthPattern {
	return monthPattern{regexp.MustCompile(`\b` + name + `\b`), num}
}

// Full names before abbreviations; "may" appears only as the full
// month name.
var monthMap = []monthPattern{
	mp("january", 1), mp("february", 2), mp("march", 3), mp("april", 4),
	mp("may", 5), mp("june", 6), mp("july", 7), mp("august", 8),
	mp("september", 9), mp("october", 10), mp("november", 11), mp("december", 12),
	mp("jan", 1), mp("feb", 2), mp("mar", 3), mp("apr", 4),
	mp("jun", 6), mp("jul", 7), mp("aug", 8), mp("sep", 9), mp("oct", 10), mp("nov", 11), mp("dec", 12),
}

var ageKeywords = []struct {
	group    string
	keywords []string
}{
	{"children", []string{"children", "child", "kids", "kid", "infant", "baby", "babies",
		"toddler", "young", "pediatric", "under 15", "under 14"}},
	{"adults", []string{"adults", "adult", "working age", "middle age", "middle-aged"}},
	{"elderly", []string{"elderly", "old people", "senior", "seniors", "aged",
		"over 65", "retiree", "geriatric"}},
}

var diseaseKeywords = []struct {
	disease  string
	keywords []string
}{
	{"Ischemic heart disease", []string{"heart disease", "ihd", "ischemic", "heart attack", "cardiac", "coronary"}},
	{"Stroke", []string{"stroke", "cerebrovascular"}},
	{"Chronic obstructive pulmonary disease", []string{"copd", "chronic obstructive", "emphysema"}},
	{"Lower respiratory infections", []string{"lower respiratory", "pneumonia", "lri"}},
	{"Upper respiratory infections", []string{"upper respiratory", "uri", "sinusitis"}},
	{"Tracheal, bronchus, and lung cancer", []string{"lung cancer", "tracheal cancer", "bronchus cancer"}},
	{"Larynx cancer", []string{"larynx cancer", "throat cancer", "laryngeal"}},
	{"Tuberculosis", []string{"tuberculosis", "tb"}},
	{"Diabetes mellitus", []string{"diabetes", "diabetic"}},
	{"Asthma", []string{"asthma", "asthmatic", "wheezing"}},
}
