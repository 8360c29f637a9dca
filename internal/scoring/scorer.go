// Package scoring implements the propensity-to-buy score: a hard relevance
// gate followed by six weighted sub-scores.
package scoring

import (
	"math"
	"strings"

	"github.com/toxscout/toxscout/internal/lead"
)

// Weights per factor. They intentionally sum to 125, not 100: the
// publication signal was bumped to 40 without rebalancing the rest, and
// downstream consumers rely on the resulting spread. Totals are not
// clamped, so a strong profile can score above 100.
var weights = map[string]float64{
	lead.FactorRole:    30,
	lead.FactorFunding: 20,
	lead.FactorTech:    15,
	lead.FactorNAM:     10,
	lead.FactorHub:     10,
	lead.FactorPubs:    40,
}

// targetRoles match a title verbatim and short-circuit role scoring to 1.0.
var targetRoles = []string{
	"director of toxicology",
	"head of toxicology",
	"head of preclinical safety",
	"director of preclinical safety",
	"safety assessment",
	"hepatic toxicology",
	"investigative toxicology",
}

// Seniority keyword tiers, checked high to medium to low; first match wins.
var (
	seniorityHigh   = []string{"director", "head", "vp", "vice president", "chief", "lead"}
	seniorityMedium = []string{"senior", "principal", "manager"}
	seniorityLow    = []string{"scientist", "associate", "specialist"}
)

// relevantDomains gate a profile into scoring at all.
var relevantDomains = []string{
	"toxicology", "toxicologist", "safety assessment", "preclinical",
	"hepatic", "investigative", "dili", "liver",
}

var techKeywords = []string{"3d", "organoid", "organ-on-chip", "microphysiological", "spheroid"}

var namKeywords = []string{"alternative methods", "nam", "reduce animal", "3rs", "in vitro"}

// Scorer computes propensity scores. It is stateless and safe for reuse.
type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

// PassesThreshold reports whether the profile mentions a relevant domain in
// its title or about text. Profiles failing the gate are not scored.
func (s *Scorer) PassesThreshold(p *lead.Profile) bool {
	title := strings.ToLower(p.Title)
	about := strings.ToLower(p.About)

	for _, domain := range relevantDomains {
		if strings.Contains(title, domain) || strings.Contains(about, domain) {
			return true
		}
	}
	return false
}

// Score returns the propensity score rounded to one decimal and a per-factor
// breakdown. Below the threshold the score is exactly zero and no factor is
// computed.
func (s *Scorer) Score(p *lead.Profile) (float64, lead.ScoreBreakdown) {
	if !s.PassesThreshold(p) {
		return 0, lead.ScoreBreakdown{}
	}

	breakdown := lead.ScoreBreakdown{
		lead.FactorRole:    s.scoreRole(p.Title, p.About) * weights[lead.FactorRole],
		lead.FactorFunding: s.scoreFunding(p.FundingStage) * weights[lead.FactorFunding],
		lead.FactorTech:    s.scoreTechAdoption(p.About, p.Skills) * weights[lead.FactorTech],
		lead.FactorNAM:     s.scoreNAMOpenness(p.About, p.Skills) * weights[lead.FactorNAM],
		lead.FactorHub:     s.scoreHub(p.BiotechHub) * weights[lead.FactorHub],
		lead.FactorPubs:    s.scorePublications(p.PublicationCount, p.HasRecentPubs) * weights[lead.FactorPubs],
	}

	return round1(breakdown.Total()), breakdown
}

// scoreRole rates role relevance in [0,1]. Target roles are a perfect
// match; otherwise seniority keywords in the title decide the tier, with
// 0.5 as default for in-domain titles of unclear seniority.
func (s *Scorer) scoreRole(title, about string) float64 {
	titleLower := strings.ToLower(title)
	aboutLower := strings.ToLower(about)

	for _, target := range targetRoles {
		if strings.Contains(titleLower, target) {
			return 1.0
		}
	}

	domainMatch := false
	for _, domain := range relevantDomains {
		if strings.Contains(titleLower, domain) || strings.Contains(aboutLower, domain) {
			domainMatch = true
			break
		}
	}
	if !domainMatch {
		return 0.0
	}

	switch {
	case containsAny(titleLower, seniorityHigh):
		return 1.0
	case containsAny(titleLower, seniorityMedium):
		return 0.6
	case containsAny(titleLower, seniorityLow):
		return 0.3
	}

	return 0.5
}

// scoreFunding favors Series A/B companies; an unknown stage is not
// penalized to zero.
func (s *Scorer) scoreFunding(stage string) float64 {
	stageLower := strings.ToLower(stage)

	switch {
	case strings.Contains(stageLower, "series a"), strings.Contains(stageLower, "series b"):
		return 1.0
	case strings.Contains(stageLower, "series c"), strings.Contains(stageLower, "seed"):
		return 0.6
	}
	return 0.3
}

func (s *Scorer) scoreTechAdoption(about, skills string) float64 {
	return keywordRatio(about+" "+skills, techKeywords, 3)
}

func (s *Scorer) scoreNAMOpenness(about, skills string) float64 {
	return keywordRatio(about+" "+skills, namKeywords, 2)
}

func (s *Scorer) scoreHub(isHub bool) float64 {
	if isHub {
		return 1.0
	}
	return 0.0
}

// scorePublications tiers the raw recent-publication count: 6+ is a perfect
// signal, 3-5 strong, 1-2 moderate.
func (s *Scorer) scorePublications(count int, hasRecent bool) float64 {
	if !hasRecent {
		return 0.0
	}

	switch {
	case count >= 6:
		return 1.0
	case count >= 3:
		return 0.7
	case count >= 1:
		return 0.5
	}
	return 0.0
}

// keywordRatio counts keyword matches in text and normalizes by cap,
// limited to 1.0. Matching is plain substring containment: "3d" inside
// "3density" counts, which is accepted heuristic imprecision.
func keywordRatio(text string, keywords []string, cap float64) float64 {
	combined := strings.ToLower(text)
	matches := 0.0
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			matches++
		}
	}
	return math.Min(matches/cap, 1.0)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
