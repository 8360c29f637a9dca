package lead

import (
	"fmt"
	"sort"
	"strings"
)

// Factor names of the propensity score, in reporting order.
const (
	FactorRole    = "role_relevance"
	FactorFunding = "funding_stage"
	FactorTech    = "tech_adoption"
	FactorNAM     = "nam_openness"
	FactorHub     = "biotech_hub"
	FactorPubs    = "recent_publications"
)

// FactorOrder fixes the order in which breakdown factors are reported.
var FactorOrder = []string{
	FactorRole,
	FactorFunding,
	FactorTech,
	FactorNAM,
	FactorHub,
	FactorPubs,
}

// ScoreBreakdown maps a factor name to the points it contributed. It exists
// purely for explainability and is never parsed back.
type ScoreBreakdown map[string]float64

// Total sums the contributed points.
func (b ScoreBreakdown) Total() float64 {
	var total float64
	for _, v := range b {
		total += v
	}
	return total
}

// String renders the breakdown as "factor=points" pairs in factor order,
// with unknown factors appended alphabetically.
func (b ScoreBreakdown) String() string {
	if len(b) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(b))
	parts := make([]string, 0, len(b))
	for _, name := range FactorOrder {
		if v, ok := b[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.1f", name, v))
			seen[name] = true
		}
	}

	rest := make([]string, 0)
	for name := range b {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		parts = append(parts, fmt.Sprintf("%s=%.1f", name, b[name]))
	}

	return strings.Join(parts, " ")
}
