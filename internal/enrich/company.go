package enrich

import (
	"context"
	"strings"

	"github.com/toxscout/toxscout/internal/lead"
)

// biotechHubs are the location substrings treated as known biotech hubs.
var biotechHubs = []string{
	"boston", "cambridge", "san diego", "san francisco",
	"bay area", "basel", "munich", "london", "seattle",
	"research triangle", "raleigh", "durham",
}

// Company annotates a profile with headquarters, hub membership and a
// funding-stage heuristic. HQ is currently a passthrough of the person's
// location; a real company database would replace it.
type Company struct{}

func NewCompany() *Company {
	return &Company{}
}

func (c *Company) Name() string { return "company" }

func (c *Company) Enrich(_ context.Context, p lead.Profile) (lead.Profile, error) {
	p.CompanyHQ = inferHQ(p.Location)
	p.BiotechHub = IsBiotechHub(p.Location)
	p.FundingStage = InferFundingStage(p.Company)
	return p, nil
}

func inferHQ(personLocation string) string {
	if personLocation == "" {
		return "Unknown"
	}
	return personLocation
}

// IsBiotechHub checks location substring membership in the hub list.
func IsBiotechHub(location string) bool {
	if location == "" {
		return false
	}

	lower := strings.ToLower(location)
	for _, hub := range biotechHubs {
		if strings.Contains(lower, hub) {
			return true
		}
	}
	return false
}

// InferFundingStage guesses the stage from the company name alone. Biotech
// naming conventions skew toward early-stage ventures; anything else is
// Unknown rather than wrong.
func InferFundingStage(company string) string {
	if company == "" {
		return "Unknown"
	}

	lower := strings.ToLower(company)
	for _, term := range []string{"therapeutics", "bio", "pharma"} {
		if strings.Contains(lower, term) {
			return "Series A/B"
		}
	}
	return "Unknown"
}
