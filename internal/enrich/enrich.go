// Package enrich derives secondary lead signals (email, company data, work
// mode, publication counts) from extracted profile fields.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/toxscout/toxscout/internal/lead"
)

// Enricher is a single enrichment step. Each step returns a copy of the
// profile with only its own fields set; it never touches another step's
// fields, so steps cannot clobber each other.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, p lead.Profile) (lead.Profile, error)
}

// Chain runs enrichment steps sequentially.
type Chain struct {
	steps  []Enricher
	logger *zap.Logger
}

func NewChain(logger *zap.Logger, steps ...Enricher) *Chain {
	return &Chain{steps: steps, logger: logger}
}

// Run applies every step in order. A step failure defaults that step's
// fields and is logged; it never aborts the profile, and the returned
// profile always carries the results of every succeeding step.
func (c *Chain) Run(ctx context.Context, p lead.Profile) lead.Profile {
	for _, step := range c.steps {
		next, err := step.Enrich(ctx, p)
		if err != nil {
			c.logger.Warn("enrichment step failed, keeping defaults",
				zap.String("step", step.Name()),
				zap.String("name", p.Name),
				zap.Error(err),
			)
			continue
		}
		p = next
	}
	return p
}

// Default assembles the standard enrichment chain.
func Default(logger *zap.Logger, pubs *Publications) *Chain {
	return NewChain(logger,
		NewEmail(),
		NewCompany(),
		NewWorkMode(),
		pubs,
	)
}
