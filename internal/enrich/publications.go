package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/toxscout/toxscout/internal/lead"
)

// CountSource is the boundary to the external literature lookup: it returns
// how many relevant publications the author produced within the window and
// whether any exist at all.
type CountSource interface {
	CountRecent(ctx context.Context, author string, monthsBack int) (int, bool, error)
}

// Publications enriches a profile with its recent-publication signal. A
// lookup failure for one author must never stall the batch, so errors are
// logged and degrade to a zero count.
type Publications struct {
	source     CountSource
	monthsBack int
	logger     *zap.Logger
}

func NewPublications(source CountSource, monthsBack int, logger *zap.Logger) *Publications {
	if monthsBack <= 0 {
		monthsBack = 24
	}
	return &Publications{source: source, monthsBack: monthsBack, logger: logger}
}

func (e *Publications) Name() string { return "publications" }

func (e *Publications) Enrich(ctx context.Context, p lead.Profile) (lead.Profile, error) {
	p.PublicationCount = 0
	p.HasRecentPubs = false

	if e.source == nil || p.Name == "" {
		return p, nil
	}

	count, hasRecent, err := e.source.CountRecent(ctx, p.Name, e.monthsBack)
	if err != nil {
		e.logger.Warn("publication lookup failed",
			zap.String("author", p.Name),
			zap.Error(err),
		)
		return p, nil
	}

	p.PublicationCount = count
	p.HasRecentPubs = hasRecent
	return p, nil
}
