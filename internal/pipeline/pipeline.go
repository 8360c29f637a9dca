// Package pipeline drives batches of source URLs through extraction,
// threshold gating, enrichment, scoring and resumable persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/toxscout/toxscout/internal/enrich"
	"github.com/toxscout/toxscout/internal/extract"
	"github.com/toxscout/toxscout/internal/lead"
	"github.com/toxscout/toxscout/internal/scoring"
	"github.com/toxscout/toxscout/internal/utils"
)

// Config holds the orchestrator's scheduling and retention policy. All
// pauses exist purely for external rate-limit compliance, never for
// correctness, and every wait honors context cancellation.
type Config struct {
	BatchSize    int
	BatchPause   time.Duration
	ProfilePause time.Duration
	// KeepRejected retains threshold-failing profiles as zero-score rows
	// instead of dropping them.
	KeepRejected bool
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	return c
}

// Summary describes one pipeline run.
type Summary struct {
	QueueTotal       int
	AlreadyProcessed int
	Processed        int
	Extracted        int
	Rejected         int
	Failed           int
}

// Pipeline is the batch orchestrator. Profiles are processed one at a
// time; results are merged with prior output, re-sorted and persisted
// after every batch, so an abrupt failure loses at most one batch.
type Pipeline struct {
	cfg       Config
	extractor extract.Extractor
	enrichers *enrich.Chain
	scorer    *scoring.Scorer
	store     *lead.Store
	logger    *zap.Logger
	limiter   *rate.Limiter
}

func New(cfg Config, extractor extract.Extractor, enrichers *enrich.Chain, scorer *scoring.Scorer, store *lead.Store, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.ProfilePause > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.ProfilePause), 1)
	}

	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		enrichers: enrichers,
		scorer:    scorer,
		store:     store,
		logger:    logger,
		limiter:   limiter,
	}
}

// Run processes the given source URLs. URLs already present in the output
// are filtered out first, so re-running against the same destination never
// duplicates work: with no new URLs the run processes zero records.
func (p *Pipeline) Run(ctx context.Context, urls []string) (*Summary, error) {
	existing, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading existing results: %w", err)
	}

	processed := existing.ProcessedURLs()
	queue := make([]string, 0, len(urls))
	queued := make(map[string]bool, len(urls))
	for _, url := range urls {
		if processed[url] || queued[url] {
			continue
		}
		queue = append(queue, url)
		queued[url] = true
	}

	summary := &Summary{
		QueueTotal:       len(urls),
		AlreadyProcessed: len(urls) - len(queue),
	}

	p.logger.Info("starting pipeline run",
		zap.Int("input_urls", len(urls)),
		zap.Int("already_processed", summary.AlreadyProcessed),
		zap.Int("to_process", len(queue)),
	)

	if len(queue) == 0 {
		return summary, nil
	}

	batches := (len(queue) + p.cfg.BatchSize - 1) / p.cfg.BatchSize
	for b := 0; b < batches; b++ {
		start := b * p.cfg.BatchSize
		end := min(start+p.cfg.BatchSize, len(queue))

		p.logger.Info("processing batch",
			zap.Int("batch", b+1),
			zap.Int("batches", batches),
			zap.Int("size", end-start),
		)

		batch, err := p.processBatch(ctx, queue[start:end], summary)
		if err != nil {
			return summary, err
		}

		existing.Append(batch...)
		existing.SortByScore()
		existing.AssignRanks()

		if err := p.store.Save(existing); err != nil {
			return summary, fmt.Errorf("persisting batch %d: %w", b+1, err)
		}

		p.logger.Info("batch persisted",
			zap.Int("batch", b+1),
			zap.String("output", p.store.Path()),
			zap.Int("total_rows", existing.Len()),
		)

		if end < len(queue) && p.cfg.BatchPause > 0 {
			p.logger.Info("waiting before next batch", zap.Duration("pause", p.cfg.BatchPause))
			if err := utils.WaitFor(ctx, p.cfg.BatchPause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func (p *Pipeline) processBatch(ctx context.Context, urls []string, summary *Summary) ([]*lead.Profile, error) {
	batch := make([]*lead.Profile, 0, len(urls))

	for _, url := range urls {
		if err := p.limiter.Wait(ctx); err != nil {
			return batch, err
		}

		summary.Processed++

		profile, err := p.extractor.Extract(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			p.logger.Warn("extraction failed",
				zap.String("url", url),
				zap.Error(err),
			)
			summary.Failed++
			batch = append(batch, lead.Failed(url, err.Error()))
			continue
		}

		summary.Extracted++

		if !p.scorer.PassesThreshold(profile) {
			summary.Rejected++
			if !p.cfg.KeepRejected {
				p.logger.Info("skipping profile below relevance threshold",
					zap.String("name", profile.Name),
					zap.String("title", profile.Title),
				)
				continue
			}
			// Retained for auditability: zero score, never ranked.
			profile.Score = 0
			profile.Breakdown = lead.ScoreBreakdown{}
			batch = append(batch, profile)
			continue
		}

		enriched := p.enrichers.Run(ctx, *profile)
		enriched.Score, enriched.Breakdown = p.scorer.Score(&enriched)

		p.logger.Info("profile scored",
			zap.String("name", enriched.Name),
			zap.String("company", enriched.Company),
			zap.Float64("score", enriched.Score),
		)

		batch = append(batch, &enriched)
	}

	return batch, nil
}
