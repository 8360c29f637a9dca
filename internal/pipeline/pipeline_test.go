package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/toxscout/toxscout/internal/enrich"
	"github.com/toxscout/toxscout/internal/lead"
	"github.com/toxscout/toxscout/internal/scoring"
)

type stubExtractor struct {
	profiles map[string]*lead.Profile
	errs     map[string]error
	calls    []string
}

func (s *stubExtractor) Extract(_ context.Context, url string) (*lead.Profile, error) {
	s.calls = append(s.calls, url)
	if err, ok := s.errs[url]; ok {
		return nil, err
	}
	p, ok := s.profiles[url]
	if !ok {
		return nil, errors.New("unknown url")
	}
	clone := *p
	clone.SourceURL = url
	clone.ExtractionStatus = lead.StatusSuccess
	return &clone, nil
}

type stubCounts struct{ count int }

func (s *stubCounts) CountRecent(_ context.Context, _ string, _ int) (int, bool, error) {
	return s.count, s.count > 0, nil
}

func newTestPipeline(t *testing.T, cfg Config, extractor *stubExtractor) (*Pipeline, *lead.Store) {
	t.Helper()

	logger := zap.NewNop()
	store := lead.NewStore(filepath.Join(t.TempDir(), "leads.csv"))
	pubs := enrich.NewPublications(&stubCounts{count: 4}, 24, logger)
	chain := enrich.Default(logger, pubs)

	return New(cfg, extractor, chain, scoring.New(), store, logger), store
}

func TestRunScoresAndRanks(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		profiles: map[string]*lead.Profile{
			"https://example.com/in/alice": {
				Name:    "Alice Moore",
				Title:   "Director of Toxicology",
				Company: "Hepatica Therapeutics",
				About:   "Organoid and organ-on-chip models, new approach methodologies",
				Skills:  "3D cell culture, NAMs",
			},
			"https://example.com/in/bob": {
				Name:    "Bob Reyes",
				Title:   "Principal Scientist, Investigative Toxicology",
				Company: "Hepatica Therapeutics",
				About:   "Organoid and organ-on-chip models, new approach methodologies",
				Skills:  "3D cell culture, NAMs",
			},
			"https://example.com/in/carol": {
				Name:    "Carol Zhu",
				Title:   "Research Associate, Safety Assessment",
				Company: "Plainview Pharma",
			},
		},
		errs: map[string]error{
			"https://example.com/in/dave": errors.New("profile unavailable"),
		},
	}

	p, store := newTestPipeline(t, Config{BatchSize: 2}, extractor)

	urls := []string{
		"https://example.com/in/alice",
		"https://example.com/in/bob",
		"https://example.com/in/carol",
		"https://example.com/in/dave",
	}

	summary, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Processed != 4 {
		t.Fatalf("expected 4 processed, got %d", summary.Processed)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", summary.Failed)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("loading results: %v", err)
	}
	if saved.Len() != 4 {
		t.Fatalf("expected 4 persisted rows, got %d", saved.Len())
	}

	// Alice and Bob tie on every factor; Alice came first in the input, so
	// the stable sort keeps her ahead.
	if saved.Items[0].Name != "Alice Moore" || saved.Items[0].Rank != 1 {
		t.Fatalf("expected Alice Moore at rank 1, got %q rank %d", saved.Items[0].Name, saved.Items[0].Rank)
	}
	if saved.Items[1].Name != "Bob Reyes" || saved.Items[1].Rank != 2 {
		t.Fatalf("expected Bob Reyes at rank 2, got %q rank %d", saved.Items[1].Name, saved.Items[1].Rank)
	}
	if saved.Items[0].Score != saved.Items[1].Score {
		t.Fatalf("expected a tie, got %v vs %v", saved.Items[0].Score, saved.Items[1].Score)
	}
	if saved.Items[2].Name != "Carol Zhu" || saved.Items[2].Rank != 3 {
		t.Fatalf("expected Carol Zhu at rank 3, got %q rank %d", saved.Items[2].Name, saved.Items[2].Rank)
	}

	// The failed extraction persists as an unranked zero-score row.
	last := saved.Items[3]
	if last.SourceURL != "https://example.com/in/dave" {
		t.Fatalf("expected failed row last, got %q", last.SourceURL)
	}
	if last.Rank != 0 || last.Score != 0 {
		t.Fatalf("failed row must stay unranked, got rank %d score %v", last.Rank, last.Score)
	}
}

func TestRunSkipsAlreadyProcessed(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		profiles: map[string]*lead.Profile{
			"https://example.com/in/alice": {
				Name:    "Alice Moore",
				Title:   "Director of Toxicology",
				Company: "Hepatica Therapeutics",
			},
		},
	}

	p, _ := newTestPipeline(t, Config{BatchSize: 5}, extractor)

	urls := []string{"https://example.com/in/alice"}
	if _, err := p.Run(context.Background(), urls); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(extractor.calls) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(extractor.calls))
	}

	summary, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(extractor.calls) != 1 {
		t.Fatalf("resumed run must not re-extract, got %d calls", len(extractor.calls))
	}
	if summary.AlreadyProcessed != 1 || summary.Processed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunDropsBelowThresholdByDefault(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		profiles: map[string]*lead.Profile{
			"https://example.com/in/eve": {
				Name:  "Eve Stone",
				Title: "Marketing Manager",
			},
		},
	}

	p, store := newTestPipeline(t, Config{}, extractor)

	summary, err := p.Run(context.Background(), []string{"https://example.com/in/eve"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Rejected != 1 {
		t.Fatalf("expected 1 rejection, got %d", summary.Rejected)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("loading results: %v", err)
	}
	if saved.Len() != 0 {
		t.Fatalf("rejected profile must not persist, got %d rows", saved.Len())
	}
}

func TestRunKeepsRejectedWhenConfigured(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		profiles: map[string]*lead.Profile{
			"https://example.com/in/eve": {
				Name:  "Eve Stone",
				Title: "Marketing Manager",
			},
		},
	}

	p, store := newTestPipeline(t, Config{KeepRejected: true}, extractor)

	if _, err := p.Run(context.Background(), []string{"https://example.com/in/eve"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := store.Load()
	if err != nil {
		t.Fatalf("loading results: %v", err)
	}
	if saved.Len() != 1 {
		t.Fatalf("expected 1 retained row, got %d", saved.Len())
	}
	if saved.Items[0].Score != 0 || saved.Items[0].Rank != 0 {
		t.Fatalf("retained rejection must carry zero score and rank, got %+v", saved.Items[0])
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		profiles: map[string]*lead.Profile{
			"https://example.com/in/alice": {Name: "Alice Moore", Title: "Director of Toxicology"},
		},
	}

	p, _ := newTestPipeline(t, Config{}, extractor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx, []string{"https://example.com/in/alice"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(extractor.calls) != 0 {
		t.Fatalf("cancelled run must not extract, got %d calls", len(extractor.calls))
	}
}
