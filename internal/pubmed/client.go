// Package pubmed looks up recent relevant publication counts for an author
// through the NCBI E-utilities search endpoint.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toxscout/toxscout/internal/resilience"
)

const (
	defaultAPIURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	searchPath    = "/esearch.fcgi"
	userAgent     = "toxscout/lead-pipeline"

	// retMax caps the reported count; anything past 20 recent relevant
	// papers scores the same anyway.
	retMax = 20
)

// Keywords that make a publication relevant to liver-toxicity lead scoring.
var relevantKeywords = []string{
	"liver toxicity",
	"DILI",
	"hepatotoxicity",
	"3D cell culture",
	"organoid",
	"microphysiological",
	"organ-on-chip",
	"spheroid",
}

// Client queries the literature search service. The zero APIURL and
// HTTPClient are replaced with production defaults in New; tests point
// APIURL at a local server.
type Client struct {
	logger     *zap.Logger
	executor   *resilience.Executor
	HTTPClient *http.Client
	APIURL     string
	UserAgent  string

	now func() time.Time
}

func New(logger *zap.Logger, policy resilience.Policy) *Client {
	return &Client{
		logger:   logger,
		executor: resilience.NewExecutor("pubmed_search", policy, logger),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		APIURL:    defaultAPIURL,
		UserAgent: userAgent,
		now:       time.Now,
	}
}

type searchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// CountRecent returns how many relevant publications the author produced
// within the window and whether there is at least one. The window lower
// bound is now minus monthsBack*30 days, a deliberate day-count
// approximation rather than calendar months. Failures after retries are
// returned for the caller to degrade on; they carry no partial count.
func (c *Client) CountRecent(ctx context.Context, author string, monthsBack int) (int, bool, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return 0, false, nil
	}
	if monthsBack <= 0 {
		monthsBack = 24
	}

	query := c.buildQuery(author, monthsBack)

	var count int
	err := c.executor.Do(ctx, "esearch", func(ctx context.Context) error {
		n, err := c.search(ctx, query)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("searching publications for %q: %w", author, err)
	}

	return count, count > 0, nil
}

func (c *Client) buildQuery(author string, monthsBack int) string {
	dateLimit := c.now().AddDate(0, 0, -monthsBack*30).Format("2006/01/02")

	terms := make([]string, 0, len(relevantKeywords))
	for _, kw := range relevantKeywords {
		terms = append(terms, fmt.Sprintf("%q[Title/Abstract]", kw))
	}

	return fmt.Sprintf(`%q[Author] AND (%s) AND (%q[Date - Publication] : "3000"[Date - Publication])`,
		author,
		strings.Join(terms, " OR "),
		dateLimit,
	)
}

func (c *Client) search(ctx context.Context, query string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+searchPath, nil)
	if err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmax", fmt.Sprintf("%d", retMax))
	q.Set("retmode", "json")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("pubmed search request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("bad status: %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decoding esearch response: %w", err)
	}

	return len(parsed.ESearchResult.IDList), nil
}
