// Package harvest aggregates parsed bibliographic entries into author
// records for the alternate-source pipeline. Entries come from an external
// collaborator that already parsed the raw records; this package only
// aggregates and applies light heuristics to the affiliation text.
package harvest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/toxscout/toxscout/internal/lead"
)

// Entry is one author appearance on one publication, as parsed by the
// upstream collaborator.
type Entry struct {
	Author      string `json:"author"`
	Affiliation string `json:"affiliation"`
	Year        string `json:"year"`
}

// AuthorRecord aggregates an author's appearances. Only the most recent
// affiliation is kept: company, location and affiliation text are
// overwritten whenever a newer publication year is seen.
type AuthorRecord struct {
	Name        string
	Company     string
	Location    string
	Affiliation string
	Count       int
	RecentYear  string
}

// Aggregator merges entries by author identity.
type Aggregator struct {
	key     KeyFunc
	order   []string
	records map[string]*AuthorRecord
}

func NewAggregator(key KeyFunc) *Aggregator {
	if key == nil {
		key = NormalizedNameKey
	}
	return &Aggregator{
		key:     key,
		records: make(map[string]*AuthorRecord),
	}
}

// Add folds one entry into the aggregation.
func (a *Aggregator) Add(e Entry) {
	name := strings.TrimSpace(e.Author)
	if name == "" {
		return
	}

	key := a.key(name)
	if key == "" {
		return
	}

	record, ok := a.records[key]
	if !ok {
		record = &AuthorRecord{
			Name:        name,
			Company:     ExtractInstitution(e.Affiliation),
			Location:    ExtractLocation(e.Affiliation),
			Affiliation: e.Affiliation,
			RecentYear:  e.Year,
		}
		a.records[key] = record
		a.order = append(a.order, key)
	}

	record.Count++

	if e.Year != "" && (record.RecentYear == "" || e.Year > record.RecentYear) {
		record.Company = ExtractInstitution(e.Affiliation)
		record.Location = ExtractLocation(e.Affiliation)
		record.Affiliation = e.Affiliation
		record.RecentYear = e.Year
	}
}

// Records returns aggregated authors in first-seen order.
func (a *Aggregator) Records() []*AuthorRecord {
	out := make([]*AuthorRecord, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.records[key])
	}
	return out
}

// ReadEntries decodes a JSON Lines stream of entries, skipping blank lines.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var e Entry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, fmt.Errorf("parsing entry on line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}

	return entries, nil
}

// Profile converts the record into a scoreable profile. The affiliation
// text stands in for the about section, and a publication-count-derived
// title fills in when the affiliation names no role.
func (r *AuthorRecord) Profile() *lead.Profile {
	return &lead.Profile{
		Name:             r.Name,
		Title:            InferTitle(r.Affiliation, r.Count),
		Company:          r.Company,
		Location:         r.Location,
		About:            r.Affiliation,
		PublicationCount: r.Count,
		HasRecentPubs:    r.Count > 0,
		SourceURL:        searchURL(r.Name),
		ExtractionStatus: lead.StatusSuccess,
	}
}

func searchURL(name string) string {
	return "https://www.linkedin.com/search/results/people/?keywords=" +
		strings.ReplaceAll(strings.TrimSpace(name), " ", "%20")
}

// ExtractInstitution takes the first comma part of the affiliation, which
// is usually the institution, minus the "Department of" prefix. The result
// is capped at 100 characters.
func ExtractInstitution(affiliation string) string {
	if affiliation == "" {
		return ""
	}

	institution := affiliation
	if idx := strings.Index(affiliation, ","); idx >= 0 {
		institution = affiliation[:idx]
	}
	institution = strings.TrimSpace(strings.ReplaceAll(institution, "Department of", ""))

	if len(institution) > 100 {
		institution = institution[:100]
	}
	return institution
}

// ExtractLocation joins the last two comma parts, which typically hold
// "City, Country" or "State, Country".
func ExtractLocation(affiliation string) string {
	if affiliation == "" {
		return ""
	}

	parts := strings.Split(affiliation, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], ", ")
}

// InferTitle guesses a job title from explicit role words in the
// affiliation, falling back to a publication-count ladder.
func InferTitle(affiliation string, pubCount int) string {
	lower := strings.ToLower(affiliation)

	switch {
	case strings.Contains(lower, "professor") || strings.Contains(lower, "prof."):
		return "Professor of Toxicology"
	case strings.Contains(lower, "director") && strings.Contains(lower, "toxicology"):
		return "Director of Toxicology"
	case strings.Contains(lower, "director") && (strings.Contains(lower, "safety") || strings.Contains(lower, "preclinical")):
		return "Director of Preclinical Safety"
	case strings.Contains(lower, "director"):
		return "Research Director"
	case strings.Contains(lower, "head"):
		return "Head of Research"
	case strings.Contains(lower, "chief"):
		return "Chief Scientist"
	case strings.Contains(lower, "vp") || strings.Contains(lower, "vice president"):
		return "VP of Research"
	case strings.Contains(lower, "principal"):
		return "Principal Scientist"
	case strings.Contains(lower, "postdoc"):
		return "Postdoctoral Researcher"
	case strings.Contains(lower, "phd") || strings.Contains(lower, "ph.d"):
		if pubCount >= 10 {
			return "Senior Research Scientist"
		}
		return "Research Scientist"
	}

	switch {
	case pubCount >= 20:
		return "Senior Toxicologist"
	case pubCount >= 10:
		return "Senior Research Scientist"
	case pubCount >= 5:
		return "Research Scientist"
	}
	return "Scientist"
}
