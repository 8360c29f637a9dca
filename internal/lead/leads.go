package lead

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Leads is an ordered collection of profiles. Order matters: ties on score
// are broken by position, so callers append in input order.
type Leads struct {
	Items []*Profile
}

func (l *Leads) Len() int {
	return len(l.Items)
}

func (l *Leads) Append(items ...*Profile) {
	l.Items = append(l.Items, items...)
}

// SortByScore orders profiles by descending score. The sort is stable so
// equal scores keep their original (input) order.
func (l *Leads) SortByScore() {
	sort.SliceStable(l.Items, func(i, j int) bool {
		return l.Items[i].Score > l.Items[j].Score
	})
}

// AssignRanks numbers rankable profiles 1..n in current order and resets
// the rank of everything else to zero. Call after SortByScore.
func (l *Leads) AssignRanks() {
	rank := 0
	for _, p := range l.Items {
		if p.Scored() {
			rank++
			p.Rank = rank
			continue
		}
		p.Rank = 0
	}
}

// Top truncates the collection to the first n profiles.
func (l *Leads) Top(n int) {
	if n > 0 && len(l.Items) > n {
		l.Items = l.Items[:n]
	}
}

// ProcessedURLs returns the set of source URLs already present in the
// collection. The pipeline uses it to skip work on resumed runs.
func (l *Leads) ProcessedURLs() map[string]bool {
	urls := make(map[string]bool, len(l.Items))
	for _, p := range l.Items {
		if p.SourceURL != "" {
			urls[p.SourceURL] = true
		}
	}
	return urls
}

// ReportByCompany groups lead summaries by company for the interactive
// report.
func (l *Leads) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range l.Items {
		key := p.Company
		if key == "" {
			key = "(unknown company)"
		}
		report[key] = append(report[key], map[string]string{
			"name":      p.Name,
			"title":     p.Title,
			"location":  p.Location,
			"email":     p.Email,
			"work_mode": p.WorkMode,
			"score":     fmt.Sprintf("%.1f", p.Score),
			"rank":      fmt.Sprintf("%d", p.Rank),
		})
	}
	return report
}

// DumpToTmpFile writes the collection as indented JSON to a temporary file
// and returns its name.
func (l *Leads) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "leads_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}
