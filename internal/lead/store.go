package lead

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Output columns, in order. They match the dashboard format consumed
// downstream, so the order is part of the contract.
var outputColumns = []string{
	"rank",
	"probability_score",
	"name",
	"title",
	"company",
	"person_location",
	"company_hq",
	"work_mode",
	"email",
	"linkedin_url",
	"publications",
}

// Store persists leads to a CSV file. A run re-reading its own output must
// see exactly what was written, so Save and Load are inverse operations for
// the persisted columns.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads previously persisted leads. A missing file is not an error:
// it simply means no prior run, so the result set is empty.
func (s *Store) Load() (*Leads, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Leads{}, nil
		}
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return &Leads{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading results header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	leads := &Leads{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading results row: %w", err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		p := &Profile{
			Name:      field("name"),
			Title:     field("title"),
			Company:   field("company"),
			Location:  field("person_location"),
			CompanyHQ: field("company_hq"),
			WorkMode:  field("work_mode"),
			Email:     field("email"),
			SourceURL: field("linkedin_url"),
		}
		p.Rank, _ = strconv.Atoi(field("rank"))
		p.Score, _ = strconv.ParseFloat(field("probability_score"), 64)
		p.PublicationCount, _ = strconv.Atoi(field("publications"))

		// The persisted format carries no status column; a positive
		// score implies the extraction succeeded.
		p.ExtractionStatus = StatusFailed
		if p.Score > 0 {
			p.ExtractionStatus = StatusSuccess
		}

		leads.Append(p)
	}

	return leads, nil
}

// Save writes the collection atomically: the new content lands in a
// temporary file first and replaces the target via rename, so an aborted
// write keeps the previous good state on disk.
func (s *Store) Save(leads *Leads) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".toxscout_*.csv")
	if err != nil {
		return fmt.Errorf("creating temp results file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write(outputColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("writing results header: %w", err)
	}

	for _, p := range leads.Items {
		row := []string{
			strconv.Itoa(p.Rank),
			formatScore(p.Score),
			p.Name,
			p.Title,
			p.Company,
			p.Location,
			p.CompanyHQ,
			p.WorkMode,
			p.Email,
			p.SourceURL,
			strconv.Itoa(p.PublicationCount),
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing results row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp results file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing results file: %w", err)
	}
	return nil
}

// LoadSourceURLs reads the input CSV and returns the first column as the
// ordered list of source URLs. A header row is detected by the absence of
// a URL scheme and skipped.
func LoadSourceURLs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var urls []string
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		value := strings.TrimSpace(row[0])
		if first {
			first = false
			if !strings.Contains(value, "://") {
				continue
			}
		}
		if value != "" {
			urls = append(urls, value)
		}
	}

	return urls, nil
}

// formatScore renders a score with at most one decimal place, dropping the
// fraction entirely for whole numbers.
func formatScore(score float64) string {
	formatted := strconv.FormatFloat(score, 'f', 1, 64)
	return strings.TrimSuffix(formatted, ".0")
}
