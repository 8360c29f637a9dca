package harvest

import (
	"strings"
	"testing"
)

func TestAggregatorCountsAndRecencyOverwrite(t *testing.T) {
	agg := NewAggregator(nil)

	agg.Add(Entry{Author: "Jane Doe", Affiliation: "Old Labs, Boston, USA", Year: "2021"})
	agg.Add(Entry{Author: "Jane Doe", Affiliation: "Acme Therapeutics, San Diego, USA", Year: "2024"})
	agg.Add(Entry{Author: "Jane Doe", Affiliation: "Ancient Institute, Basel, Switzerland", Year: "2019"})

	records := agg.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	r := records[0]
	if r.Count != 3 {
		t.Fatalf("expected count 3, got %d", r.Count)
	}
	// Highest year wins; the older 2019 entry must not claw back the fields.
	if r.Company != "Acme Therapeutics" {
		t.Fatalf("expected most recent company, got %q", r.Company)
	}
	if r.Location != "San Diego, USA" {
		t.Fatalf("expected most recent location, got %q", r.Location)
	}
	if r.RecentYear != "2024" {
		t.Fatalf("expected recent year 2024, got %q", r.RecentYear)
	}
}

func TestAggregatorNormalizedIdentity(t *testing.T) {
	agg := NewAggregator(NormalizedNameKey)

	agg.Add(Entry{Author: "Jane M. Doe", Affiliation: "Acme, Boston, USA", Year: "2023"})
	agg.Add(Entry{Author: "jane doe", Affiliation: "Acme, Boston, USA", Year: "2024"})
	agg.Add(Entry{Author: "José Pérez", Affiliation: "Acme, Boston, USA", Year: "2024"})
	agg.Add(Entry{Author: "Jose Perez", Affiliation: "Acme, Boston, USA", Year: "2023"})

	records := agg.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records after normalization, got %d", len(records))
	}
	if records[0].Count != 2 || records[1].Count != 2 {
		t.Fatalf("expected both authors merged to count 2, got %d and %d", records[0].Count, records[1].Count)
	}
}

func TestAggregatorExactIdentityKeepsVariantsApart(t *testing.T) {
	agg := NewAggregator(ExactNameKey)

	agg.Add(Entry{Author: "Jane M. Doe"})
	agg.Add(Entry{Author: "Jane Doe"})

	if got := len(agg.Records()); got != 2 {
		t.Fatalf("exact identity must keep variants apart, got %d records", got)
	}
}

func TestNormalizedNameKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Jane Doe", "jane doe"},
		{"  JANE   DOE  ", "jane doe"},
		{"Jane M. Doe", "jane doe"},
		{"José Pérez", "jose perez"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizedNameKey(tc.name); got != tc.want {
			t.Fatalf("NormalizedNameKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractInstitution(t *testing.T) {
	cases := []struct {
		affiliation string
		want        string
	}{
		{"Department of Toxicology, Acme University, Boston, USA", "Toxicology"},
		{"Acme Therapeutics, San Diego, USA", "Acme Therapeutics"},
		{"Standalone Institute", "Standalone Institute"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ExtractInstitution(tc.affiliation); got != tc.want {
			t.Fatalf("ExtractInstitution(%q) = %q, want %q", tc.affiliation, got, tc.want)
		}
	}

	long := strings.Repeat("x", 150) + ", Boston, USA"
	if got := ExtractInstitution(long); len(got) != 100 {
		t.Fatalf("expected institution capped at 100 chars, got %d", len(got))
	}
}

func TestExtractLocation(t *testing.T) {
	cases := []struct {
		affiliation string
		want        string
	}{
		{"Acme University, Boston, MA, USA", "MA, USA"},
		{"Acme Therapeutics, San Diego, USA", "San Diego, USA"},
		{"Acme, Basel", "Acme, Basel"},
		{"Standalone Institute", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := ExtractLocation(tc.affiliation); got != tc.want {
			t.Fatalf("ExtractLocation(%q) = %q, want %q", tc.affiliation, got, tc.want)
		}
	}
}

func TestInferTitle(t *testing.T) {
	cases := []struct {
		affiliation string
		pubCount    int
		want        string
	}{
		{"Professor of Pathology, Acme University", 2, "Professor of Toxicology"},
		{"Director, Toxicology Unit, Acme", 2, "Director of Toxicology"},
		{"Director of Preclinical Research, Acme", 2, "Director of Preclinical Safety"},
		{"Director of Operations, Acme", 2, "Research Director"},
		{"Head, Liver Group, Acme", 2, "Head of Research"},
		{"Jane Doe PhD, Acme", 12, "Senior Research Scientist"},
		{"Jane Doe PhD, Acme", 3, "Research Scientist"},
		{"Acme Therapeutics", 25, "Senior Toxicologist"},
		{"Acme Therapeutics", 12, "Senior Research Scientist"},
		{"Acme Therapeutics", 6, "Research Scientist"},
		{"Acme Therapeutics", 1, "Scientist"},
	}

	for _, tc := range cases {
		if got := InferTitle(tc.affiliation, tc.pubCount); got != tc.want {
			t.Fatalf("InferTitle(%q, %d) = %q, want %q", tc.affiliation, tc.pubCount, got, tc.want)
		}
	}
}

func TestReadEntries(t *testing.T) {
	input := `{"author":"Jane Doe","affiliation":"Acme, Boston, USA","year":"2024"}

{"author":"John Roe","affiliation":"Beta Labs, Basel, Switzerland","year":"2023"}
`
	entries, err := ReadEntries(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Author != "Jane Doe" || entries[1].Year != "2023" {
		t.Fatalf("entries decoded incorrectly: %+v", entries)
	}

	if _, err := ReadEntries(strings.NewReader("not json\n")); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestAuthorRecordProfile(t *testing.T) {
	r := &AuthorRecord{
		Name:        "Jane Doe",
		Company:     "Acme Therapeutics",
		Location:    "Boston, USA",
		Affiliation: "Director, Toxicology Unit, Acme Therapeutics, Boston, USA",
		Count:       4,
	}

	p := r.Profile()
	if p.Title != "Director of Toxicology" {
		t.Fatalf("unexpected inferred title %q", p.Title)
	}
	if p.PublicationCount != 4 || !p.HasRecentPubs {
		t.Fatalf("publication signal lost: (%d, %v)", p.PublicationCount, p.HasRecentPubs)
	}
	if !strings.Contains(p.SourceURL, "Jane%20Doe") {
		t.Fatalf("unexpected source url %q", p.SourceURL)
	}
	if p.ExtractionStatus != "success" {
		t.Fatalf("harvested profiles count as successful extractions, got %q", p.ExtractionStatus)
	}
}
