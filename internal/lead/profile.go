package lead

// Extraction statuses recorded on a profile.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Profile is a single candidate lead. It is built incrementally: the
// extractor fills the identity fields, every enricher returns a copy with
// its own fields set, and the scorer adds Score and Breakdown. Once a
// profile is persisted it is never mutated again.
type Profile struct {
	Name     string `json:"name,omitempty" mapstructure:"name"`
	Title    string `json:"title,omitempty" mapstructure:"title"`
	Company  string `json:"company,omitempty" mapstructure:"company"`
	Location string `json:"location,omitempty" mapstructure:"location"`
	About    string `json:"about,omitempty" mapstructure:"about"`
	Skills   string `json:"skills,omitempty" mapstructure:"skills"`

	Email            string `json:"email,omitempty"`
	CompanyHQ        string `json:"company_hq,omitempty"`
	BiotechHub       bool   `json:"is_biotech_hub,omitempty"`
	FundingStage     string `json:"funding_stage,omitempty"`
	WorkMode         string `json:"work_mode,omitempty"`
	PublicationCount int    `json:"publication_count,omitempty"`
	HasRecentPubs    bool   `json:"has_recent_pubs,omitempty"`

	Score     float64        `json:"probability_score"`
	Breakdown ScoreBreakdown `json:"score_breakdown,omitempty"`

	Rank             int    `json:"rank"`
	SourceURL        string `json:"linkedin_url,omitempty"`
	ExtractionStatus string `json:"extraction_status,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Scored reports whether the profile may receive a rank: only successful
// extractions with a positive score participate in ranking.
func (p *Profile) Scored() bool {
	return p.ExtractionStatus == StatusSuccess && p.Score > 0
}

// Failed builds a zero-score placeholder row for a profile that could not
// be extracted. Placeholders are kept in the output for auditability.
func Failed(sourceURL, reason string) *Profile {
	if reason == "" {
		reason = "unknown error"
	}
	return &Profile{
		SourceURL:        sourceURL,
		ExtractionStatus: StatusFailed,
		Error:            reason,
	}
}
