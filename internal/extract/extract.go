// Package extract defines the boundary to the profile-extraction
// collaborator and ships a Gemini-backed implementation.
package extract

import (
	"context"

	"github.com/toxscout/toxscout/internal/lead"
)

// Extractor turns a source URL into a candidate profile. Implementations
// live outside the scoring core; the pipeline only relies on this contract.
type Extractor interface {
	Extract(ctx context.Context, url string) (*lead.Profile, error)
}
