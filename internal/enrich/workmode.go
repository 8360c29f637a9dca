package enrich

import (
	"context"
	"strings"

	"github.com/toxscout/toxscout/internal/lead"
)

const (
	WorkModeRemote = "Remote"
	WorkModeOnsite = "Onsite"
)

var remoteKeywords = []string{"remote", "distributed", "virtual", "work from home", "wfh"}

// WorkMode classifies a role as remote or onsite from free text. Onsite is
// the default when nothing signals otherwise.
type WorkMode struct{}

func NewWorkMode() *WorkMode {
	return &WorkMode{}
}

func (w *WorkMode) Name() string { return "work_mode" }

func (w *WorkMode) Enrich(_ context.Context, p lead.Profile) (lead.Profile, error) {
	p.WorkMode = InferWorkMode(p.Title, p.Location, p.About)
	return p, nil
}

// InferWorkMode matches remote keywords against the combined title,
// location and about text.
func InferWorkMode(title, location, about string) string {
	combined := strings.ToLower(title + " " + location + " " + about)
	for _, kw := range remoteKeywords {
		if strings.Contains(combined, kw) {
			return WorkModeRemote
		}
	}
	return WorkModeOnsite
}
