package services

import (
	"sync"

	"github.com/finsightlab/finsight-go/internal/models"
)

// Aggregate collects sections into a per-name map. Later sections with
// the same name overwrite earlier ones: one section per name per
// reporting cycle. Sections are sanitized so status and payload stay
// consistent (only Ok sections carry payloads, only Failed sections carry
// reasons). Pure merge, no I/O.
func Aggregate(sections []models.ReportSection) map[string]models.ReportSection {
	out := make(map[string]models.ReportSection, len(sections))
	for _, s := range sections {
		out[s.Name] = sanitizeSection(s)
	}
	return out
}

func sanitizeSection(s models.ReportSection) models.ReportSection {
	switch s.Status {
	case models.StatusOk:
		s.Reason = ""
	case models.StatusEmpty:
		s.Reason = ""
		s.Payload = nil
	case models.StatusFailed:
		s.Payload = nil
	}
	return s
}

// ReportAggregator accumulates the sections produced during one user
// interaction into a single snapshot for the advisor to read. It lives
// for one request/response cycle and is owned by the session.
type ReportAggregator struct {
	mu       sync.Mutex
	sections map[string]models.ReportSection
	order    []string // first-seen name order, for deterministic prompts
}

// NewReportAggregator creates an empty aggregator.
func NewReportAggregator() *ReportAggregator {
	return &ReportAggregator{sections: make(map[string]models.ReportSection)}
}

// Put records a section, replacing any earlier section with the same
// name.
func (a *ReportAggregator) Put(section models.ReportSection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.sections[section.Name]; !seen {
		a.order = append(a.order, section.Name)
	}
	a.sections[section.Name] = sanitizeSection(section)
}

// Get returns the section with the given name.
func (a *ReportAggregator) Get(name string) (models.ReportSection, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sections[name]
	return s, ok
}

// Snapshot returns every section in first-seen name order.
func (a *ReportAggregator) Snapshot() []models.ReportSection {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ReportSection, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.sections[name])
	}
	return out
}

// Reset drops every section, starting a fresh reporting cycle.
func (a *ReportAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sections = make(map[string]models.ReportSection)
	a.order = nil
}
