package models

// SectionStatus classifies the outcome of one dashboard section.
// Empty is a valid result (no rows, no filings, no news) and is distinct
// from Failed; the two must never be conflated.
type SectionStatus string

const (
	StatusOk     SectionStatus = "ok"
	StatusEmpty  SectionStatus = "empty"
	StatusFailed SectionStatus = "failed"
)

// ReportSection is one subsystem's contribution to the per-request report
// snapshot the advisor reads from. Payload is non-nil only when Status is
// StatusOk; Reason is set only when Status is StatusFailed.
type ReportSection struct {
	Name    string                 `json:"name"`
	Status  SectionStatus          `json:"status"`
	Reason  string                 `json:"reason,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// OkSection builds a section carrying data.
func OkSection(name string, payload map[string]interface{}) ReportSection {
	return ReportSection{Name: name, Status: StatusOk, Payload: payload}
}

// EmptySection builds a valid-but-empty section. It carries no payload.
func EmptySection(name string) ReportSection {
	return ReportSection{Name: name, Status: StatusEmpty}
}

// FailedSection builds a section recording a fetch or processing failure.
func FailedSection(name string, reason string) ReportSection {
	return ReportSection{Name: name, Status: StatusFailed, Reason: reason}
}
