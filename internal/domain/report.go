package domain

import "time"

// ImportFailure is one item a paged import could not materialize.
type ImportFailure struct {
	Label      string
	ExternalID string
	Err        error
}

// ImportReport collects the per-item results of one paged import.
type ImportReport struct {
	Kind       Kind
	Pages      int
	Succeeded  []Record
	Failed     []ImportFailure
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether every item was imported.
func (r *ImportReport) OK() bool { return len(r.Failed) == 0 }

// ImportFailureSummary is the serializable form of an ImportFailure.
type ImportFailureSummary struct {
	Label      string `json:"label"`
	ExternalID string `json:"eb_id,omitempty"`
	Error      string `json:"error"`
}

// ImportReportSummary is the serializable form of an ImportReport.
// swagger:model ImportReportSummary
type ImportReportSummary struct {
	Kind       Kind                   `json:"kind"`
	Pages      int                    `json:"pages"`
	Imported   int                    `json:"imported"`
	Failed     int                    `json:"failed"`
	Failures   []ImportFailureSummary `json:"failures"`
	DurationMS int64                  `json:"duration_ms"`
}

// Summary flattens the report for logs, e-mails and API responses.
func (r *ImportReport) Summary() ImportReportSummary {
	s := ImportReportSummary{
		Kind:       r.Kind,
		Pages:      r.Pages,
		Imported:   len(r.Succeeded),
		Failed:     len(r.Failed),
		Failures:   make([]ImportFailureSummary, 0, len(r.Failed)),
		DurationMS: r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
	for _, f := range r.Failed {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		s.Failures = append(s.Failures, ImportFailureSummary{Label: f.Label, ExternalID: f.ExternalID, Error: msg})
	}
	return s
}
