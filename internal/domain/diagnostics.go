package domain

import "time"

// DiagnosticStatus is the outcome of one dependency check.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem reports one dependency: ffmpeg, a service key, the output
// directory, the export font or the microphone.
type DiagnosticItem struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Status  DiagnosticStatus `json:"status"`
	Message string           `json:"message"`
	Hint    string           `json:"hint,omitempty"`
	Fixable bool             `json:"fixable,omitempty"`
}

// DiagnosticReport is what the desktop, web and CLI front ends display.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HasFailures bool             `json:"hasFailures"`
	Items       []DiagnosticItem `json:"items"`
}

// NewDiagnosticReport stamps items with at. Only failed items set
// HasFailures; warnings do not block a run.
func NewDiagnosticReport(at time.Time, items []DiagnosticItem) DiagnosticReport {
	report := DiagnosticReport{GeneratedAt: at.UTC(), Items: items}
	for _, item := range items {
		if item.Status == DiagnosticStatusFail {
			report.HasFailures = true
			break
		}
	}
	return report
}

// Failed returns the items that did not pass, warnings included.
func (r DiagnosticReport) Failed() []DiagnosticItem {
	var out []DiagnosticItem
	for _, item := range r.Items {
		if item.Status != DiagnosticStatusPass {
			out = append(out, item)
		}
	}
	return out
}
