package render

import "errors"

// Chart substitution failures are caller-visible but never abort the pass:
// every text token is still resolved before either error is returned.
var (
	ErrChartPlaceholderNotFound  = errors.New("chart placeholder not found")
	ErrAmbiguousChartPlaceholder = errors.New("ambiguous chart placeholder")
)

// EventKind labels one anomaly class observed during a rendering pass.
type EventKind string

const (
	EventUnterminatedToken         EventKind = "unterminated_token"
	EventUnresolvedToken           EventKind = "unresolved_token"
	EventChartPlaceholderNotFound  EventKind = "chart_placeholder_not_found"
	EventAmbiguousChartPlaceholder EventKind = "ambiguous_chart_placeholder"
	EventTruncatedRecommendations  EventKind = "truncated_recommendations"
)

// Event is one reported anomaly. Slide is 1-based and zero when the event
// is not tied to a slide.
type Event struct {
	Kind   EventKind
	Name   string
	Slide  int
	Detail string
}

// Report accumulates everything a pass wants the caller to see. Anomalies
// are collected, never swallowed and never fatal; the caller decides
// whether the rendered output is acceptable.
type Report struct {
	Events   []Event
	Replaced int
}

// Add records an event on the report.
func (r *Report) Add(e Event) {
	r.Events = append(r.Events, e)
}

// Count returns how many events of the given kind were recorded.
func (r *Report) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Clean reports whether the pass recorded no anomalies at all.
func (r *Report) Clean() bool {
	return len(r.Events) == 0
}
