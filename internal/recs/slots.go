// Package recs produces the strategic recommendations section of a
// report: an ordered list of title/rationale records, generated by a chat
// model or supplied manually, and expanded into the enumerated REC_N_*
// replacement keys the template consumes.
package recs

import "fmt"

// Recommendation is one strategic recommendation for the client.
type Recommendation struct {
	Title     string `json:"title"`
	Rationale string `json:"rationale"`
}

// MaxSlots is how many recommendation rows the template carries.
const MaxSlots = 10

// SlotPolicy decides what the mapper emits for slots beyond the supplied
// records.
type SlotPolicy int

const (
	// BlankEmptySlots maps unused slots to empty strings so the rendered
	// deck never shows literal tokens in unused rows.
	BlankEmptySlots SlotPolicy = iota
	// OmitEmptySlots leaves unused slots out of the map entirely; their
	// template tokens stay unresolved for the caller to hide.
	OmitEmptySlots
)

// SlotMap expands recommendations into REC_1_TITLE..REC_10_TITLE and
// REC_1_RATIONALE..REC_10_RATIONALE. Records beyond MaxSlots are dropped;
// the second return value is how many were dropped so the caller can
// report the truncation.
func SlotMap(recs []Recommendation, policy SlotPolicy) (map[string]string, int) {
	truncated := 0
	if len(recs) > MaxSlots {
		truncated = len(recs) - MaxSlots
		recs = recs[:MaxSlots]
	}
	out := make(map[string]string, 2*MaxSlots)
	for i := 0; i < MaxSlots; i++ {
		titleKey := fmt.Sprintf("REC_%d_TITLE", i+1)
		rationaleKey := fmt.Sprintf("REC_%d_RATIONALE", i+1)
		if i < len(recs) {
			out[titleKey] = recs[i].Title
			out[rationaleKey] = recs[i].Rationale
			continue
		}
		if policy == BlankEmptySlots {
			out[titleKey] = ""
			out[rationaleKey] = ""
		}
	}
	return out, truncated
}
