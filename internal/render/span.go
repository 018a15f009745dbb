package render

import "github.com/mspforge/qbrgen/internal/deck"

// runSpan maps a concatenated-text span back onto run boundaries. A token
// found at [start, end) in a paragraph's joined text may begin in one run
// and finish in another; first/last are run indices and firstOff/lastOff
// are the intra-run offsets of the span's edges.
type runSpan struct {
	first    int
	last     int
	firstOff int
	lastOff  int
}

// reconcile locates the runs a [start, end) span touches. It returns false
// only when the span falls outside the paragraph's text, which indicates a
// stale scan. A span contained in a single run yields first == last.
func reconcile(runs []*deck.Run, start, end int) (runSpan, bool) {
	if start < 0 || end < start {
		return runSpan{}, false
	}
	span := runSpan{first: -1, last: -1}
	off := 0
	for i, r := range runs {
		next := off + len(r.Text)
		if span.first < 0 && start < next {
			span.first = i
			span.firstOff = start - off
		}
		if span.first >= 0 && end <= next {
			span.last = i
			span.lastOff = end - off
			return span, true
		}
		off = next
	}
	return runSpan{}, false
}

// apply rewrites the touched runs so the span's text becomes replacement.
// The first touched run keeps its format and gains the replacement; fully
// covered middle runs are emptied but kept, since deleting runs can
// destabilize sibling structures the serializer depends on; the last
// touched run keeps only the text after the span.
func apply(p *deck.Paragraph, s runSpan, replacement string) {
	firstRun := p.Runs[s.first]
	if s.first == s.last {
		firstRun.Text = firstRun.Text[:s.firstOff] + replacement + firstRun.Text[s.lastOff:]
		return
	}
	lastRun := p.Runs[s.last]
	firstRun.Text = firstRun.Text[:s.firstOff] + replacement
	for i := s.first + 1; i < s.last; i++ {
		p.Runs[i].Text = ""
	}
	lastRun.Text = lastRun.Text[s.lastOff:]
}
