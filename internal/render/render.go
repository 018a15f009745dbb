// Package render performs one substitution pass over a deck: it walks
// every text-bearing location, resolves {{NAME}} placeholders against a
// replacement map, and swaps the designated chart placeholder shape for a
// picture with the same geometry. The pass is strictly sequential and
// mutates the document exactly once.
package render

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mspforge/qbrgen/internal/deck"
	"github.com/mspforge/qbrgen/internal/token"
)

// UnresolvedPolicy decides what happens to a well-formed token whose name
// is not in the replacement map.
type UnresolvedPolicy int

const (
	// LeavePlaceholder keeps the literal token text, which makes template
	// gaps visible in the output deck.
	LeavePlaceholder UnresolvedPolicy = iota
	// BlankPlaceholder removes the token text for a clean deck.
	BlankPlaceholder
)

// DefaultChartToken is the reserved placeholder marking the one shape that
// gets replaced by the chart image.
const DefaultChartToken = "CHART_PLACEHOLDER"

// Renderer configures one substitution pass. Replacements is read-only for
// the duration of the pass; names are matched exactly and case-sensitively.
type Renderer struct {
	Replacements map[string]string

	// ChartToken defaults to DefaultChartToken. The shape whose text
	// contains it is replaced by ChartImage; when ChartImage is nil the
	// chart step is skipped entirely and the token is left in place.
	ChartToken     string
	ChartImage     []byte
	ChartImageName string

	Unresolved UnresolvedPolicy
}

// chartSite remembers where the chart placeholder shape sits so the one
// shape-level edit can be applied after the text walk, serialized with
// respect to its parent's child sequence.
type chartSite struct {
	parent []deck.Shape
	index  int
	box    deck.BBox
	slide  int
}

// Render runs the pass. The returned report is never nil and always covers
// the whole document; the error is limited to the chart placeholder
// conditions, which do not stop text substitution.
func (r *Renderer) Render(doc *deck.Document) (*Report, error) {
	rep := &Report{}
	chartName := r.ChartToken
	if chartName == "" {
		chartName = DefaultChartToken
	}

	var sites []chartSite
	for si, slide := range doc.Slides {
		r.walkShapes(slide.Shapes, si+1, chartName, rep, &sites)
	}

	if r.ChartImage == nil {
		return rep, nil
	}
	switch len(sites) {
	case 0:
		rep.Add(Event{Kind: EventChartPlaceholderNotFound, Name: chartName})
		log.Warn().Str("token", chartName).Msg("chart placeholder not found")
		return rep, ErrChartPlaceholderNotFound
	case 1:
		site := sites[0]
		name := r.ChartImageName
		if name == "" {
			name = "chart.png"
		}
		site.parent[site.index] = &deck.PictureShape{Name: name, Image: r.ChartImage, Box: site.box}
		log.Debug().Int("slide", site.slide).Msg("chart image inserted")
		return rep, nil
	default:
		rep.Add(Event{
			Kind:   EventAmbiguousChartPlaceholder,
			Name:   chartName,
			Detail: fmt.Sprintf("%d matching shapes", len(sites)),
		})
		log.Warn().Int("matches", len(sites)).Str("token", chartName).Msg("ambiguous chart placeholder")
		return rep, ErrAmbiguousChartPlaceholder
	}
}

// walkShapes visits shapes in document order, pre-order through groups.
// Order matters: recommendation slots written into a row-per-record table
// must land in their row consistently.
func (r *Renderer) walkShapes(shapes []deck.Shape, slide int, chartName string, rep *Report, sites *[]chartSite) {
	for i, s := range shapes {
		switch sh := s.(type) {
		case *deck.TextShape:
			if r.processFrame(&sh.Frame, slide, chartName, rep) {
				*sites = append(*sites, chartSite{parent: shapes, index: i, box: sh.Box, slide: slide})
			}
		case *deck.TableShape:
			hasChart := false
			for _, row := range sh.Rows {
				for _, cell := range row {
					if r.processFrame(cell, slide, chartName, rep) {
						hasChart = true
					}
				}
			}
			if hasChart {
				*sites = append(*sites, chartSite{parent: shapes, index: i, box: sh.Box, slide: slide})
			}
		case *deck.GroupShape:
			r.walkShapes(sh.Children, slide, chartName, rep, sites)
		case *deck.PictureShape:
			// No text; pictures are only ever the output of chart insertion.
		}
	}
}

// processFrame resolves every token in the frame's paragraphs and reports
// whether any paragraph carries the reserved chart token.
func (r *Renderer) processFrame(f *deck.TextFrame, slide int, chartName string, rep *Report) bool {
	hasChart := false
	for _, p := range f.Paragraphs {
		text := p.Text()
		for _, off := range token.ScanUnterminated(text) {
			rep.Add(Event{
				Kind:   EventUnterminatedToken,
				Slide:  slide,
				Detail: fmt.Sprintf("opener at offset %d", off),
			})
			log.Debug().Int("slide", slide).Int("offset", off).Msg("unterminated token left as literal text")
		}

		matches := token.Scan(text)
		// Right to left, so earlier spans stay valid as runs mutate.
		for mi := len(matches) - 1; mi >= 0; mi-- {
			m := matches[mi]
			if m.Name == chartName {
				hasChart = true
				continue
			}
			val, ok := r.Replacements[m.Name]
			if !ok {
				rep.Add(Event{Kind: EventUnresolvedToken, Name: m.Name, Slide: slide})
				log.Debug().Str("token", m.Name).Int("slide", slide).Msg("unresolved token")
				if r.Unresolved != BlankPlaceholder {
					continue
				}
				val = ""
			}
			span, ok := reconcile(p.Runs, m.Start, m.End)
			if !ok {
				// Scan and runs disagree; leave the text untouched rather
				// than corrupt the paragraph.
				log.Warn().Str("token", m.Name).Int("slide", slide).Msg("span outside paragraph runs")
				continue
			}
			apply(p, span, val)
			rep.Replaced++
		}
	}
	return hasChart
}
