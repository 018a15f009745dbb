// Package chart renders the support-distribution graphic inserted into
// the deck: one stacked horizontal bar splitting the quarter's tickets
// into proactive and reactive work. Pure raster drawing; the output is
// PNG bytes for the chart placeholder shape.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	proactiveColor = color.RGBA{R: 0x22, G: 0xC5, B: 0x5E, A: 0xFF}
	reactiveColor  = color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF}
	titleColor     = color.RGBA{R: 0x2E, G: 0x5C, B: 0x8A, A: 0xFF}
	axisColor      = color.RGBA{R: 0x4A, G: 0x55, B: 0x68, A: 0xFF}
	white          = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// Options sizes the output. Zero values take defaults.
type Options struct {
	Width  int // default 900
	Height int // default 350
}

// SupportDistribution renders the proactive/reactive split as PNG bytes.
// When both percentages are zero (no typed tickets in the period) the bar
// falls back to an even 50/50 so the graphic stays readable.
func SupportDistribution(proactivePct, reactivePct float64, opts Options) ([]byte, error) {
	if proactivePct < 0 || reactivePct < 0 {
		return nil, fmt.Errorf("negative percentage: %.1f/%.1f", proactivePct, reactivePct)
	}
	if proactivePct == 0 && reactivePct == 0 {
		proactivePct, reactivePct = 50, 50
	}

	w := opts.Width
	if w <= 0 {
		w = 900
	}
	h := opts.Height
	if h <= 0 {
		h = 350
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	drawCentered(img, "Proactive vs. Reactive Support Distribution", w/2, 30, titleColor)

	// Bar geometry: horizontal stacked segments filling the margin box in
	// proportion to each share.
	left, right := w/10, w-w/10
	barTop, barBottom := h/3, h/3+h/5
	total := proactivePct + reactivePct
	split := left + int(float64(right-left)*proactivePct/total)

	fill(img, left, barTop, split, barBottom, proactiveColor)
	fill(img, split, barTop, right, barBottom, reactiveColor)

	// In-bar percentage labels; skip slivers under 10% as unreadable.
	midY := (barTop+barBottom)/2 + 4
	if proactivePct >= 10 {
		drawCentered(img, fmt.Sprintf("%d%%", int(proactivePct)), (left+split)/2, midY, white)
	}
	if reactivePct >= 10 {
		drawCentered(img, fmt.Sprintf("%d%%", int(reactivePct)), (split+right)/2, midY, white)
	}

	legendY := barBottom + h/6
	drawLegend(img, left, legendY, proactiveColor, fmt.Sprintf("Proactive (%d%%)", int(proactivePct)))
	drawLegend(img, w/2, legendY, reactiveColor, fmt.Sprintf("Reactive (%d%%)", int(reactivePct)))
	drawCentered(img, "Percentage of Total Tickets (%)", w/2, h-15, axisColor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

func fill(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func drawCentered(img *image.RGBA, s string, cx, baseline int, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: c},
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(baseline),
	}
	d.DrawString(s)
}

func drawLegend(img *image.RGBA, x, y int, c color.RGBA, label string) {
	fill(img, x, y-10, x+12, y+2, c)
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: axisColor},
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x + 18), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
