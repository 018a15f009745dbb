// Package deck holds the in-memory slide document model the renderer
// mutates: ordered slides, each an ordered sequence of shapes, with text
// carried as frames of paragraphs split into formatting runs. The model is
// deliberately small; everything the serializer needs to round-trip a deck
// without understanding it (run formatting above all) travels as opaque
// values.
package deck

// BBox is a shape's position and size in document length units (EMU-style
// integers). Values are copied verbatim between shapes; the renderer never
// does geometry beyond equality.
type BBox struct {
	X      int64 `yaml:"x"`
	Y      int64 `yaml:"y"`
	Width  int64 `yaml:"w"`
	Height int64 `yaml:"h"`
}

// Format is an opaque formatting descriptor attached to a run. It is the
// serialized form of whatever the underlying document format uses for
// character properties. The renderer copies it and never looks inside.
type Format string

// Run is a contiguous span of paragraph text sharing one format.
type Run struct {
	Text   string
	Format Format
}

// Paragraph is an ordered sequence of runs. A paragraph never crosses a
// shape boundary, so a placeholder token can always be found by scanning
// the concatenation of its runs.
type Paragraph struct {
	Runs []*Run
}

// Text returns the paragraph's runs concatenated in order.
func (p *Paragraph) Text() string {
	switch len(p.Runs) {
	case 0:
		return ""
	case 1:
		return p.Runs[0].Text
	}
	n := 0
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range p.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// TextFrame is an ordered sequence of paragraphs, as carried by a text
// shape or a single table cell.
type TextFrame struct {
	Paragraphs []*Paragraph
}

// Shape is the closed set of slide elements. Adding a new kind is a
// deliberate change: every switch over Shape in the renderer must be
// extended to compile.
type Shape interface {
	Bounds() BBox
	isShape()
}

// TextShape is a positioned text box.
type TextShape struct {
	Frame TextFrame
	Box   BBox
}

// TableShape is a positioned table; Rows is row-major and each cell owns
// its own text frame.
type TableShape struct {
	Rows [][]*TextFrame
	Box  BBox
}

// GroupShape nests other shapes, including further groups. Child order is
// the document order and must be preserved on output.
type GroupShape struct {
	Children []Shape
	Box      BBox
}

// PictureShape is a positioned raster image. It carries no text and is a
// leaf for token processing.
type PictureShape struct {
	Name  string
	Image []byte
	Box   BBox
}

func (s *TextShape) Bounds() BBox    { return s.Box }
func (s *TableShape) Bounds() BBox   { return s.Box }
func (s *GroupShape) Bounds() BBox   { return s.Box }
func (s *PictureShape) Bounds() BBox { return s.Box }

func (s *TextShape) isShape()    {}
func (s *TableShape) isShape()   {}
func (s *GroupShape) isShape()   {}
func (s *PictureShape) isShape() {}

// Slide is an ordered sequence of shapes; order is the z/tab order.
type Slide struct {
	Shapes []Shape
}

// Document is the deck: an ordered sequence of slides. It is built once
// per rendering pass, mutated exactly once, then serialized back out.
type Document struct {
	Slides []*Slide
}
