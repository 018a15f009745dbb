package deck

import (
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// ErrBadTemplate wraps any structural problem found while loading a deck.
// Loading is all-or-nothing: a deck that fails to load must never be
// rendered partially.
var ErrBadTemplate = errors.New("bad template")

// The wire form uses a kind discriminator per shape so the polymorphic
// tree survives YAML. Run formats travel verbatim as strings and image
// bytes as !!binary scalars.

type wireDoc struct {
	Slides []wireSlide `yaml:"slides"`
}

type wireSlide struct {
	Shapes []wireShape `yaml:"shapes"`
}

type wireShape struct {
	Kind string `yaml:"kind"`
	Box  BBox   `yaml:"bbox"`

	// kind: text
	Paragraphs []wireParagraph `yaml:"paragraphs,omitempty"`
	// kind: table
	Rows []wireRow `yaml:"rows,omitempty"`
	// kind: group
	Children []wireShape `yaml:"children,omitempty"`
	// kind: picture
	Name  string `yaml:"name,omitempty"`
	Image []byte `yaml:"image,omitempty"`
}

type wireRow struct {
	Cells []wireCell `yaml:"cells"`
}

type wireCell struct {
	Paragraphs []wireParagraph `yaml:"paragraphs"`
}

type wireParagraph struct {
	Runs []wireRun `yaml:"runs"`
}

type wireRun struct {
	Text   string `yaml:"text"`
	Format string `yaml:"format,omitempty"`
}

// Decode parses serialized deck bytes into a Document.
func Decode(data []byte) (*Document, error) {
	var w wireDoc
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTemplate, err)
	}
	doc := &Document{Slides: make([]*Slide, 0, len(w.Slides))}
	for i, ws := range w.Slides {
		slide := &Slide{Shapes: make([]Shape, 0, len(ws.Shapes))}
		for j, sh := range ws.Shapes {
			s, err := decodeShape(sh)
			if err != nil {
				return nil, fmt.Errorf("%w: slide %d shape %d: %v", ErrBadTemplate, i+1, j+1, err)
			}
			slide.Shapes = append(slide.Shapes, s)
		}
		doc.Slides = append(doc.Slides, slide)
	}
	return doc, nil
}

func decodeShape(w wireShape) (Shape, error) {
	switch w.Kind {
	case "text":
		return &TextShape{Frame: TextFrame{Paragraphs: decodeParagraphs(w.Paragraphs)}, Box: w.Box}, nil
	case "table":
		rows := make([][]*TextFrame, 0, len(w.Rows))
		for _, r := range w.Rows {
			cells := make([]*TextFrame, 0, len(r.Cells))
			for _, c := range r.Cells {
				cells = append(cells, &TextFrame{Paragraphs: decodeParagraphs(c.Paragraphs)})
			}
			rows = append(rows, cells)
		}
		return &TableShape{Rows: rows, Box: w.Box}, nil
	case "group":
		children := make([]Shape, 0, len(w.Children))
		for k, cw := range w.Children {
			c, err := decodeShape(cw)
			if err != nil {
				return nil, fmt.Errorf("child %d: %v", k+1, err)
			}
			children = append(children, c)
		}
		return &GroupShape{Children: children, Box: w.Box}, nil
	case "picture":
		return &PictureShape{Name: w.Name, Image: w.Image, Box: w.Box}, nil
	case "":
		return nil, errors.New("missing shape kind")
	default:
		return nil, fmt.Errorf("unknown shape kind %q", w.Kind)
	}
}

func decodeParagraphs(ws []wireParagraph) []*Paragraph {
	out := make([]*Paragraph, 0, len(ws))
	for _, wp := range ws {
		p := &Paragraph{Runs: make([]*Run, 0, len(wp.Runs))}
		for _, wr := range wp.Runs {
			p.Runs = append(p.Runs, &Run{Text: wr.Text, Format: Format(wr.Format)})
		}
		out = append(out, p)
	}
	return out
}

// Encode serializes a Document back to deck bytes. Encoding is total: any
// well-formed Document encodes, and Decode(Encode(doc)) reproduces it.
func Encode(doc *Document) ([]byte, error) {
	w := wireDoc{Slides: make([]wireSlide, 0, len(doc.Slides))}
	for _, s := range doc.Slides {
		ws := wireSlide{Shapes: make([]wireShape, 0, len(s.Shapes))}
		for _, sh := range s.Shapes {
			ws.Shapes = append(ws.Shapes, encodeShape(sh))
		}
		w.Slides = append(w.Slides, ws)
	}
	return yaml.Marshal(w)
}

func encodeShape(s Shape) wireShape {
	switch sh := s.(type) {
	case *TextShape:
		return wireShape{Kind: "text", Box: sh.Box, Paragraphs: encodeParagraphs(sh.Frame.Paragraphs)}
	case *TableShape:
		rows := make([]wireRow, 0, len(sh.Rows))
		for _, r := range sh.Rows {
			cells := make([]wireCell, 0, len(r))
			for _, c := range r {
				cells = append(cells, wireCell{Paragraphs: encodeParagraphs(c.Paragraphs)})
			}
			rows = append(rows, wireRow{Cells: cells})
		}
		return wireShape{Kind: "table", Box: sh.Box, Rows: rows}
	case *GroupShape:
		children := make([]wireShape, 0, len(sh.Children))
		for _, c := range sh.Children {
			children = append(children, encodeShape(c))
		}
		return wireShape{Kind: "group", Box: sh.Box, Children: children}
	case *PictureShape:
		return wireShape{Kind: "picture", Box: sh.Box, Name: sh.Name, Image: sh.Image}
	default:
		// Shape is a closed set; reaching here means a new kind was added
		// without extending the codec.
		panic(fmt.Sprintf("deck: unencodable shape %T", s))
	}
}

func encodeParagraphs(ps []*Paragraph) []wireParagraph {
	out := make([]wireParagraph, 0, len(ps))
	for _, p := range ps {
		wp := wireParagraph{Runs: make([]wireRun, 0, len(p.Runs))}
		for _, r := range p.Runs {
			wp.Runs = append(wp.Runs, wireRun{Text: r.Text, Format: string(r.Format)})
		}
		out = append(out, wp)
	}
	return out
}

// Load reads and decodes a deck file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrBadTemplate, path, err)
	}
	return Decode(data)
}

// Save encodes and writes a deck file.
func Save(doc *Document, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
