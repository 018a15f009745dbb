package deck

import (
	"bytes"
	"errors"
	"testing"
)

func TestParagraphText_ConcatenatesRunsInOrder(t *testing.T) {
	p := &Paragraph{Runs: []*Run{
		{Text: "Hello ", Format: "b"},
		{Text: "{{CLIENT", Format: "i"},
		{Text: "_NAME}}", Format: ""},
	}}
	if got, want := p.Text(), "Hello {{CLIENT_NAME}}"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	if (&Paragraph{}).Text() != "" {
		t.Fatalf("empty paragraph should yield empty text")
	}
}

func sampleDoc() *Document {
	return &Document{Slides: []*Slide{
		{Shapes: []Shape{
			&TextShape{
				Frame: TextFrame{Paragraphs: []*Paragraph{
					{Runs: []*Run{{Text: "{{CLIENT_NAME}}", Format: "sz=44;b=1"}}},
				}},
				Box: BBox{X: 10, Y: 20, Width: 300, Height: 200},
			},
			&GroupShape{
				Children: []Shape{
					&TableShape{
						Rows: [][]*TextFrame{
							{{Paragraphs: []*Paragraph{{Runs: []*Run{{Text: "{{REC_1_TITLE}}"}}}}}},
							{{Paragraphs: []*Paragraph{{Runs: []*Run{{Text: "{{REC_2_TITLE}}"}}}}}},
						},
						Box: BBox{X: 1, Y: 2, Width: 3, Height: 4},
					},
				},
				Box: BBox{X: 0, Y: 0, Width: 500, Height: 500},
			},
			&PictureShape{Name: "logo.png", Image: []byte{0x89, 0x50, 0x4e, 0x47}, Box: BBox{X: 5, Y: 6, Width: 7, Height: 8}},
		}},
	}}
}

func TestCodec_RoundTrip(t *testing.T) {
	doc := sampleDoc()
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Slides) != 1 || len(got.Slides[0].Shapes) != 3 {
		t.Fatalf("unexpected structure after round trip: %+v", got)
	}
	ts, ok := got.Slides[0].Shapes[0].(*TextShape)
	if !ok {
		t.Fatalf("first shape: want *TextShape, got %T", got.Slides[0].Shapes[0])
	}
	if ts.Box != (BBox{X: 10, Y: 20, Width: 300, Height: 200}) {
		t.Fatalf("bbox not preserved: %+v", ts.Box)
	}
	if f := ts.Frame.Paragraphs[0].Runs[0].Format; f != "sz=44;b=1" {
		t.Fatalf("format not carried verbatim: %q", f)
	}
	grp, ok := got.Slides[0].Shapes[1].(*GroupShape)
	if !ok {
		t.Fatalf("second shape: want *GroupShape, got %T", got.Slides[0].Shapes[1])
	}
	tbl, ok := grp.Children[0].(*TableShape)
	if !ok {
		t.Fatalf("group child: want *TableShape, got %T", grp.Children[0])
	}
	if got := tbl.Rows[1][0].Paragraphs[0].Text(); got != "{{REC_2_TITLE}}" {
		t.Fatalf("row 2 cell text = %q", got)
	}
	pic, ok := got.Slides[0].Shapes[2].(*PictureShape)
	if !ok {
		t.Fatalf("third shape: want *PictureShape, got %T", got.Slides[0].Shapes[2])
	}
	if !bytes.Equal(pic.Image, []byte{0x89, 0x50, 0x4e, 0x47}) {
		t.Fatalf("image bytes not preserved: %v", pic.Image)
	}
}

func TestDecode_RejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte("slides:\n  - shapes:\n      - kind: blob\n"))
	if !errors.Is(err, ErrBadTemplate) {
		t.Fatalf("want ErrBadTemplate, got %v", err)
	}
}

func TestDecode_RejectsMalformedYAML(t *testing.T) {
	_, err := Decode([]byte("slides: [unclosed"))
	if !errors.Is(err, ErrBadTemplate) {
		t.Fatalf("want ErrBadTemplate, got %v", err)
	}
}
