package document

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/example/labelcanvas/internal/element"
)

func sampleDoc() Document {
	d := New()
	t := element.NewText(10, 20, "hello")
	t.ID, t.ZIndex, t.Rotation = "t1", 1, 45
	l := element.NewLabel(0, 0, "customer.name", "Name")
	l.ID, l.ZIndex, l.AutoSizeText = "l1", 2, true
	m := element.NewMedia(5, 5, 40, 40, element.MediaVector, "<svg/>", "logo.svg")
	m.ID, m.ZIndex, m.FillColor = "m1", 3, "#FF0000"
	g := &element.Group{Common: element.Common{ID: "g1", ZIndex: 4, Visible: true}, Children: []string{"t1", "l1"}}
	d.Elements = []element.Element{t, l, m, g}
	d.Settings.ShowGrid = false
	d.Settings.AspectRatio = AspectRatio{Width: 16, Height: 9}
	return d
}

func TestRoundTripJSONAndYAML(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		data, err := EncodeBytes(sampleDoc(), f)
		if err != nil {
			t.Fatalf("%s encode: %v", f, err)
		}
		got, err := DecodeBytes(data, f)
		if err != nil {
			t.Fatalf("%s decode: %v\n%s", f, err, data)
		}
		if len(got.Elements) != 4 {
			t.Fatalf("%s: expected 4 elements, got %d", f, len(got.Elements))
		}
		tx, ok := got.Elements[0].(*element.Text)
		if !ok || tx.Content != "hello" || tx.Rotation != 45 || tx.X != 10 {
			t.Errorf("%s: text not preserved: %+v", f, got.Elements[0])
		}
		lb := got.Elements[1].(*element.Label)
		if lb.JSONKey != "customer.name" || !lb.AutoSizeText {
			t.Errorf("%s: label not preserved: %+v", f, lb)
		}
		g := got.Elements[3].(*element.Group)
		if len(g.Children) != 2 {
			t.Errorf("%s: group children lost: %v", f, g.Children)
		}
		if got.Settings.ShowGrid || got.Settings.AspectRatio.Width != 16 {
			t.Errorf("%s: settings not preserved: %+v", f, got.Settings)
		}
	}
}

func TestVersionOneLabelsUpgraded(t *testing.T) {
	in := `{"elements":[{"type":"label","id":"a","zIndex":1,"x":1,"y":2,"width":100,"height":30,"jsonKey":"k","fontSize":6}]}`
	doc, err := DecodeBytes([]byte(in), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	l := doc.Elements[0].(*element.Label)
	if l.VerticalAlign != element.VAlignMiddle {
		t.Errorf("vertical align = %q", l.VerticalAlign)
	}
	if l.MinFontSize != 6 {
		t.Errorf("min font size should clamp to font size, got %v", l.MinFontSize)
	}
	if doc.Settings != DefaultSettings() {
		t.Errorf("missing settings should default")
	}
}

func TestBareArrayAccepted(t *testing.T) {
	doc, err := DecodeBytes([]byte(`[{"type":"text","id":"x","content":"hi","width":10,"height":10}]`), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Elements) != 1 || !doc.Elements[0].Base().Visible {
		t.Fatalf("unexpected doc %+v", doc)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]error{
		`{not json`: ErrMalformed,
		``:          ErrMalformed,
		`{"version":2,"elements":[{"type":"circle","id":"a"}]}`:                    ErrMalformed,
		`{"version":2,"elements":[{"type":"text","id":"a"},{"type":"text","id":"a"}]}`: ErrMalformed,
		`{"version":9,"elements":[]}`: ErrUnsupportedVersion,
	}
	for in, want := range cases {
		if _, err := DecodeBytes([]byte(in), FormatJSON); !errors.Is(err, want) {
			t.Errorf("%q: expected %v, got %v", in, want, err)
		}
	}
}

func TestDanglingGroupChildrenDropped(t *testing.T) {
	in := `{"version":2,"elements":[{"type":"text","id":"a","groupId":"gone"},{"type":"group","id":"g","children":["a","missing"]}]}`
	doc, err := DecodeBytes([]byte(in), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Elements[0].Base().GroupID != "" {
		t.Errorf("dangling group id kept")
	}
	if g := doc.Elements[1].(*element.Group); len(g.Children) != 1 {
		t.Errorf("children = %v", g.Children)
	}
}

func TestRotationNormalizedOnLoad(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"version":2,"elements":[{"type":"text","id":"a","rotation":-90}]}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if r := doc.Elements[0].(*element.Text).Rotation; r != 270 {
		t.Fatalf("rotation = %v", r)
	}
}

func TestYAMLOutputIsBlockStyle(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleDoc(), FormatYAML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "version: 2") {
		t.Fatalf("expected version first, got:\n%s", out)
	}
	if strings.Contains(out, "{") {
		t.Fatalf("expected block style yaml:\n%s", out)
	}
}

func TestParseAspectRatio(t *testing.T) {
	a, err := ParseAspectRatio("16:9")
	if err != nil || a.Width != 16 || a.Height != 9 {
		t.Fatalf("16:9 -> %v %v", a, err)
	}
	if _, err := ParseAspectRatio("3x0"); err == nil {
		t.Fatal("expected error for zero side")
	}
	if w, h := (AspectRatio{Width: 2, Height: 1}).Size(400); w != 400 || h != 200 {
		t.Fatalf("size = %v %v", w, h)
	}
}
