package display

import "strings"

// Screen geometry of the SSD1306 module.
const (
	Width  = 128
	Height = 64
)

// Glyph cell of the built-in 7x13 font at size 1.
const (
	GlyphWidth  = 7
	GlyphHeight = 13
)

// Color is a monochrome ink.
type Color uint8

const (
	White Color = iota
	Black
)

// OpKind enumerates pixel commands.
type OpKind int

const (
	OpText OpKind = iota
	OpLine
	OpFillRect
	OpCircle
	OpFillCircle
	OpPixel
)

// Op is a single pixel command. Fields used depend on Kind:
// Text uses X,Y (top-left), Size, Text; Line uses X,Y,X2,Y2; FillRect uses
// X,Y,W,H; Circle and FillCircle use X,Y (centre) and R; Pixel uses X,Y.
// Tag optionally names what the op depicts (e.g. "trend:rising").
type Op struct {
	Kind   OpKind
	X, Y   int
	X2, Y2 int
	W, H   int
	R      int
	Size   int
	Text   string
	Color  Color
	Tag    string
}

// Frame is the complete set of pixel commands for one panel, drawn on a
// cleared screen in order.
type Frame struct {
	Panel Panel
	Ops   []Op
}

func (f *Frame) add(op Op) {
	f.Ops = append(f.Ops, op)
}

// Text draws s with its top-left corner at (x, y), scaled by size.
func (f *Frame) Text(x, y, size int, s string) {
	f.add(Op{Kind: OpText, X: x, Y: y, Size: size, Text: s})
}

// TextCentered draws s horizontally centred at row y.
func (f *Frame) TextCentered(y, size int, s string) {
	x := (Width - TextWidth(s, size)) / 2
	if x < 0 {
		x = 0
	}
	f.Text(x, y, size, s)
}

// TextRight draws s right-aligned to the screen edge minus margin.
func (f *Frame) TextRight(y, size, margin int, s string) {
	f.Text(Width-margin-TextWidth(s, size), y, size, s)
}

func (f *Frame) Line(x0, y0, x1, y1 int, c Color) {
	f.add(Op{Kind: OpLine, X: x0, Y: y0, X2: x1, Y2: y1, Color: c})
}

// HLine draws a horizontal rule of width w.
func (f *Frame) HLine(x, y, w int) {
	f.Line(x, y, x+w-1, y, White)
}

func (f *Frame) FillRect(x, y, w, h int, c Color) {
	f.add(Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (f *Frame) Circle(cx, cy, r int, c Color) {
	f.add(Op{Kind: OpCircle, X: cx, Y: cy, R: r, Color: c})
}

func (f *Frame) FillCircle(cx, cy, r int, c Color) {
	f.add(Op{Kind: OpFillCircle, X: cx, Y: cy, R: r, Color: c})
}

func (f *Frame) Pixel(x, y int) {
	f.add(Op{Kind: OpPixel, X: x, Y: y, Color: White})
}

// Tag labels the ops added by draw.
func (f *Frame) Tag(tag string, draw func()) {
	start := len(f.Ops)
	draw()
	for i := start; i < len(f.Ops); i++ {
		f.Ops[i].Tag = tag
	}
}

// Texts returns every text string in draw order.
func (f Frame) Texts() []string {
	var out []string
	for _, op := range f.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// HasText reports whether any text op contains s.
func (f Frame) HasText(s string) bool {
	for _, t := range f.Texts() {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// HasTag reports whether any op carries tag.
func (f Frame) HasTag(tag string) bool {
	for _, op := range f.Ops {
		if op.Tag == tag {
			return true
		}
	}
	return false
}

// TextWidth is the pixel width of s at size.
func TextWidth(s string, size int) int {
	if size < 1 {
		size = 1
	}
	return len([]rune(s)) * GlyphWidth * size
}
