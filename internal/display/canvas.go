package display

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var (
	ink   = color.Gray{Y: 0xFF}
	paper = color.Gray{Y: 0x00}
)

func grayOf(c Color) color.Gray {
	if c == Black {
		return paper
	}
	return ink
}

// Rasterize executes f's ops, in order, on a cleared 128x64 canvas.
func Rasterize(f Frame) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	for _, op := range f.Ops {
		c := grayOf(op.Color)
		switch op.Kind {
		case OpText:
			drawText(img, op.X, op.Y, op.Size, op.Text, c)
		case OpLine:
			drawLine(img, op.X, op.Y, op.X2, op.Y2, c)
		case OpFillRect:
			fillRect(img, op.X, op.Y, op.X+op.W-1, op.Y+op.H-1, c)
		case OpCircle:
			drawCircle(img, op.X, op.Y, op.R, c)
		case OpFillCircle:
			fillCircle(img, op.X, op.Y, op.R, c)
		case OpPixel:
			setPixel(img, op.X, op.Y, c)
		}
	}
	return img
}

// Monochrome converts f into the SSD1306 native page layout.
func Monochrome(f Frame) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), Rasterize(f), image.Point{}, draw.Src)
	return img
}

func setPixel(img *image.Gray, x, y int, c color.Gray) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetGray(x, y, c)
	}
}

func fillRect(img *image.Gray, x0, y0, x1, y1 int, c color.Gray) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			setPixel(img, x, y, c)
		}
	}
}

func drawLine(img *image.Gray, x0, y0, x1, y1 int, c color.Gray) {
	dx, sx := abs(x1-x0), 1
	if x0 > x1 {
		sx = -1
	}
	dy, sy := -abs(y1-y0), 1
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func drawCircle(img *image.Gray, cx, cy, r int, c color.Gray) {
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			setPixel(img, cx+p[0], cy+p[1], c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func fillCircle(img *image.Gray, cx, cy, r int, c color.Gray) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// drawText renders s in the 7x13 face with its cell's top-left at (x, y),
// each font pixel blown up to a size x size block.
func drawText(img *image.Gray, x, y, size int, s string, c color.Gray) {
	if size < 1 {
		size = 1
	}
	face := basicfont.Face7x13
	glyphs := image.NewGray(image.Rect(0, 0, TextWidth(s, 1), face.Height))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(s)

	b := glyphs.Bounds()
	for gy := b.Min.Y; gy < b.Max.Y; gy++ {
		for gx := b.Min.X; gx < b.Max.X; gx++ {
			if glyphs.GrayAt(gx, gy).Y < 0x80 {
				continue
			}
			fillRect(img, x+gx*size, y+gy*size, x+gx*size+size-1, y+gy*size+size-1, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
