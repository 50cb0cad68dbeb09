// Package domain contains the pixel frame the caregiver graph is drawn into.
package domain

import (
	"fmt"
	"strings"
)

// Default preview size.
const (
	DefaultWidth  = 72
	DefaultHeight = 32
)

// BytesPerPixel is the number of bytes per pixel (RGB).
const BytesPerPixel = 3

// RGB represents an RGB color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// NewRGB creates a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// Equals checks if two RGB colors are equal.
func (c RGB) Equals(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// Brightness is the mean of the three channels.
func (c RGB) Brightness() int {
	return (int(c.R) + int(c.G) + int(c.B)) / 3
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

// Frame is a width x height grid of pixels stored row-major as
// [r0,g0,b0, r1,g1,b1, ...].
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// NewFrame creates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*BytesPerPixel),
	}
}

// NewFrameWithColor creates a frame filled with color.
func NewFrameWithColor(width, height int, color RGB) *Frame {
	f := NewFrame(width, height)
	f.Fill(color)
	return f
}

// InBounds reports whether (x, y) lies inside the frame.
func (f *Frame) InBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// SetPixel sets a single pixel. Out of bounds coordinates are ignored.
func (f *Frame) SetPixel(x, y int, color RGB) {
	if !f.InBounds(x, y) {
		return
	}
	offset := (y*f.Width + x) * BytesPerPixel
	f.Pixels[offset] = color.R
	f.Pixels[offset+1] = color.G
	f.Pixels[offset+2] = color.B
}

// GetPixel returns the color at (x, y), or nil if out of bounds.
func (f *Frame) GetPixel(x, y int) *RGB {
	if !f.InBounds(x, y) {
		return nil
	}
	offset := (y*f.Width + x) * BytesPerPixel
	return &RGB{
		R: f.Pixels[offset],
		G: f.Pixels[offset+1],
		B: f.Pixels[offset+2],
	}
}

// Fill fills the entire frame with color.
func (f *Frame) Fill(color RGB) {
	for i := 0; i < f.Width*f.Height; i++ {
		offset := i * BytesPerPixel
		f.Pixels[offset] = color.R
		f.Pixels[offset+1] = color.G
		f.Pixels[offset+2] = color.B
	}
}

// FillRect fills a rectangular area.
func (f *Frame) FillRect(x, y, width, height int, color RGB) {
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			f.SetPixel(x+dx, y+dy, color)
		}
	}
}

// DrawHLine draws a horizontal line from x0 to x1 inclusive.
func (f *Frame) DrawHLine(x0, x1, y int, color RGB) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		f.SetPixel(x, y, color)
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (f *Frame) DrawLine(x0, y0, x1, y1 int, color RGB) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		f.SetPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Half selects part of a disc.
type Half int

const (
	WholeDisc Half = iota
	TopHalf
	BottomHalf
)

// DrawDisc fills the part of a disc of the given radius centered at (cx, cy)
// selected by half. The center row belongs to both halves.
func (f *Frame) DrawDisc(cx, cy, radius int, half Half, color RGB) {
	for dy := -radius; dy <= radius; dy++ {
		if half == TopHalf && dy > 0 || half == BottomHalf && dy < 0 {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				f.SetPixel(cx+dx, cy+dy, color)
			}
		}
	}
}

// ASCII renders the frame as shaded block characters, one line per row.
func (f *Frame) ASCII() string {
	var b strings.Builder
	b.Grow((f.Width + 1) * f.Height * 3)

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b.WriteString(shade(f.GetPixel(x, y).Brightness()))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func shade(brightness int) string {
	switch {
	case brightness > 200:
		return "█"
	case brightness > 150:
		return "▓"
	case brightness > 100:
		return "▒"
	case brightness > 50:
		return "░"
	case brightness > 10:
		return "·"
	default:
		return " "
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
