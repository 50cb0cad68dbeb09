package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
)

// HeaderHeight is the number of rows used by the current reading.
const HeaderHeight = 8

// Trend arrow bitmaps (7 wide x 8 tall).
// Each row is a byte, bits represent pixels left to right.
var trendArrows = map[string][]byte{
	// Double up - two chevrons
	"doubleup": {
		0b0001000,
		0b0010100,
		0b0100010,
		0b0001000,
		0b0010100,
		0b0100010,
		0b0000000,
		0b0000000,
	},
	// Single up arrow
	"singleup": {
		0b0001000,
		0b0010100,
		0b0100010,
		0b0001000,
		0b0001000,
		0b0001000,
		0b0001000,
		0b0000000,
	},
	// Diagonal up-right
	"fortyfiveup": {
		0b0001110,
		0b0000110,
		0b0001010,
		0b0010000,
		0b0100000,
		0b1000000,
		0b0000000,
		0b0000000,
	},
	// Flat/steady
	"flat": {
		0b0000000,
		0b0000100,
		0b0000010,
		0b1111111,
		0b0000010,
		0b0000100,
		0b0000000,
		0b0000000,
	},
	// Diagonal down-right
	"fortyfivedown": {
		0b0000000,
		0b0000000,
		0b1000000,
		0b0100000,
		0b0010000,
		0b0001010,
		0b0000110,
		0b0001110,
	},
	// Single down arrow
	"singledown": {
		0b0000000,
		0b0001000,
		0b0001000,
		0b0001000,
		0b0001000,
		0b0100010,
		0b0010100,
		0b0001000,
	},
	// Double down - two chevrons
	"doubledown": {
		0b0000000,
		0b0000000,
		0b0100010,
		0b0010100,
		0b0001000,
		0b0100010,
		0b0010100,
		0b0001000,
	},
}

const (
	ArrowWidth  = 7
	ArrowHeight = 8
)

// drawTrendArrow draws a trend arrow at the specified position and returns
// the width consumed, or 0 for an unknown trend.
func drawTrendArrow(frame *domain.Frame, trend string, x, y int, color domain.RGB) int {
	bitmap, ok := trendArrows[strings.ToLower(trend)]
	if !ok {
		return 0
	}

	for row := 0; row < ArrowHeight; row++ {
		for col := 0; col < ArrowWidth; col++ {
			if (bitmap[row]>>(ArrowWidth-1-col))&1 == 1 {
				frame.SetPixel(x+col, y+row, color)
			}
		}
	}

	return ArrowWidth + 1
}

// readingColor returns the band color, or gray when the reading is stale.
func readingColor(r *bloodsugar.Reading) domain.RGB {
	if r.IsStale {
		return ColorStale
	}
	return ColorForBand(r.Band)
}

// HeaderText returns the glucose, delta and age strings shown in the header.
func HeaderText(r *bloodsugar.Reading, now time.Time) (glucose, delta, age string) {
	mins := int(now.Sub(r.Timestamp).Minutes())
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%d", r.Glucose), fmt.Sprintf("%+d", r.Delta), fmt.Sprintf("%dm", mins)
}

// RenderHeader draws the current reading across the top of the frame:
// trend arrow and glucose on the left, delta and age on the right.
func RenderHeader(frame *domain.Frame, reading *bloodsugar.Reading, now time.Time) {
	textY := (HeaderHeight - TinyCharHeight) / 2

	if reading == nil {
		DrawTinyTextCentered(frame, "NO DATA", frame.Width, textY, ColorStale)
		return
	}

	color := readingColor(reading)
	glucose, delta, age := HeaderText(reading, now)

	x := 1
	x += drawTrendArrow(frame, reading.Trend, x, 0, color)
	DrawTinyText(frame, glucose, x, textY, color)

	right := frame.Width - 2
	DrawTinyTextRightAligned(frame, age, right, textY, ColorWhite)
	right -= MeasureTinyText(age) + TinyCharWidth
	DrawTinyTextRightAligned(frame, delta, right, textY, ColorWhite)
}
