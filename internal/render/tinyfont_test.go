package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwulff/caregiver-go/internal/domain"
)

func TestGetTinyCharBitmap(t *testing.T) {
	assert.Equal(t, [TinyCharHeight]uint8{0b010, 0b101, 0b111, 0b101, 0b101}, GetTinyCharBitmap('A'))
	assert.Equal(t, GetTinyCharBitmap('M'), GetTinyCharBitmap('m'))
	assert.Equal(t, GetTinyCharBitmap(' '), GetTinyCharBitmap('€'))
}

func TestGetTinyCharBitmapDigitsAndSigns(t *testing.T) {
	blank := GetTinyCharBitmap(' ')
	for _, char := range "0123456789+-." {
		assert.NotEqual(t, blank, GetTinyCharBitmap(char), "char %c", char)
	}
}

func TestMeasureTinyText(t *testing.T) {
	assert.Equal(t, 0, MeasureTinyText(""))
	assert.Equal(t, 3, MeasureTinyText("1"))
	assert.Equal(t, 11, MeasureTinyText("130"))
}

func TestDrawTinyTextRightAligned(t *testing.T) {
	frame := domain.NewFrame(20, 5)

	DrawTinyTextRightAligned(frame, "1", 10, 0, ColorWhite)

	// '1' is 010/110/010/010/111, so its last row spans columns 8..10.
	assert.True(t, frame.GetPixel(10, 4).Equals(ColorWhite))
	assert.True(t, frame.GetPixel(8, 4).Equals(ColorWhite))
	assert.False(t, frame.GetPixel(11, 4).Equals(ColorWhite))
}
