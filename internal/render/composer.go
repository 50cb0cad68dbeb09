package render

import (
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/domain"
	"github.com/jwulff/caregiver-go/internal/graph"
)

// View is everything needed to draw one caregiver frame.
type View struct {
	Items  []graph.Item
	Latest *bloodsugar.Reading
	Start  time.Time
	End    time.Time
	Now    time.Time
}

// ComposeFrame draws the header and the graph into a width x height frame.
func ComposeFrame(v View, width, height int) *domain.Frame {
	frame := domain.NewFrameWithColor(width, height, ColorBg)

	now := v.Now
	if now.IsZero() {
		now = v.End
	}
	RenderHeader(frame, v.Latest, now)

	chartY := HeaderHeight + 1
	frame.DrawHLine(0, width-1, HeaderHeight, ColorDimGray)

	cfg := NewGraphConfig(0, chartY, width, height-chartY, v.Start, v.End)
	RenderGraph(frame, v.Items, cfg)

	return frame
}
