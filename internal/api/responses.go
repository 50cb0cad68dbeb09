package api

import (
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/graph"
	"github.com/jwulff/caregiver-go/internal/monitor"
	"github.com/jwulff/caregiver-go/internal/nightscout"
	"github.com/jwulff/caregiver-go/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
	FromCache   bool       `json:"fromCache"`
}

type graphResponse struct {
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	RefreshedAt time.Time      `json:"refreshedAt"`
	FromCache   bool           `json:"fromCache"`
	Items       []itemResponse `json:"items"`
}

type itemResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Value          int       `json:"value"`
	DisplayTime    time.Time `json:"displayTime"`
	Band           string    `json:"band"`
	Amount         float64   `json:"amount,omitempty"`
	Label          string    `json:"label,omitempty"`
	MarkerDiameter float64   `json:"markerDiameter,omitempty"`
	Fill           string    `json:"fill,omitempty"`
}

func newGraphResponse(snap *monitor.Snapshot) graphResponse {
	items := make([]itemResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, newItemResponse(item))
	}
	return graphResponse{
		Start:       snap.Start,
		End:         snap.End,
		RefreshedAt: snap.RefreshedAt,
		FromCache:   snap.FromCache,
		Items:       items,
	}
}

func newItemResponse(item graph.Item) itemResponse {
	a := graph.Annotate(item)
	resp := itemResponse{
		ID:             item.ID,
		Kind:           item.Kind.Name(),
		Value:          item.Value,
		DisplayTime:    item.DisplayTime,
		Band:           item.Band().String(),
		Label:          a.Label,
		MarkerDiameter: a.MarkerDiameter,
		Fill:           a.Fill,
	}
	switch k := item.Kind.(type) {
	case graph.Bolus:
		resp.Amount = k.Event.Amount
	case graph.Carb:
		resp.Amount = float64(k.Event.Amount)
	}
	return resp
}

type readingResponse struct {
	Glucose     int       `json:"glucose"`
	GlucoseMmol float64   `json:"glucoseMmol"`
	Trend       string    `json:"trend,omitempty"`
	TrendArrow  string    `json:"trendArrow"`
	Delta       int       `json:"delta"`
	Timestamp   time.Time `json:"timestamp"`
	IsStale     bool      `json:"isStale"`
	Band        string    `json:"band"`
}

func newReadingResponse(r *bloodsugar.Reading) readingResponse {
	return readingResponse{
		Glucose:     r.Glucose,
		GlucoseMmol: r.GlucoseMmol,
		Trend:       r.Trend,
		TrendArrow:  r.TrendArrow,
		Delta:       r.Delta,
		Timestamp:   r.Timestamp,
		IsStale:     r.IsStale,
		Band:        r.Band.String(),
	}
}

type presetResponse struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	DurationMinutes int    `json:"durationMinutes"`
	Indefinite      bool   `json:"indefinite"`
}

type overridesResponse struct {
	Presets []presetResponse `json:"presets"`
	Active  *presetResponse  `json:"active,omitempty"`
}

func newPresetResponse(p nightscout.OverridePreset) presetResponse {
	return presetResponse{
		Name:            p.Name,
		Symbol:          p.Symbol,
		DurationMinutes: p.DurationMinutes(0),
		Indefinite:      p.Duration <= 0,
	}
}

func newOverridesResponse(o *nightscout.Overrides) overridesResponse {
	resp := overridesResponse{Presets: make([]presetResponse, 0, len(o.Presets))}
	for _, p := range o.Presets {
		resp.Presets = append(resp.Presets, newPresetResponse(p))
	}
	if o.Active != nil {
		active := newPresetResponse(*o.Active)
		resp.Active = &active
	}
	return resp
}

type commandResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommandResponse(rec *storage.CommandRecord) commandResponse {
	status := "sent"
	if !rec.Succeeded() {
		status = "failed"
	}
	return commandResponse{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Detail:    rec.Detail,
		Status:    status,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
	}
}
