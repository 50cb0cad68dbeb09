package nightscout

import (
	"context"
	"fmt"
	"time"
)

// Profile is a Nightscout profile document. Only Loop's settings are decoded.
type Profile struct {
	ID           string        `json:"_id"`
	DefaultName  string        `json:"defaultProfile"`
	StartDate    string        `json:"startDate"`
	LoopSettings *LoopSettings `json:"loopSettings"`
}

// LoopSettings holds the override presets Loop uploads with its profile.
type LoopSettings struct {
	OverridePresets  []OverridePreset `json:"overridePresets"`
	ScheduleOverride *OverridePreset  `json:"scheduleOverride"`
	DosingEnabled    bool             `json:"dosingEnabled"`
}

// OverridePreset is a named temporary override configured in Loop.
type OverridePreset struct {
	Name                    string   `json:"name"`
	Symbol                  string   `json:"symbol"`
	Duration                float64  `json:"duration"` // seconds; 0 means indefinite
	InsulinNeedsScaleFactor *float64 `json:"insulinNeedsScaleFactor,omitempty"`
	TargetRange             []int    `json:"targetRange,omitempty"`
}

// DurationMinutes returns the preset duration in whole minutes, or fallback
// when the preset is indefinite.
func (p OverridePreset) DurationMinutes(fallback int) int {
	if p.Duration <= 0 {
		return fallback
	}
	return int((time.Duration(p.Duration) * time.Second).Minutes())
}

// Overrides is the preset list with the currently active override, if any.
type Overrides struct {
	Presets []OverridePreset
	Active  *OverridePreset
}

// FetchProfiles fetches the stored profiles, newest first.
func (c *Client) FetchProfiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := c.getJSON(ctx, ProfilePath, nil, &profiles); err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	return profiles, nil
}

// FetchOverrides returns the override presets of the newest profile.
func (c *Client) FetchOverrides(ctx context.Context) (*Overrides, error) {
	profiles, err := c.FetchProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 || profiles[0].LoopSettings == nil {
		return &Overrides{}, nil
	}
	settings := profiles[0].LoopSettings
	return &Overrides{
		Presets: settings.OverridePresets,
		Active:  settings.ScheduleOverride,
	}, nil
}

// FindPreset returns the preset with the given name.
func (o *Overrides) FindPreset(name string) (OverridePreset, bool) {
	for _, p := range o.Presets {
		if p.Name == name {
			return p, true
		}
	}
	return OverridePreset{}, false
}
