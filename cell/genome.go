package cell

import "github.com/go-gl/mathgl/mgl32"

// Mode is one entry of the immutable genome mode table. A record's ModeIndex
// selects the mode governing its internal update; the table is uploaded once
// at startup and never mutated afterwards.
type Mode struct {
	SplitInterval float32 // seconds of age before a division attempt
	SplitCost     float32 // nitrates consumed by one division
	ToxinRate     float32 // toxin accumulation per second
	NitrateRate   float32 // nitrate consumption per second
	SignalDecay   float32 // exponential decay rate of signal channels
	Color         mgl32.Vec4
}

// DefaultModes returns the built-in genome mode table used when the config
// does not define one.
func DefaultModes() []Mode {
	return []Mode{
		{SplitInterval: 12, SplitCost: 0.4, ToxinRate: 0.008, NitrateRate: 0.015, SignalDecay: 0.5, Color: mgl32.Vec4{0.35, 0.75, 0.45, 1}},
		{SplitInterval: 18, SplitCost: 0.3, ToxinRate: 0.004, NitrateRate: 0.010, SignalDecay: 0.8, Color: mgl32.Vec4{0.30, 0.55, 0.85, 1}},
		{SplitInterval: 25, SplitCost: 0.5, ToxinRate: 0.012, NitrateRate: 0.020, SignalDecay: 0.3, Color: mgl32.Vec4{0.85, 0.60, 0.30, 1}},
	}
}

// ModeFor returns the mode for idx, clamping out-of-range indices to the
// first entry rather than reading garbage.
func ModeFor(modes []Mode, idx int32) *Mode {
	if idx < 0 || int(idx) >= len(modes) {
		return &modes[0]
	}
	return &modes[idx]
}
