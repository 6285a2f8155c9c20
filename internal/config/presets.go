package config

import "sort"

// Presets are named tuning setups. Fields left zero fall back to defaults
// when applied with Apply.
var Presets = map[string]*Tuning{
	"udacity": {
		InitialParams:  [3]float64{0.496113, 9.69385, 0.000253635},
		InitialDP:      [3]float64{0.05, 0.3, 0.00005},
		UpdateDistance: 2700,
		MaxCTE:         3.0,
	},
	"from-scratch": {
		InitialParams:  [3]float64{0.1, 1.0, 0.0},
		InitialDP:      [3]float64{0.1, 1.0, 0.0005},
		UpdateDistance: 1500,
		MaxCTE:         4.0,
	},
	"quick": {
		InitialParams:  [3]float64{0.3, 5.0, 0.0001},
		InitialDP:      [3]float64{0.05, 0.5, 0.00005},
		UpdateDistance: 900,
		MaxCTE:         3.0,
	},
	"fine": {
		InitialParams:  [3]float64{0.496113, 9.69385, 0.000253635},
		InitialDP:      [3]float64{0.01, 0.05, 0.00001},
		Upscale:        1.05,
		Downscale:      0.95,
		UpdateDistance: 4000,
		MaxCTE:         2.5,
	},
}

func GetPreset(name string) *Tuning {
	t, ok := Presets[name]
	if !ok {
		return nil
	}
	return t
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays a preset's tuning onto c.
func (c *Config) Apply(p *Tuning) {
	t := &c.Tuning
	t.InitialParams = p.InitialParams
	t.InitialDP = p.InitialDP
	if p.Upscale != 0 {
		t.Upscale = p.Upscale
	}
	if p.Downscale != 0 {
		t.Downscale = p.Downscale
	}
	t.StartIndex = p.StartIndex
	if p.UpdateDistance != 0 {
		t.UpdateDistance = p.UpdateDistance
	}
	if p.MaxCTE != 0 {
		t.MaxCTE = p.MaxCTE
	}
	if p.Throttle != 0 {
		t.Throttle = p.Throttle
	}
}
