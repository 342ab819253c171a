// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the on-disk TOML shape described in SPEC_FULL.md:
// a [sim] table of scalar defaults, repeated [[species]] and
// [[interaction]] tables, and a [curves] table of control points.
type fileConfig struct {
	Sim struct {
		Width           float32 `toml:"width"`
		Height          float32 `toml:"height"`
		MaxBoids        int     `toml:"max_boids"`
		BoidCount       int     `toml:"boid_count"`
		Perception      float32 `toml:"perception"`
		FineGrid        bool    `toml:"fine_grid"`
		TrailLength     int     `toml:"trail_length"`
		Alignment       float32 `toml:"alignment"`
		Cohesion        float32 `toml:"cohesion"`
		Separation      float32 `toml:"separation"`
		MaxSpeed        float32 `toml:"max_speed"`
		MaxForce        float32 `toml:"max_force"`
		Noise           float32 `toml:"noise"`
		Rebels          float32 `toml:"rebels"`
		Boundary        string  `toml:"boundary"`
		GlobalCollision *bool   `toml:"global_collision"`
		BoidSize        float32 `toml:"boid_size"`
		TimeScale       float32 `toml:"time_scale"`
		HueSource       string  `toml:"hue_source"`
		SatSource       string  `toml:"saturation_source"`
		BrightSource    string  `toml:"brightness_source"`
		Spectrum        string  `toml:"spectrum"`
		Sensitivity     float32 `toml:"sensitivity"`
	} `toml:"sim"`

	Species []struct {
		Alignment      float32 `toml:"alignment"`
		Cohesion       float32 `toml:"cohesion"`
		Separation     float32 `toml:"separation"`
		Perception     float32 `toml:"perception"`
		MaxSpeed       float32 `toml:"max_speed"`
		MaxForce       float32 `toml:"max_force"`
		Rebels         float32 `toml:"rebels"`
		Hue            float32 `toml:"hue"`
		Saturation     float32 `toml:"saturation"`
		Lightness      float32 `toml:"lightness"`
		HeadShape      string  `toml:"head_shape"`
		Size           float32 `toml:"size"`
		TrailLength    uint32  `toml:"trail_length"`
		AlphaMode      string  `toml:"alpha_mode"`
		CursorForce    float32 `toml:"cursor_force"`
		CursorResponse float32 `toml:"cursor_response"`
		CursorVortex   float32 `toml:"cursor_vortex"`
	} `toml:"species"`

	Interaction []struct {
		Source   int     `toml:"source"`
		Target   string  `toml:"target"` // "all" or a decimal index
		Behavior string  `toml:"behavior"`
		Strength float32 `toml:"strength"`
		Range    float32 `toml:"range"`
	} `toml:"interaction"`

	Curves struct {
		Hue        []float32 `toml:"hue"`
		Saturation []float32 `toml:"saturation"`
		Brightness []float32 `toml:"brightness"`
	} `toml:"curves"`
}

var headShapeNames = map[string]HeadShape{
	"arrow": HeadShapeArrow, "chevron": HeadShapeChevron,
	"diamond": HeadShapeDiamond, "circle": HeadShapeCircle,
}

var alphaModeNames = map[string]AlphaMode{
	"opaque": AlphaOpaque, "speed_fade": AlphaSpeedFade, "density_fade": AlphaDensityFade,
}

var behaviorNames = map[string]Behavior{
	"ignore": BehaviorIgnore, "avoid": BehaviorAvoid, "pursue": BehaviorPursue,
	"attract": BehaviorAttract, "mirror": BehaviorMirror, "orbit": BehaviorOrbit,
}

var boundaryNames = map[string]BoundaryMode{
	"plane": BoundaryPlane, "cylinder_x": BoundaryCylinderX, "cylinder_y": BoundaryCylinderY,
	"torus": BoundaryTorus, "mobius_x": BoundaryMobiusX, "mobius_y": BoundaryMobiusY,
	"klein_x": BoundaryKleinX, "klein_y": BoundaryKleinY, "projective_plane": BoundaryProjectivePlane,
}

var colorSourceNames = map[string]ColorSource{
	"speed": ColorSourceSpeed, "orientation": ColorSourceOrientation,
	"turning": ColorSourceTurning, "true_turning": ColorSourceTrueTurning,
	"species": ColorSourceSpecies, "density": ColorSourceDensity,
	"anisotropy": ColorSourceAnisotropy, "spectral": ColorSourceSpectral,
	"solid": ColorSourceSolid,
}

var spectrumNames = map[string]Spectrum{
	"none": SpectrumNone, "chrome": SpectrumChrome, "ocean": SpectrumOcean,
	"bands": SpectrumBands, "rainbow": SpectrumRainbow, "mono": SpectrumMono,
}

// LoadFile reads a TOML config file and merges it onto a Default(maxBoids)
// base, so a file may specify only the fields it wants to override.
func LoadFile(path string, maxBoids int) (*Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return fromFileConfig(&fc, maxBoids)
}

// LoadBytes is LoadFile's variant for already-read config text, used by
// --headless test harnesses that keep fixtures in memory.
func LoadBytes(data []byte, maxBoids int) (*Config, error) {
	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return fromFileConfig(&fc, maxBoids)
}

func fromFileConfig(fc *fileConfig, maxBoids int) (*Config, error) {
	c := Default(maxBoids)

	if fc.Sim.Width > 0 {
		c.Width = fc.Sim.Width
	}
	if fc.Sim.Height > 0 {
		c.Height = fc.Sim.Height
	}
	if fc.Sim.BoidCount > 0 {
		c.BoidCount = fc.Sim.BoidCount
	}
	if fc.Sim.Perception > 0 {
		c.Perception = fc.Sim.Perception
	}
	c.FineGrid = fc.Sim.FineGrid
	if fc.Sim.TrailLength > 0 {
		c.TrailLength = fc.Sim.TrailLength
	}
	if fc.Sim.Alignment != 0 {
		c.Alignment = fc.Sim.Alignment
	}
	if fc.Sim.Cohesion != 0 {
		c.Cohesion = fc.Sim.Cohesion
	}
	if fc.Sim.Separation != 0 {
		c.Separation = fc.Sim.Separation
	}
	if fc.Sim.MaxSpeed != 0 {
		c.MaxSpeed = fc.Sim.MaxSpeed
	}
	if fc.Sim.MaxForce != 0 {
		c.MaxForce = fc.Sim.MaxForce
	}
	c.Noise = fc.Sim.Noise
	c.Rebels = fc.Sim.Rebels
	if fc.Sim.Boundary != "" {
		mode, ok := boundaryNames[fc.Sim.Boundary]
		if !ok {
			return nil, fmt.Errorf("config: unknown boundary %q", fc.Sim.Boundary)
		}
		c.BoundaryMode = mode
	}
	if fc.Sim.BoidSize > 0 {
		c.BoidSize = fc.Sim.BoidSize
	}
	if fc.Sim.GlobalCollision != nil {
		c.GlobalCollision = *fc.Sim.GlobalCollision
	}
	if fc.Sim.TimeScale > 0 {
		c.TimeScale = fc.Sim.TimeScale
	}
	if fc.Sim.Sensitivity > 0 {
		c.Color.Sensitivity = fc.Sim.Sensitivity
	}
	if fc.Sim.HueSource != "" {
		src, ok := colorSourceNames[fc.Sim.HueSource]
		if !ok {
			return nil, fmt.Errorf("config: unknown hue_source %q", fc.Sim.HueSource)
		}
		c.Color.HueSource = src
	}
	if fc.Sim.SatSource != "" {
		src, ok := colorSourceNames[fc.Sim.SatSource]
		if !ok {
			return nil, fmt.Errorf("config: unknown saturation_source %q", fc.Sim.SatSource)
		}
		c.Color.SaturationSource = src
	}
	if fc.Sim.BrightSource != "" {
		src, ok := colorSourceNames[fc.Sim.BrightSource]
		if !ok {
			return nil, fmt.Errorf("config: unknown brightness_source %q", fc.Sim.BrightSource)
		}
		c.Color.BrightnessSource = src
	}
	if fc.Sim.Spectrum != "" {
		sp, ok := spectrumNames[fc.Sim.Spectrum]
		if !ok {
			return nil, fmt.Errorf("config: unknown spectrum %q", fc.Sim.Spectrum)
		}
		c.Color.Spectrum = sp
	}

	if len(fc.Species) > 0 {
		species := make([]Species, 0, len(fc.Species))
		for i, s := range fc.Species {
			shape := HeadShapeArrow
			if s.HeadShape != "" {
				var ok bool
				shape, ok = headShapeNames[s.HeadShape]
				if !ok {
					return nil, fmt.Errorf("config: species[%d]: unknown head_shape %q", i, s.HeadShape)
				}
			}
			alpha := AlphaOpaque
			if s.AlphaMode != "" {
				var ok bool
				alpha, ok = alphaModeNames[s.AlphaMode]
				if !ok {
					return nil, fmt.Errorf("config: species[%d]: unknown alpha_mode %q", i, s.AlphaMode)
				}
			}
			species = append(species, Species{
				Alignment: s.Alignment, Cohesion: s.Cohesion, Separation: s.Separation,
				Perception: s.Perception, MaxSpeed: s.MaxSpeed, MaxForce: s.MaxForce, Rebels: s.Rebels,
				Hue: s.Hue, Saturation: s.Saturation, Lightness: s.Lightness,
				HeadShape: shape, Size: s.Size, TrailLength: s.TrailLength, AlphaMode: alpha,
				CursorForce: s.CursorForce, CursorResponse: s.CursorResponse, CursorVortex: s.CursorVortex,
			})
		}
		c.Species = species
	}

	if len(fc.Interaction) > 0 {
		rules := make([]RawRule, 0, len(fc.Interaction))
		for i, r := range fc.Interaction {
			behavior, ok := behaviorNames[r.Behavior]
			if !ok {
				return nil, fmt.Errorf("config: interaction[%d]: unknown behavior %q", i, r.Behavior)
			}
			target := TargetAll
			if r.Target != "" && r.Target != "all" {
				if _, err := fmt.Sscanf(r.Target, "%d", &target); err != nil {
					return nil, fmt.Errorf("config: interaction[%d]: invalid target %q", i, r.Target)
				}
			}
			rules = append(rules, RawRule{
				Source: r.Source,
				Target: target,
				Rule:   InteractionRule{Behavior: behavior, Strength: r.Strength, Range: r.Range},
			})
		}
		c.Interactions = rules
	}

	if len(fc.Curves.Hue) > 0 {
		c.Curves.Hue = fc.Curves.Hue
	}
	if len(fc.Curves.Saturation) > 0 {
		c.Curves.Saturation = fc.Curves.Saturation
	}
	if len(fc.Curves.Brightness) > 0 {
		c.Curves.Brightness = fc.Curves.Brightness
	}

	c.Dirty |= DirtyParams | DirtySpecies | DirtyInteractions | DirtyCurves | DirtyNeedsReallocate | DirtyNeedsReset
	return c, nil
}

// fileExists reports whether path can be stat'ed.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
