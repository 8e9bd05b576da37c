// Package config implements the configuration bag spec.md §9 Design Notes
// calls for: one immutable value built once at startup, threaded by
// reference through every mapper call instead of nested optional
// parameters. Loaded from YAML (grounded on the teacher's BTML track
// format) and overridable by CLI flags.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"fretscribe/articulation"
	"fretscribe/asciitab"
	"fretscribe/ferr"
	"fretscribe/fretboard"
	"fretscribe/frame"
	"fretscribe/mapper"
	"fretscribe/oracle"
	"fretscribe/scorer"
	"fretscribe/theory"
)

// StringOrList accepts either a scalar tuning name or a list of note names
// in YAML, collapsing both to a single space-joined string. Mirrors the
// teacher's StringOrList pattern (parser.go) used for its chord pattern
// field.
type StringOrList string

// UnmarshalYAML implements the scalar-or-list decoding.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err == nil {
		*s = StringOrList(str)
		return nil
	}
	var list []string
	if err := node.Decode(&list); err == nil {
		joined := ""
		for i, v := range list {
			if i > 0 {
				joined += " "
			}
			joined += v
		}
		*s = StringOrList(joined)
		return nil
	}
	return nil
}

// Document is the on-disk YAML configuration shape.
type Document struct {
	Tuning       StringOrList `yaml:"tuning"`
	Capo         int          `yaml:"capo"`
	NumStrings   int          `yaml:"num_strings"`
	MaxFret      int          `yaml:"max_fret"`
	SingleString int          `yaml:"single_string"` // 0 = unconstrained (1-based in YAML)

	Nudge             int     `yaml:"nudge"`
	Track             int     `yaml:"track"`
	Transpose         int     `yaml:"transpose"`
	ConstrainPitch    bool    `yaml:"constrain_pitch"`
	PitchMode         string  `yaml:"pitch_mode"`
	NoArticulations   bool    `yaml:"no_articulations"`
	Staccato          bool    `yaml:"staccato"`
	MaxLineWidth      int     `yaml:"max_line_width"`
	MonoLowestOnly    bool    `yaml:"mono_lowest_only"`
	Dedupe            bool    `yaml:"dedupe"`
	PreQuantize       bool    `yaml:"pre_quantize"`
	QuantizeRes       float64 `yaml:"quantization_resolution"`

	FretSpanPenalty               float64 `yaml:"fret_span_penalty"`
	MovementPenalty                float64 `yaml:"movement_penalty"`
	StringSwitchPenalty            float64 `yaml:"string_switch_penalty"`
	HighFretPenalty                float64 `yaml:"high_fret_penalty"`
	LowStringHighFretMultiplier    float64 `yaml:"low_string_high_fret_multiplier"`
	UnplayableFretSpan             int     `yaml:"unplayable_fret_span"`
	SweetSpotBonus                 float64 `yaml:"sweet_spot_bonus"`
	SweetSpotLow                   int     `yaml:"sweet_spot_low"`
	SweetSpotHigh                  int     `yaml:"sweet_spot_high"`
	IgnoreOpen                     bool    `yaml:"ignore_open"`
	BarreBonus                     float64 `yaml:"barre_bonus"`
	BarrePenalty                   float64 `yaml:"barre_penalty"`
	LetRingBonus                   float64 `yaml:"let_ring_bonus"`
	PreferOpen                     bool    `yaml:"prefer_open"`
	FrettedOpenPenalty             float64 `yaml:"fretted_open_penalty"`
	CountFretSpanAcrossNeighbors   bool    `yaml:"count_fret_span_across_neighbors"`
	LegatoTimeThreshold            float64 `yaml:"legato_time_threshold"`
	TappingRunThreshold            int     `yaml:"tapping_run_threshold"`
}

// Defaults returns the CLI surface's stated defaults (spec.md §6), exported
// so a caller building a Document from CLI flags alone (no YAML file) can
// start from the same baseline Load does.
func Defaults() Document { return defaults() }

// ParseDocument unmarshals a YAML configuration document without resolving
// it, so a caller can layer CLI-flag overrides on top before calling
// Resolve.
func ParseDocument(data []byte) (Document, error) {
	doc := defaults()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, ferr.NewConfig("unparseable configuration: %v", err)
	}
	return doc, nil
}

// defaults mirrors the CLI surface's stated defaults (spec.md §6).
func defaults() Document {
	return Document{
		Tuning:               "standard",
		NumStrings:           6,
		MaxFret:              15,
		PitchMode:            "drop",
		MaxLineWidth:         40,
		QuantizeRes:          0.125,
		UnplayableFretSpan:   4,
		SweetSpotHigh:        7,
		LegatoTimeThreshold:  0.05,
		TappingRunThreshold:  4,
		PreferOpen:           true,
	}
}

// Config is the resolved, immutable configuration bag (spec.md §9). Every
// field a mapper.Solve/frame.Normalize/asciitab call needs is derived here
// once; nothing in this struct is mutated after Load returns.
type Config struct {
	Doc Document

	Tuning     theory.Tuning
	Board      *fretboard.Board
	NormOpts   frame.Options
	MapperCfg  mapper.Config
	ArtWeights articulation.Weights
	LayoutOpts asciitab.LayoutOptions
}

// Load reads and validates a YAML configuration file, returning the
// derived Config. An empty path yields pure defaults.
func Load(path string) (*Config, error) {
	doc := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err // IOFault: surfaced verbatim
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, ferr.NewConfig("unparseable configuration: %v", err)
		}
	}
	return Resolve(doc)
}

// Resolve validates a Document and derives the Config values every
// downstream package consumes.
func Resolve(doc Document) (*Config, error) {
	if doc.SweetSpotLow > doc.SweetSpotHigh {
		return nil, ferr.NewConfig("sweet_spot_low (%d) exceeds sweet_spot_high (%d)", doc.SweetSpotLow, doc.SweetSpotHigh)
	}
	if doc.SingleString > doc.NumStrings {
		return nil, ferr.NewConfig("single_string (%d) exceeds num_strings (%d)", doc.SingleString, doc.NumStrings)
	}
	if doc.PitchMode != "drop" && doc.PitchMode != "normalize" {
		return nil, ferr.NewConfig("pitch_mode must be 'drop' or 'normalize', got %q", doc.PitchMode)
	}

	tuning, ok := resolveTuning(string(doc.Tuning), doc.NumStrings)
	if !ok {
		return nil, ferr.NewConfig("unrecognized tuning %q", doc.Tuning)
	}

	singleString := -1
	if doc.SingleString > 0 {
		singleString = doc.SingleString - 1
	}

	board, err := fretboard.New(tuning, doc.Capo, doc.MaxFret, singleString)
	if err != nil {
		return nil, err
	}

	pitchMode := frame.PitchDrop
	if doc.PitchMode == "normalize" {
		pitchMode = frame.PitchNormalize
	}

	rangeMin, rangeMax := board.PitchRange()

	cfg := &Config{
		Doc:    doc,
		Tuning: tuning,
		Board:  board,
		NormOpts: frame.Options{
			Nudge:          doc.Nudge,
			Transpose:      doc.Transpose,
			ConstrainPitch: doc.ConstrainPitch,
			PitchMode:      pitchMode,
			PitchRangeMin:  rangeMin,
			PitchRangeMax:  rangeMax,
			MonoLowestOnly: doc.MonoLowestOnly,
			Dedupe:         doc.Dedupe,
			PreQuantize:    doc.PreQuantize,
		},
		MapperCfg: mapper.Config{
			Oracle: oracle.Weights{
				UnplayableFretSpan:          doc.UnplayableFretSpan,
				IgnoreOpen:                  doc.IgnoreOpen,
				FretSpanPenalty:             doc.FretSpanPenalty,
				HighFretPenalty:             doc.HighFretPenalty,
				LowStringHighFretMultiplier: doc.LowStringHighFretMultiplier,
				BarreBonus:                  doc.BarreBonus,
				BarrePenalty:                doc.BarrePenalty,
				PreferOpen:                  doc.PreferOpen,
				FrettedOpenPenalty:          doc.FrettedOpenPenalty,
				SweetSpotLow:                doc.SweetSpotLow,
				SweetSpotHigh:               doc.SweetSpotHigh,
				SweetSpotBonus:              doc.SweetSpotBonus,
			},
			Scorer: scorer.Weights{
				MovementPenalty:              doc.MovementPenalty,
				StringSwitchPenalty:          doc.StringSwitchPenalty,
				LetRingBonus:                 doc.LetRingBonus,
				CountFretSpanAcrossNeighbors: doc.CountFretSpanAcrossNeighbors,
				UnplayableFretSpan:           doc.UnplayableFretSpan,
				IgnoreOpen:                   doc.IgnoreOpen,
			},
		},
		ArtWeights: articulation.Weights{
			LegatoTimeThreshold: doc.LegatoTimeThreshold,
			SlideFretThreshold:  2,
			TappingRunThreshold: doc.TappingRunThreshold,
			HandSpan:            doc.UnplayableFretSpan,
			Disabled:            doc.NoArticulations,
		},
		LayoutOpts: asciitab.LayoutOptions{
			MaxLineWidth: doc.MaxLineWidth,
		},
	}

	if res, ok := nearestResolution(doc.QuantizeRes); ok {
		cfg.NormOpts.GridResolution = res
	}

	return cfg, nil
}

func resolveTuning(name string, numStrings int) (theory.Tuning, bool) {
	if name == "" {
		name = "standard"
	}
	if t, ok := theory.Tunings[name]; ok {
		return t, true
	}
	if notes, ok := theory.ParseNoteList(name); ok && len(notes) > 0 {
		return theory.Tuning{Name: "custom", Notes: notes}, true
	}
	return theory.Tuning{}, false
}

func nearestResolution(want float64) (frame.Resolution, bool) {
	if want <= 0 || len(frame.Resolutions) == 0 {
		return frame.Resolution(0), false
	}
	best := frame.Resolutions[0]
	bestDiff := absF(float64(best) - want)
	for _, r := range frame.Resolutions[1:] {
		if d := absF(float64(r) - want); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best, true
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
