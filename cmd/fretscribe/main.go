// Command fretscribe is the CLI surface of spec.md §6: it loads a
// configuration, reads an event stream from an input file (format inferred
// from its extension), runs the fretboard mapper, and writes the result to
// an output file (format again inferred from its extension). Grounded on
// the teacher's main.go (parseArgs/printUsage/command switch), but the
// teacher's own hand-rolled flag scanner is replaced by stdlib flag, per
// the ambient-stack expansion in SPEC_FULL.md §9.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fretscribe/articulation"
	"fretscribe/asciitab"
	"fretscribe/config"
	"fretscribe/diag"
	"fretscribe/fretboard"
	"fretscribe/frame"
	"fretscribe/mapper"
	"fretscribe/midiio"
	"fretscribe/shape"
	"fretscribe/theory"
)

// Exit codes, fixed by spec.md §6.
const (
	exitOK         = 0
	exitUserError  = 1
	exitParseError = 2
	exitIOError    = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs, overrides, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUserError
	}

	rest := fs.Args()

	doc := config.Defaults()
	if overrides.configPath != "" {
		data, err := os.ReadFile(overrides.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fretscribe: reading config: %v\n", err)
			return exitUserError
		}
		if d, err := config.ParseDocument(data); err != nil {
			fmt.Fprintf(os.Stderr, "fretscribe: %v\n", err)
			return exitUserError
		} else {
			doc = d
		}
	}
	overrides.apply(&doc)

	cfg, err := config.Resolve(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fretscribe: %v\n", err)
		return exitUserError
	}

	if overrides.analyzeMode {
		if len(rest) < 1 {
			fmt.Fprintln(os.Stderr, "usage: fretscribe --analyze [flags] <input>")
			return exitUserError
		}
		return runAnalyze(rest[0], cfg, overrides)
	}

	if len(rest) < 2 {
		printUsage()
		return exitUserError
	}
	return runTranscribe(rest[0], rest[1], cfg, overrides)
}

// overrideSet bundles every CLI flag from spec.md §6's "Configuration
// options" table plus the path-free flags (--analyze, --verbose, --preview). Only
// flags the user actually passed are copied into the YAML-derived
// config.Document, by walking flag.Visit after parsing.
type overrideSet struct {
	configPath  string
	analyzeMode bool
	verbose     bool
	preview     bool
	track       int

	setters map[string]func(*config.Document)
}

func parseFlags(args []string) (*flag.FlagSet, *overrideSet, error) {
	fs := flag.NewFlagSet("fretscribe", flag.ContinueOnError)
	ov := &overrideSet{setters: map[string]func(*config.Document){}}

	fs.StringVar(&ov.configPath, "config", "", "path to a YAML configuration document")
	fs.BoolVar(&ov.analyzeMode, "analyze", false, "report tuning-preset pitch coverage instead of transcribing")
	fs.BoolVar(&ov.verbose, "verbose", false, "print debug-level diagnostics")
	fs.BoolVar(&ov.preview, "preview", false, "print a colourised tab preview to stdout alongside the written output")

	tuning := fs.String("tuning", "", "tuning preset name or space-separated note list")
	capo := fs.Int("capo", -1, "capo fret offset")
	numStrings := fs.Int("num_strings", -1, "string count")
	maxFret := fs.Int("max_fret", -1, "highest playable fret")
	singleString := fs.Int("single_string", -1, "force all positions onto this 1-based string")

	nudge := fs.Int("nudge", 0, "shift every event's start beat right by nudge*0.25 beats")
	track := fs.Int("track", 0, "1-based MIDI track to select; 0 = merge all tracks")
	transpose := fs.Int("transpose", 0, "signed semitone transposition")
	constrainPitch := fs.Bool("constrain_pitch", false, "drop/fold out-of-range pitches")
	pitchMode := fs.String("pitch_mode", "", "drop | normalize")
	noArticulations := fs.Bool("no_articulations", false, "disable articulation inference")
	staccato := fs.Bool("staccato", false, "force 1/8-beat durations when parsing tab")
	maxLineWidth := fs.Int("max_line_width", -1, "ASCII layout measure width, characters")
	monoLowestOnly := fs.Bool("mono_lowest_only", false, "keep only the lowest pitch per frame")
	dedupe := fs.Bool("dedupe", false, "collapse duplicate pitches within a frame")
	preQuantize := fs.Bool("pre_quantize", false, "snap start beats to the grid before framing")
	quantizeRes := fs.Float64("quantization_resolution", -1, "frame-grouping grid, in beats")

	fretSpanPenalty := fs.Float64("fret_span_penalty", -1, "")
	movementPenalty := fs.Float64("movement_penalty", -1, "")
	stringSwitchPenalty := fs.Float64("string_switch_penalty", -1, "")
	highFretPenalty := fs.Float64("high_fret_penalty", -1, "")
	lowStringMult := fs.Float64("low_string_high_fret_multiplier", -1, "")
	unplayableSpan := fs.Int("unplayable_fret_span", -1, "")
	sweetSpotBonus := fs.Float64("sweet_spot_bonus", -1, "")
	sweetSpotLow := fs.Int("sweet_spot_low", -1, "")
	sweetSpotHigh := fs.Int("sweet_spot_high", -1, "")
	ignoreOpen := fs.Bool("ignore_open", false, "")
	barreBonus := fs.Float64("barre_bonus", -1, "")
	barrePenalty := fs.Float64("barre_penalty", -1, "")
	letRingBonus := fs.Float64("let_ring_bonus", -1, "")
	preferOpen := fs.Bool("prefer_open", false, "")
	frettedOpenPenalty := fs.Float64("fretted_open_penalty", -1, "")
	neighborSpanGate := fs.Bool("count_fret_span_across_neighbors", false, "")
	legatoThreshold := fs.Float64("legato_time_threshold", -1, "")
	tapRunThreshold := fs.Int("tapping_run_threshold", -1, "")

	fs.Usage = printUsage

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tuning":
			ov.setters["tuning"] = func(d *config.Document) { d.Tuning = config.StringOrList(*tuning) }
		case "capo":
			ov.setters["capo"] = func(d *config.Document) { d.Capo = *capo }
		case "num_strings":
			ov.setters["num_strings"] = func(d *config.Document) { d.NumStrings = *numStrings }
		case "max_fret":
			ov.setters["max_fret"] = func(d *config.Document) { d.MaxFret = *maxFret }
		case "single_string":
			ov.setters["single_string"] = func(d *config.Document) { d.SingleString = *singleString }
		case "nudge":
			ov.setters["nudge"] = func(d *config.Document) { d.Nudge = *nudge }
		case "track":
			ov.setters["track"] = func(d *config.Document) { d.Track = *track }
		case "transpose":
			ov.setters["transpose"] = func(d *config.Document) { d.Transpose = *transpose }
		case "constrain_pitch":
			ov.setters["constrain_pitch"] = func(d *config.Document) { d.ConstrainPitch = *constrainPitch }
		case "pitch_mode":
			ov.setters["pitch_mode"] = func(d *config.Document) { d.PitchMode = *pitchMode }
		case "no_articulations":
			ov.setters["no_articulations"] = func(d *config.Document) { d.NoArticulations = *noArticulations }
		case "staccato":
			ov.setters["staccato"] = func(d *config.Document) { d.Staccato = *staccato }
		case "max_line_width":
			ov.setters["max_line_width"] = func(d *config.Document) { d.MaxLineWidth = *maxLineWidth }
		case "mono_lowest_only":
			ov.setters["mono_lowest_only"] = func(d *config.Document) { d.MonoLowestOnly = *monoLowestOnly }
		case "dedupe":
			ov.setters["dedupe"] = func(d *config.Document) { d.Dedupe = *dedupe }
		case "pre_quantize":
			ov.setters["pre_quantize"] = func(d *config.Document) { d.PreQuantize = *preQuantize }
		case "quantization_resolution":
			ov.setters["quantization_resolution"] = func(d *config.Document) { d.QuantizeRes = *quantizeRes }
		case "fret_span_penalty":
			ov.setters["fret_span_penalty"] = func(d *config.Document) { d.FretSpanPenalty = *fretSpanPenalty }
		case "movement_penalty":
			ov.setters["movement_penalty"] = func(d *config.Document) { d.MovementPenalty = *movementPenalty }
		case "string_switch_penalty":
			ov.setters["string_switch_penalty"] = func(d *config.Document) { d.StringSwitchPenalty = *stringSwitchPenalty }
		case "high_fret_penalty":
			ov.setters["high_fret_penalty"] = func(d *config.Document) { d.HighFretPenalty = *highFretPenalty }
		case "low_string_high_fret_multiplier":
			ov.setters["low_string_high_fret_multiplier"] = func(d *config.Document) { d.LowStringHighFretMultiplier = *lowStringMult }
		case "unplayable_fret_span":
			ov.setters["unplayable_fret_span"] = func(d *config.Document) { d.UnplayableFretSpan = *unplayableSpan }
		case "sweet_spot_bonus":
			ov.setters["sweet_spot_bonus"] = func(d *config.Document) { d.SweetSpotBonus = *sweetSpotBonus }
		case "sweet_spot_low":
			ov.setters["sweet_spot_low"] = func(d *config.Document) { d.SweetSpotLow = *sweetSpotLow }
		case "sweet_spot_high":
			ov.setters["sweet_spot_high"] = func(d *config.Document) { d.SweetSpotHigh = *sweetSpotHigh }
		case "ignore_open":
			ov.setters["ignore_open"] = func(d *config.Document) { d.IgnoreOpen = *ignoreOpen }
		case "barre_bonus":
			ov.setters["barre_bonus"] = func(d *config.Document) { d.BarreBonus = *barreBonus }
		case "barre_penalty":
			ov.setters["barre_penalty"] = func(d *config.Document) { d.BarrePenalty = *barrePenalty }
		case "let_ring_bonus":
			ov.setters["let_ring_bonus"] = func(d *config.Document) { d.LetRingBonus = *letRingBonus }
		case "prefer_open":
			ov.setters["prefer_open"] = func(d *config.Document) { d.PreferOpen = *preferOpen }
		case "fretted_open_penalty":
			ov.setters["fretted_open_penalty"] = func(d *config.Document) { d.FrettedOpenPenalty = *frettedOpenPenalty }
		case "count_fret_span_across_neighbors":
			ov.setters["count_fret_span_across_neighbors"] = func(d *config.Document) { d.CountFretSpanAcrossNeighbors = *neighborSpanGate }
		case "legato_time_threshold":
			ov.setters["legato_time_threshold"] = func(d *config.Document) { d.LegatoTimeThreshold = *legatoThreshold }
		case "tapping_run_threshold":
			ov.setters["tapping_run_threshold"] = func(d *config.Document) { d.TappingRunThreshold = *tapRunThreshold }
		}
	})
	ov.track = *track

	return fs, ov, nil
}

func (ov *overrideSet) apply(doc *config.Document) {
	for _, set := range ov.setters {
		set(doc)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `fretscribe: maps timed pitch events onto fretted-string tablature and back

usage:
  fretscribe [flags] <input> <output>
  fretscribe --analyze [flags] <input>

input/output formats are inferred from file extension:
  .mid, .midi          Standard MIDI File
  .tab, .txt           ASCII tablature

flags:
  --config path        YAML configuration document (CLI flags override it)
  --verbose            print debug-level diagnostics
  --analyze            report which tuning presets cover the input's pitch span
  ... and every configuration option in spec.md §6 (run with -h for the full list)`)
}

// runTranscribe implements the forward direction: read events from in,
// solve, render to out. Exit codes follow spec.md §6.
func runTranscribe(in, out string, cfg *config.Config, ov *overrideSet) int {
	sink, summary := newSink(ov.verbose)

	events, tempo, code := readEvents(in, cfg, ov.track)
	if code != exitOK {
		return code
	}

	frames := frame.Normalize(events, cfg.NormOpts, sink, summary)
	chosen := mapper.Solve(frames, cfg.Board, cfg.MapperCfg, sink, summary)
	transitions := articulation.Infer(chosen, cfg.ArtWeights)

	tabText, err := writeOutput(out, chosen, transitions, cfg, tempo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fretscribe: writing %s: %v\n", out, err)
		return exitIOError
	}

	if ov.preview && tabText != "" {
		fmt.Println(asciitab.RenderStyled(tabText))
	}

	fmt.Fprintln(os.Stderr, summary.Render())
	return exitOK
}

// runAnalyze implements spec.md §4.1's --analyze surface: reads events,
// reports which preset tunings in the catalogue cover their pitch span,
// then runs the normaliser and mapper and tallies the named chord shapes
// (and unrecognized chords) among the solved frames.
func runAnalyze(in string, cfg *config.Config, ov *overrideSet) int {
	events, _, code := readEvents(in, cfg, ov.track)
	if code != exitOK {
		return code
	}
	if len(events) == 0 {
		fmt.Println("no events to analyze")
		return exitOK
	}

	minP, maxP := events[0].Pitch, events[0].Pitch
	for _, e := range events[1:] {
		if e.Pitch < minP {
			minP = e.Pitch
		}
		if e.Pitch > maxP {
			maxP = e.Pitch
		}
	}

	reports := fretboard.AnalyzeCoverage(theory.Tunings, minP, maxP, cfg.Doc.Capo, cfg.Doc.MaxFret)
	fmt.Printf("pitch span: %d..%d (%d events)\n", minP, maxP, len(events))
	for _, r := range reports {
		if r.Covers {
			fmt.Printf("  %-16s covers the full span\n", r.Preset)
		} else {
			fmt.Printf("  %-16s missing %d pitch(es)\n", r.Preset, len(r.Missing))
		}
	}

	sink, summary := newSink(false)
	frames := frame.Normalize(events, cfg.NormOpts, sink, summary)
	chosen := mapper.Solve(frames, cfg.Board, cfg.MapperCfg, sink, summary)

	shapeCounts := map[string]int{}
	chordFrames, unrecognized, unrecognizedSpan := 0, 0, 0
	for _, c := range chosen {
		if c.IsRest || len(c.Positions) < 2 {
			continue
		}
		chordFrames++

		positions := make([]shape.Position, len(c.Positions))
		for i, p := range c.Positions {
			positions[i] = shape.Position{String: p.Position.String, Fret: p.Position.Fret}
		}
		if name, offset, ok := shape.Match(positions, cfg.Board.NumStrings()); ok {
			label := name
			if offset > 0 {
				label = fmt.Sprintf("%s+%d", name, offset)
			}
			shapeCounts[label]++
			continue
		}

		sig := c.Signature()
		unrecognized++
		if sig.FrettedCount > 0 {
			unrecognizedSpan += sig.MaxFret - sig.MinFret
		}
	}

	if chordFrames > 0 {
		fmt.Printf("chord frames: %d\n", chordFrames)
		for name, n := range shapeCounts {
			fmt.Printf("  %-16s x%d\n", name, n)
		}
		if unrecognized > 0 {
			fmt.Printf("  %-16s x%d (avg fret span %.1f)\n", "unrecognized", unrecognized, float64(unrecognizedSpan)/float64(unrecognized))
		}
	}

	return exitOK
}

func readEvents(path string, cfg *config.Config, track int) ([]frame.NoteEvent, float64, int) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fretscribe: opening %s: %v\n", path, err)
		return nil, 0, exitUserError
	}
	defer f.Close()

	switch kind(path) {
	case kindMIDI:
		events, tempo, err := midiio.Decode(f, track)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fretscribe: %v\n", err)
			return nil, 0, exitParseError
		}
		return events, tempo, exitOK
	case kindASCIITab:
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fretscribe: opening %s: %v\n", path, err)
			return nil, 0, exitUserError
		}
		openPitches := make([]int, len(cfg.Tuning.Notes))
		for i, n := range cfg.Tuning.Notes {
			openPitches[i] = n
		}
		res, err := asciitab.Parse(string(data), asciitab.Options{Staccato: cfg.Doc.Staccato}, openPitches, cfg.Doc.Capo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fretscribe: %v\n", err)
			return nil, 0, exitParseError
		}
		return res.Events, res.Header.Tempo, exitOK
	default:
		fmt.Fprintf(os.Stderr, "fretscribe: unsupported input format %q (ABC/VexTab/audio sources are non-goals, see spec.md §1)\n", filepath.Ext(path))
		return nil, 0, exitUserError
	}
}

// writeOutput writes chosen to path in its inferred format and returns the
// ASCII-tab rendering of chosen regardless of that format, so callers can
// build a --preview dump even when the written output is a MIDI file.
func writeOutput(path string, chosen []mapper.ChosenFrame, transitions []articulation.Transition, cfg *config.Config, tempo float64) (string, error) {
	letters := stringLetters(cfg.Tuning)
	header := asciitab.Header{
		Tempo:         tempo,
		BeatsPerBar:   4,
		BeatUnit:      4,
		TuningPreset:  cfg.Tuning.Name,
		StringLetters: letters,
	}
	text := asciitab.RenderWithHeader(header, chosen, transitions, letters, cfg.LayoutOpts)

	switch kind(path) {
	case kindMIDI:
		f, err := os.Create(path)
		if err != nil {
			return text, err
		}
		defer f.Close()
		return text, midiio.Encode(f, chosen, tempo)
	case kindASCIITab:
		return text, os.WriteFile(path, []byte(text), 0644)
	default:
		return "", fmt.Errorf("unsupported output format %q (ABC/VexTab/audio sinks are non-goals, see spec.md §1)", filepath.Ext(path))
	}
}

type inputKind int

const (
	kindUnknown inputKind = iota
	kindMIDI
	kindASCIITab
)

func kind(path string) inputKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return kindMIDI
	case ".tab", ".txt":
		return kindASCIITab
	default:
		return kindUnknown
	}
}

func stringLetters(t theory.Tuning) []string {
	letters := make([]string, len(t.Notes))
	for i, p := range t.Notes {
		letters[i] = theory.MidiToNote(p)
	}
	return letters
}

func newSink(verbose bool) (diag.Sink, *diag.Summary) {
	return &diag.PrintSink{Verbose: verbose}, &diag.Summary{}
}
