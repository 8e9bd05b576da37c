// Package asciitab implements the Rhythmic Inferrer (spec.md §4.7,
// tab → events) and the ASCII Layout (spec.md §4.8, events → tab).
package asciitab

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fretscribe/articulation"
	"fretscribe/ferr"
	"fretscribe/frame"
	"fretscribe/mapper"
)

// logAlpha tunes the log column schedule (spec.md §4.8 col(k) formula): how
// sharply early notes spread out relative to late ones within a measure.
const logAlpha = 4.0

// articulationGlyphs maps the tab cell characters to their articulation,
// mirroring articulation.Kind.String() in the opposite direction.
var articulationGlyphs = map[byte]articulation.Kind{
	'h':  articulation.HammerOn,
	'p':  articulation.PullOff,
	'/':  articulation.SlideUp,
	'\\': articulation.SlideDown,
	't':  articulation.Tap,
}

// Header is the metadata spec.md §6 reads from `//`-prefixed comment lines.
type Header struct {
	Title         string
	Tempo         float64
	BeatsPerBar   int
	BeatUnit      int
	TuningPreset  string
	StringLetters []string // high-to-low note letters, row 0 first
}

func defaultHeader() Header {
	return Header{Tempo: 120, BeatsPerBar: 4, BeatUnit: 4}
}

// ParseResult is Parse's output: the header metadata plus the NoteEvents
// reconstructed from the tab body.
type ParseResult struct {
	Header Header
	Events []frame.NoteEvent
}

// Options configures Parse's duration-reconstruction policy.
type Options struct {
	// Staccato forces every note to a 1/8-beat duration instead of
	// sustaining to the next note on the same string (spec.md §4.7 point
	// 6, CLI --staccato).
	Staccato bool
}

// Parse reads ASCII tab text and reconstructs NoteEvents.
//
// Column-to-beat reconstruction: the forward layout (§4.8) assigns each
// note a column by its RANK among the K notes in its measure, not by its
// true beat offset — the schedule compresses column spacing for late
// notes, but it does not encode beat values anywhere recoverable from
// text. So the only information a parser can recover is note *order*,
// which raw column position already gives for free. This implementation
// reconstructs beats as k/K of the measure (even subdivision by rank),
// for both self-produced and foreign tabs; spec.md §9's open question
// flags this same ambiguity and explicitly tells us not to guess further.
func Parse(input string, opt Options, openPitches []int, capo int) (ParseResult, error) {
	lines := strings.Split(input, "\n")

	header := defaultHeader()
	var bodyLines []string
	var bodyLineNo []int // 1-based source line number per bodyLines entry
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(trimmed), "//") {
			parseHeaderLine(&header, trimmed)
			continue
		}
		bodyLines = append(bodyLines, trimmed)
		bodyLineNo = append(bodyLineNo, i+1)
	}

	systems, err := splitSystems(bodyLines, bodyLineNo)
	if err != nil {
		return ParseResult{}, err
	}

	var events []frame.NoteEvent
	beatCursor := 0.0
	beatsPerBar := float64(header.BeatsPerBar)
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}

	for _, sys := range systems {
		measures := splitMeasures(sys)
		for _, measure := range measures {
			notes, err := parseMeasureNotes(measure)
			if err != nil {
				return ParseResult{}, err
			}
			k := len(notes)
			for idx, n := range notes {
				beat := beatCursor
				if k > 0 {
					beat = beatCursor + (float64(idx)/float64(k))*beatsPerBar
				}
				dur := 0.125
				if !opt.Staccato {
					dur = nextOnSameString(notes, idx, beatsPerBar, k) - (float64(idx) / float64(k) * beatsPerBar)
					if dur <= 0 {
						dur = 0.125
					}
				}
				pitch := 0
				if n.stringIdx < len(openPitches) {
					pitch = openPitches[n.stringIdx] + capo + n.fret
				}
				events = append(events, frame.NoteEvent{
					Pitch:         pitch,
					StartBeat:     frame.FromFloat(beat),
					DurationBeats: frame.FromFloat(dur),
					Velocity:      100,
				})
			}
			beatCursor += beatsPerBar
		}
	}

	return ParseResult{Header: header, Events: events}, nil
}

type parsedNote struct {
	stringIdx int
	fret      int
	pitch     int
	art       articulation.Kind
}

// nextOnSameString returns the beat offset (relative to the measure start)
// of the next note sharing idx's string, or beatsPerBar if none: sustain
// runs to whichever comes first.
func nextOnSameString(notes []parsedNote, idx int, beatsPerBar float64, k int) float64 {
	for j := idx + 1; j < len(notes); j++ {
		if notes[j].stringIdx == notes[idx].stringIdx {
			return float64(j) / float64(k) * beatsPerBar
		}
	}
	return beatsPerBar
}

func parseHeaderLine(h *Header, line string) {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "//"))
	parts := strings.SplitN(content, ":", 2)
	if len(parts) != 2 {
		return
	}
	key := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])
	switch strings.ToLower(key) {
	case "title":
		h.Title = val
	case "tempo":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			h.Tempo = f
		}
	case "time":
		nd := strings.SplitN(val, "/", 2)
		if len(nd) == 2 {
			if n, err := strconv.Atoi(strings.TrimSpace(nd[0])); err == nil {
				h.BeatsPerBar = n
			}
			if d, err := strconv.Atoi(strings.TrimSpace(nd[1])); err == nil {
				h.BeatUnit = d
			}
		}
	case "tuning":
		h.TuningPreset = val
	}
}

// rawSystem is one block of consecutive tab rows (one per string) between
// blank lines, with their note letters and cell bodies already split off.
type rawSystem struct {
	letters []string
	cells   []string // cells[i] is row i's cell body (after "<note>|")
	lineNo  []int    // source line number per row, for diagnostics
}

func splitSystems(lines []string, lineNo []int) ([]rawSystem, error) {
	var systems []rawSystem
	var cur rawSystem

	flush := func() error {
		if len(cur.letters) == 0 {
			return nil
		}
		width := -1
		for i, c := range cur.cells {
			if width == -1 {
				width = len(c)
				continue
			}
			if len(c) != width {
				return ferr.NewInput(cur.lineNo[i], len(c)+1, "row %q has %d cells, expected %d", cur.letters[i], len(c), width)
			}
		}
		systems = append(systems, cur)
		cur = rawSystem{}
		return nil
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		bar := strings.Index(line, "|")
		if bar < 0 {
			return nil, ferr.NewInput(lineNo[i], 1, "row %q missing '|' after the string letter", line)
		}
		cur.letters = append(cur.letters, strings.TrimSpace(line[:bar]))
		cur.cells = append(cur.cells, line[bar+1:])
		cur.lineNo = append(cur.lineNo, lineNo[i])
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return systems, nil
}

// splitMeasures cuts a system's cell grid into per-measure column ranges at
// columns where every row holds '|'.
func splitMeasures(sys rawSystem) []rawSystem {
	if len(sys.cells) == 0 {
		return nil
	}
	width := len(sys.cells[0])

	var bounds []int // column indices of full-width bars, ascending
	for col := 0; col < width; col++ {
		allBar := true
		for _, c := range sys.cells {
			if c[col] != '|' {
				allBar = false
				break
			}
		}
		if allBar {
			bounds = append(bounds, col)
		}
	}

	var measures []rawSystem
	start := 0
	emit := func(end int) {
		if end <= start {
			return
		}
		m := rawSystem{letters: sys.letters, lineNo: sys.lineNo}
		for _, c := range sys.cells {
			m.cells = append(m.cells, c[start:end])
		}
		measures = append(measures, m)
	}
	for _, b := range bounds {
		emit(b)
		start = b + 1
	}
	emit(width)
	return measures
}

// parseMeasureNotes scans one measure's cell grid column by column,
// left to right, collecting note columns (possibly multi-digit frets) and
// any articulation glyph immediately preceding them.
func parseMeasureNotes(m rawSystem) ([]parsedNote, error) {
	if len(m.cells) == 0 {
		return nil, nil
	}
	width := len(m.cells[0])
	consumed := make([][]bool, len(m.cells))
	for i := range consumed {
		consumed[i] = make([]bool, width)
	}

	var notes []parsedNote
	for col := 0; col < width; col++ {
		for row := range m.cells {
			if consumed[row][col] {
				continue
			}
			ch := m.cells[row][col]
			if ch < '0' || ch > '9' {
				continue
			}
			end := col
			for end < width && m.cells[row][end] >= '0' && m.cells[row][end] <= '9' {
				consumed[row][end] = true
				end++
			}
			fret, err := strconv.Atoi(m.cells[row][col:end])
			if err != nil {
				return nil, ferr.NewInput(m.lineNo[row], col+1, "invalid fret digits %q", m.cells[row][col:end])
			}
			art := articulation.None
			if col > 0 {
				if k, ok := articulationGlyphs[m.cells[row][col-1]]; ok {
					art = k
				}
			}
			notes = append(notes, parsedNote{stringIdx: row, fret: fret, art: art})
		}
	}
	return notes, nil
}

// --- ASCII Layout: events -> tab (spec.md §4.8) ---

// LayoutOptions configures Render.
type LayoutOptions struct {
	MaxLineWidth int // measure width in characters, default 40
	BeatsPerBar  int // default 4
}

// Render lays out a solved ChosenFrame sequence as ASCII tab text, one row
// per string (row 0 = highest-sounding), using the logarithmic column
// schedule of spec.md §4.8. stringLetters must have one entry per string,
// ordered the same way.
func Render(frames []mapper.ChosenFrame, trans []articulation.Transition, stringLetters []string, opt LayoutOptions) string {
	if opt.MaxLineWidth <= 0 {
		opt.MaxLineWidth = 40
	}
	if opt.BeatsPerBar <= 0 {
		opt.BeatsPerBar = 4
	}

	artByTransition := make(map[int]articulation.Kind, len(trans))
	for _, t := range trans {
		artByTransition[t.ToFrame] = t.Kind
	}

	numStrings := len(stringLetters)
	beatsPerBar := float64(opt.BeatsPerBar)

	type measureBuf struct {
		cells [][]string // [string][column]
	}
	var measures []measureBuf
	newMeasure := func() measureBuf {
		mb := measureBuf{cells: make([][]string, numStrings)}
		for s := range mb.cells {
			mb.cells[s] = make([]string, opt.MaxLineWidth)
			for c := range mb.cells[s] {
				mb.cells[s][c] = "-"
			}
		}
		return mb
	}

	// Group frames into measures by absolute beat, then lay out each
	// measure's K notes with the log schedule.
	type posNote struct {
		frameIdx int
		str      int
		fret     int
	}
	measureNotes := map[int][]posNote{}
	maxMeasure := 0
	for i, f := range frames {
		if f.IsRest {
			continue
		}
		measureIdx := int(f.Frame.StartBeat.Float64() / beatsPerBar)
		if measureIdx > maxMeasure {
			maxMeasure = measureIdx
		}
		for _, p := range f.Positions {
			measureNotes[measureIdx] = append(measureNotes[measureIdx], posNote{frameIdx: i, str: p.Position.String, fret: p.Position.Fret})
		}
	}

	for i := 0; i <= maxMeasure; i++ {
		measures = append(measures, newMeasure())
		notes := measureNotes[i]
		k := len(notes)
		w := opt.MaxLineWidth - 1 // reserve last column for spacing before the bar
		for idx, n := range notes {
			col := logColumn(idx, k, w)
			fretStr := strconv.Itoa(n.fret)
			if art, ok := artByTransition[n.frameIdx]; ok && art != articulation.None && col > 0 {
				measures[i].cells[n.str][col-1] = art.String()
			}
			measures[i].cells[n.str][col] = fretStr
			for extra := 1; extra < len(fretStr) && col+extra < opt.MaxLineWidth; extra++ {
				measures[i].cells[n.str][col+extra] = ""
			}
		}
	}

	rows := make([]strings.Builder, numStrings)
	for s := 0; s < numStrings; s++ {
		rows[s].WriteString(stringLetters[s])
		rows[s].WriteByte('|')
		for mi, m := range measures {
			for _, cell := range m.cells[s] {
				rows[s].WriteString(cell)
			}
			if mi < len(measures)-1 {
				rows[s].WriteByte('|')
			}
		}
	}

	var out strings.Builder
	for s := 0; s < numStrings; s++ {
		out.WriteString(rows[s].String())
		out.WriteByte('\n')
	}
	return out.String()
}

// logColumn computes col(k) from spec.md §4.8: col(k) = round(W *
// log(1+k*alpha) / log(1+(K-1)*alpha)). K==1 places the lone note at
// column 0.
func logColumn(k, total, w int) int {
	if total <= 1 {
		return 0
	}
	denom := math.Log(1 + float64(total-1)*logAlpha)
	if denom == 0 {
		return 0
	}
	col := int(math.Round(float64(w) * math.Log(1+float64(k)*logAlpha) / denom))
	if col < 0 {
		col = 0
	}
	if col >= w {
		col = w - 1
	}
	return col
}

// The tab*Style values colour fret digits, articulation glyphs, bar lines
// and string labels for the terminal preview rendering (a colourised
// preview alongside the byte-exact output).
var (
	tabFretStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd7ff")).Bold(true)
	tabArtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaf00"))
	tabBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	tabLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d0d0d0")).Bold(true)
)

// RenderStyled produces a lipgloss-colourised version of plain for
// terminal display; it never affects the byte-exact output written to
// disk (spec.md §8 property 4 determinism applies only to Render).
func RenderStyled(plain string) string {
	var out strings.Builder
	for _, line := range strings.Split(strings.TrimRight(plain, "\n"), "\n") {
		bar := strings.Index(line, "|")
		if bar < 0 {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		out.WriteString(tabLabelStyle.Render(line[:bar]))
		out.WriteString(tabBarStyle.Render("|"))
		for _, r := range line[bar+1:] {
			switch {
			case r >= '0' && r <= '9':
				out.WriteString(tabFretStyle.Render(string(r)))
			case r == '|':
				out.WriteString(tabBarStyle.Render("|"))
			case r == 'h' || r == 'p' || r == '/' || r == '\\' || r == 't':
				out.WriteString(tabArtStyle.Render(string(r)))
			default:
				out.WriteRune(r)
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}

// headerComment renders the header lines spec.md §6 expects.
func headerComment(h Header) string {
	var b strings.Builder
	if h.Title != "" {
		fmt.Fprintf(&b, "// Title: %s\n", h.Title)
	}
	fmt.Fprintf(&b, "// Tempo: %g\n", h.Tempo)
	fmt.Fprintf(&b, "// Time: %d/%d\n", h.BeatsPerBar, h.BeatUnit)
	if h.TuningPreset != "" {
		fmt.Fprintf(&b, "// Tuning: %s\n", h.TuningPreset)
	}
	return b.String()
}

// RenderWithHeader prefixes Render's output with the header comment block.
func RenderWithHeader(h Header, frames []mapper.ChosenFrame, trans []articulation.Transition, stringLetters []string, opt LayoutOptions) string {
	return headerComment(h) + "\n" + Render(frames, trans, stringLetters, opt)
}
