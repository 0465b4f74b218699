package export

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const ellipsis = "…"

const (
	virama = '\u094d'
	zwnj   = '\u200c'
	zwj    = '\u200d'
)

var hindi = language.NewLanguage("hi")

// typesetter shapes and draws text for one capture. Faces and the shaper
// keep caches, so neither is shared between captures.
type typesetter struct {
	fonts  *fontSet
	shaper shaping.HarfbuzzShaper
	faces  map[*font.Font]*font.Face
}

func newTypesetter(fonts *fontSet) *typesetter {
	return &typesetter{fonts: fonts, faces: make(map[*font.Font]*font.Face)}
}

func (t *typesetter) face(f *font.Font) *font.Face {
	face, ok := t.faces[f]
	if !ok {
		face = font.NewFace(f)
		t.faces[f] = face
	}
	return face
}

// style returns the weight at size pixels.
func (t *typesetter) style(bold bool, size float64) *textStyle {
	primary, latin := t.fonts.regular, t.fonts.latinRegular
	if bold {
		primary, latin = t.fonts.bold, t.fonts.latinBold
	}
	return &textStyle{
		shaper:  &t.shaper,
		primary: t.face(primary),
		latin:   t.face(latin),
		size:    fixed.Int26_6(size * 64),
	}
}

type textStyle struct {
	shaper  *shaping.HarfbuzzShaper
	primary *font.Face
	latin   *font.Face
	size    fixed.Int26_6
}

type shapedRun struct {
	face *font.Face
	out  shaping.Output
}

// shape splits text into runs by the face that covers them and shapes
// each run.
func (s *textStyle) shape(text string) []shapedRun {
	runes := []rune(text)
	var runs []shapedRun
	start := 0
	var current *font.Face
	flush := func(end int) {
		if end == start {
			return
		}
		face := current
		if face == nil {
			face = s.primary
		}
		out := s.shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  start,
			RunEnd:    end,
			Direction: di.DirectionLTR,
			Face:      face,
			Size:      s.size,
			Script:    scriptOf(runes[start:end]),
			Language:  hindi,
		})
		runs = append(runs, shapedRun{face: face, out: out})
		start = end
	}

	for i, r := range runes {
		face := s.faceFor(r)
		if face == nil || face == current {
			continue
		}
		if current != nil {
			flush(i)
		}
		current = face
	}
	flush(len(runes))
	return runs
}

// faceFor returns the face drawing r, or nil when r belongs to the run
// before it.
func (s *textStyle) faceFor(r rune) *font.Face {
	if joinsPrevious(0, r) || unicode.IsSpace(r) {
		return nil
	}
	if _, ok := s.primary.NominalGlyph(r); ok {
		return s.primary
	}
	if _, ok := s.latin.NominalGlyph(r); ok {
		return s.latin
	}
	return s.primary
}

func scriptOf(runes []rune) language.Script {
	for _, r := range runes {
		if unicode.Is(unicode.Devanagari, r) {
			return language.Devanagari
		}
	}
	return language.Latin
}

func (s *textStyle) measure(text string) fixed.Int26_6 {
	var w fixed.Int26_6
	for _, run := range s.shape(text) {
		w += run.out.Advance
	}
	return w
}

// metrics returns the ascent, descent and line height of the primary face.
func (s *textStyle) metrics() (ascent, descent, height fixed.Int26_6) {
	out := s.shaper.Shape(shaping.Input{
		Text:      []rune("क"),
		RunEnd:    1,
		Direction: di.DirectionLTR,
		Face:      s.primary,
		Size:      s.size,
		Script:    language.Devanagari,
		Language:  hindi,
	})
	b := out.LineBounds
	ascent, descent = b.Ascent, b.Descent
	if descent < 0 {
		descent = -descent
	}
	return ascent, descent, ascent + descent + b.Gap
}

// draw adds the outlines of text to r with the pen starting at (x, y) on
// the baseline.
func (s *textStyle) draw(r *vector.Rasterizer, text string, x, y fixed.Int26_6) {
	for _, run := range s.shape(text) {
		scale := toFloat(s.size) / float32(run.face.Upem())
		for _, g := range run.out.Glyphs {
			if outline, ok := run.face.GlyphData(g.GlyphID).(font.GlyphOutline); ok {
				fillOutline(r, outline, toFloat(x+g.XOffset), toFloat(y-g.YOffset), scale)
			}
			x += g.XAdvance
		}
	}
}

func fillOutline(r *vector.Rasterizer, outline font.GlyphOutline, x, y, scale float32) {
	pt := func(p opentype.SegmentPoint) (float32, float32) {
		return x + p.X*scale, y - p.Y*scale
	}
	open := false
	for _, seg := range outline.Segments {
		a := seg.Args
		switch seg.Op {
		case opentype.SegmentOpMoveTo:
			if open {
				r.ClosePath()
			}
			r.MoveTo(pt(a[0]))
			open = true
		case opentype.SegmentOpLineTo:
			r.LineTo(pt(a[0]))
		case opentype.SegmentOpQuadTo:
			bx, by := pt(a[0])
			cx, cy := pt(a[1])
			r.QuadTo(bx, by, cx, cy)
		case opentype.SegmentOpCubeTo:
			bx, by := pt(a[0])
			cx, cy := pt(a[1])
			dx, dy := pt(a[2])
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		r.ClosePath()
	}
}

func toFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

type measurer interface {
	measure(text string) fixed.Int26_6
}

// wrapText breaks text into lines no wider than width, keeping at most
// maxLines. The last kept line ends with an ellipsis when text was cut.
func wrapText(m measurer, text string, width fixed.Int26_6, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, w := range words {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if m.measure(candidate) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		// a single word wider than the box is split between clusters
		for m.measure(w) > width && clusterLen(w) < len(w) {
			head := fitClusters(m, w, width)
			lines = append(lines, head)
			w = w[len(head):]
		}
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = withEllipsis(m, lines[maxLines-1], width)
	}
	return lines
}

// fitClusters returns the longest cluster prefix of s that fits in width,
// at least one cluster.
func fitClusters(m measurer, s string, width fixed.Int26_6) string {
	end := 0
	for end < len(s) {
		next := end + clusterLen(s[end:])
		if end > 0 && m.measure(s[:next]) > width {
			break
		}
		end = next
	}
	return s[:end]
}

func withEllipsis(m measurer, line string, width fixed.Int26_6) string {
	for {
		candidate := strings.TrimRight(line, " ") + ellipsis
		if m.measure(candidate) <= width || line == "" {
			return candidate
		}
		line = dropLastCluster(line)
	}
}

// clusterLen returns the byte length of the first cluster of s: a base
// rune with the signs and virama-joined consonants that follow it.
func clusterLen(s string) int {
	prev, n := utf8.DecodeRuneInString(s)
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !joinsPrevious(prev, r) {
			break
		}
		prev = r
		n += size
	}
	return n
}

func dropLastCluster(s string) string {
	last := 0
	for i := 0; i < len(s); i += clusterLen(s[i:]) {
		last = i
	}
	return s[:last]
}

// joinsPrevious reports whether r cannot start a cluster after prev.
func joinsPrevious(prev, r rune) bool {
	if prev == virama || prev == zwj {
		return !unicode.IsSpace(r)
	}
	return r == zwj || r == zwnj || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Me)
}
