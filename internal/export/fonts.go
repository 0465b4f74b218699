package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// devanagariSample covers the vowels, consonants, signs and virama a
// headline font must carry.
const devanagariSample = "अआइईउऊएऐओऔकखगघङचछजझञटठडढणतथदधनपफबभमयरलवशषसहािीुूेैोौंः्।"

// ErrNoDevanagariFont is returned when no configured or installed font
// can render Hindi.
var ErrNoDevanagariFont = errors.New("no Devanagari font found, set FONT_REGULAR to a font such as Noto Sans Devanagari")

// systemFonts lists where common distributions install Noto Sans
// Devanagari, regular then bold.
var systemFonts = [][2]string{
	{"/usr/share/fonts/truetype/noto/NotoSansDevanagari-Regular.ttf", "/usr/share/fonts/truetype/noto/NotoSansDevanagari-Bold.ttf"},
	{"/usr/share/fonts/noto/NotoSansDevanagari-Regular.ttf", "/usr/share/fonts/noto/NotoSansDevanagari-Bold.ttf"},
	{"/usr/share/fonts/google-noto/NotoSansDevanagari-Regular.ttf", "/usr/share/fonts/google-noto/NotoSansDevanagari-Bold.ttf"},
	{"/usr/share/fonts/opentype/noto/NotoSansDevanagari-Regular.ttf", "/usr/share/fonts/opentype/noto/NotoSansDevanagari-Bold.ttf"},
	{"/usr/share/fonts/truetype/lohit-devanagari/Lohit-Devanagari.ttf", ""},
}

// SystemFont returns the first installed Devanagari font. bold is empty
// when the family ships a single weight.
func SystemFont() (regular, bold string, ok bool) {
	for _, paths := range systemFonts {
		if !fileExists(paths[0]) {
			continue
		}
		if fileExists(paths[1]) {
			return paths[0], paths[1], true
		}
		return paths[0], "", true
	}
	return "", "", false
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// fontSet holds the Devanagari typefaces and the Latin faces used for
// runes they lack.
type fontSet struct {
	regular      *font.Font
	bold         *font.Font
	latinRegular *font.Font
	latinBold    *font.Font
}

// loadFonts parses the configured font files, looking for an installed
// Devanagari font when none is set. Fonts that cannot render Hindi are
// rejected.
func loadFonts(regularPath, boldPath string) (*fontSet, error) {
	if regularPath == "" {
		r, b, ok := SystemFont()
		if !ok {
			return nil, ErrNoDevanagariFont
		}
		regularPath = r
		if boldPath == "" {
			boldPath = b
		}
	}

	regular, err := parseFontFile(regularPath)
	if err != nil {
		return nil, err
	}
	bold := regular
	if boldPath != "" {
		if bold, err = parseFontFile(boldPath); err != nil {
			return nil, err
		}
	}
	if err := checkCoverage(regularPath, regular); err != nil {
		return nil, err
	}
	if boldPath != "" {
		if err := checkCoverage(boldPath, bold); err != nil {
			return nil, err
		}
	}

	latinRegular, err := parseFont("goregular", goregular.TTF)
	if err != nil {
		return nil, err
	}
	latinBold, err := parseFont("gobold", gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &fontSet{
		regular:      regular,
		bold:         bold,
		latinRegular: latinRegular,
		latinBold:    latinBold,
	}, nil
}

func parseFontFile(path string) (*font.Font, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	return parseFont(path, b)
}

func parseFont(name string, data []byte) (*font.Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return face.Font, nil
}

func checkCoverage(path string, f *font.Font) error {
	if missing := missingGlyphs(f, devanagariSample); len(missing) > 0 {
		return fmt.Errorf("font %s has no glyphs for %q: %w", path, string(missing), ErrNoDevanagariFont)
	}
	return nil
}

// missingGlyphs returns the runes of s that f has no glyph for.
func missingGlyphs(f *font.Font, s string) []rune {
	var missing []rune
	for _, r := range s {
		if _, ok := f.NominalGlyph(r); !ok {
			missing = append(missing, r)
		}
	}
	return missing
}
