package render

import "github.com/bilgisen/newsinsight/internal/models"

// Palette is the colour set of one theme
type Palette struct {
	Accent     Color
	AccentText Color
	Tint       Color
	Muted      Color
}

var palettes = map[models.ThemeColor]Palette{
	models.ThemeRed: {
		Accent:     Hex("#dc2626"),
		AccentText: Hex("#ffffff"),
		Tint:       Hex("#1f0707"),
		Muted:      Hex("#fca5a5"),
	},
	models.ThemeCyan: {
		Accent:     Hex("#06b6d4"),
		AccentText: Hex("#082f49"),
		Tint:       Hex("#04171c"),
		Muted:      Hex("#a5f3fc"),
	},
	models.ThemeEmerald: {
		Accent:     Hex("#10b981"),
		AccentText: Hex("#022c22"),
		Tint:       Hex("#03140e"),
		Muted:      Hex("#a7f3d0"),
	},
	models.ThemePurple: {
		Accent:     Hex("#9333ea"),
		AccentText: Hex("#ffffff"),
		Tint:       Hex("#12061f"),
		Muted:      Hex("#d8b4fe"),
	},
	models.ThemeGold: {
		Accent:     Hex("#eab308"),
		AccentText: Hex("#1c1917"),
		Tint:       Hex("#161003"),
		Muted:      Hex("#fde68a"),
	},
}

// PaletteFor returns the palette of theme, falling back to gold.
func PaletteFor(theme models.ThemeColor) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[models.ThemeGold]
}

var (
	white     = Hex("#ffffff")
	softWhite = Hex("#e5e7eb")
	grey      = Hex("#9ca3af")
	ink       = Hex("#0a0a0a")
)

// layoutFunc arranges a post on the card for one layout type
type layoutFunc func(p models.PostViewModel, pal Palette) (Color, []Element)

var layouts = map[models.LayoutType]layoutFunc{
	models.LayoutModern:  modernLayout,
	models.LayoutMinimal: minimalLayout,
	models.LayoutBold:    boldLayout,
}

// modern: header row, media band, badge on the media edge, text below.
func modernLayout(p models.PostViewModel, pal Palette) (Color, []Element) {
	els := []Element{
		logoElement(p, pal, Rect{16, 12, 32, 32}),
		{Kind: KindUsername, Rect: Rect{56, 12, 328, 32}, Text: p.Username, TextColor: white, FontSize: 14, Bold: true, MaxLines: 1},
		mediaElement(p, Rect{0, 56, CardWidth, 250}),
		{Kind: KindBadge, Rect: Rect{16, 290, 128, 28}, Text: p.Badge, Fill: pal.Accent, TextColor: pal.AccentText, FontSize: 13, Bold: true, MaxLines: 1, Align: AlignCenter},
		{Kind: KindHeadline, Rect: Rect{16, 328, 368, 84}, Text: p.Headline, TextColor: white, FontSize: 21, Bold: true, MaxLines: 3},
		{Kind: KindDescription, Rect: Rect{16, 414, 368, 56}, Text: p.Description, TextColor: softWhite, FontSize: 13, MaxLines: 3},
		{Kind: KindTimestamp, Rect: Rect{16, 474, 368, 18}, Text: p.Date, TextColor: pal.Muted, FontSize: 11, MaxLines: 1},
	}
	return pal.Tint, els
}

// minimal: media on top, quiet text block with a thin accent rule.
func minimalLayout(p models.PostViewModel, pal Palette) (Color, []Element) {
	els := []Element{
		mediaElement(p, Rect{0, 0, CardWidth, 290}),
		logoElement(p, pal, Rect{16, 302, 28, 28}),
		{Kind: KindUsername, Rect: Rect{52, 302, 200, 28}, Text: p.Username, TextColor: softWhite, FontSize: 13, MaxLines: 1},
		{Kind: KindBadge, Rect: Rect{264, 302, 120, 28}, Text: p.Badge, TextColor: pal.Accent, FontSize: 12, Bold: true, MaxLines: 1, Align: AlignRight},
		{Kind: KindAccentBar, Rect: Rect{16, 342, 3, 72}, Fill: pal.Accent},
		{Kind: KindHeadline, Rect: Rect{28, 340, 356, 78}, Text: p.Headline, TextColor: white, FontSize: 19, Bold: true, MaxLines: 3},
		{Kind: KindDescription, Rect: Rect{16, 424, 368, 46}, Text: p.Description, TextColor: grey, FontSize: 12, MaxLines: 2},
		{Kind: KindTimestamp, Rect: Rect{16, 476, 368, 16}, Text: p.Date, TextColor: grey, FontSize: 10, MaxLines: 1},
	}
	return ink, els
}

// bold: full-bleed media under a dark scrim with oversized headline.
func boldLayout(p models.PostViewModel, pal Palette) (Color, []Element) {
	els := []Element{
		mediaElement(p, Rect{0, 0, CardWidth, CardHeight}),
		{Kind: KindScrim, Rect: Rect{0, 180, CardWidth, 320}, Fill: ink.WithAlpha(0xf2)},
		{Kind: KindBadge, Rect: Rect{16, 16, 140, 32}, Text: p.Badge, Fill: pal.Accent, TextColor: pal.AccentText, FontSize: 15, Bold: true, MaxLines: 1, Align: AlignCenter},
		logoElement(p, pal, Rect{348, 16, 36, 36}),
		{Kind: KindHeadline, Rect: Rect{16, 286, 368, 120}, Text: p.Headline, TextColor: white, FontSize: 27, Bold: true, MaxLines: 3},
		{Kind: KindAccentBar, Rect: Rect{16, 410, 64, 4}, Fill: pal.Accent},
		{Kind: KindDescription, Rect: Rect{16, 420, 368, 48}, Text: p.Description, TextColor: softWhite, FontSize: 13, MaxLines: 2},
		{Kind: KindUsername, Rect: Rect{16, 474, 184, 18}, Text: p.Username, TextColor: pal.Accent, FontSize: 11, Bold: true, MaxLines: 1},
		{Kind: KindTimestamp, Rect: Rect{200, 474, 184, 18}, Text: p.Date, TextColor: grey, FontSize: 11, MaxLines: 1, Align: AlignRight},
	}
	return ink, els
}

func mediaElement(p models.PostViewModel, r Rect) Element {
	return Element{
		Kind:   KindMedia,
		Rect:   r,
		Source: p.ActiveMediaURL(),
		Video:  p.ContentType == models.ContentVideo,
		Fill:   Hex("#111827"),
	}
}

// logoElement shows the logo image when set, otherwise the logo text mark.
func logoElement(p models.PostViewModel, pal Palette, r Rect) Element {
	e := Element{
		Kind:      KindLogo,
		Rect:      r,
		Fill:      pal.Accent,
		TextColor: pal.AccentText,
		FontSize:  float64(r.H) * 0.4,
		Bold:      true,
		MaxLines:  1,
		Align:     AlignCenter,
		Circle:    true,
	}
	if p.LogoURL != "" {
		e.Source = p.LogoURL
	} else {
		e.Text = p.LogoText
	}
	return e
}
