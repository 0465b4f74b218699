package render

import "github.com/bilgisen/newsinsight/internal/models"

// Render lays out the post as a card. Unknown theme or layout values fall
// back to the defaults; the post itself is never modified.
func Render(p models.PostViewModel) Card {
	theme := p.ThemeColor
	if !theme.Valid() {
		theme = models.ThemeGold
	}
	layout := p.LayoutType
	if !layout.Valid() {
		layout = models.LayoutModern
	}
	content := p.ContentType
	if !content.Valid() {
		content = models.ContentImage
	}
	p.ContentType = content

	pal := PaletteFor(theme)
	bg, elements := layouts[layout](p, pal)

	return Card{
		Width:       CardWidth,
		Height:      CardHeight,
		Background:  bg,
		Accent:      pal.Accent,
		Theme:       theme,
		Layout:      layout,
		ContentType: content,
		Elements:    elements,
	}
}
