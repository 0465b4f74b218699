// Package export rasterizes rendered cards to PNG and delivers the files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"time"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/bilgisen/newsinsight/internal/render"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"
)

// DefaultScale is the pixel ratio used for exports.
const DefaultScale = 3

// MediaLoader resolves a media reference to its MIME type and bytes
type MediaLoader interface {
	Load(ctx context.Context, ref string) (string, []byte, error)
}

// CaptureOptions configures a Capturer
type CaptureOptions struct {
	Scale       int
	FontRegular string
	FontBold    string
	Loader      MediaLoader
	Logger      zerolog.Logger
}

// Capturer turns cards into PNG images
type Capturer struct {
	scale  int
	fonts  *fontSet
	loader MediaLoader
	log    zerolog.Logger
}

// NewCapturer loads the configured fonts, or an installed Devanagari font
// when none is set, and fails when they cannot render Hindi.
func NewCapturer(opts CaptureOptions) (*Capturer, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("capturer requires a media loader")
	}
	fonts, err := loadFonts(opts.FontRegular, opts.FontBold)
	if err != nil {
		return nil, err
	}
	return newCapturerWithFonts(opts, fonts), nil
}

func newCapturerWithFonts(opts CaptureOptions, fonts *fontSet) *Capturer {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	return &Capturer{
		scale:  opts.Scale,
		fonts:  fonts,
		loader: opts.Loader,
		log:    opts.Logger,
	}
}

// Scale returns the pixel ratio of captured images.
func (c *Capturer) Scale() int {
	return c.scale
}

// Capture rasterizes card onto an opaque black canvas and encodes it as
// PNG. Every failure, panics included, is reported as a capture error.
func (c *Capturer) Capture(ctx context.Context, card render.Card) (out []byte, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during capture: %v", r)
		}
		if err != nil {
			c.log.Error().Err(err).Msg("Capture failed")
			out, err = nil, models.NewCaptureError(err)
		}
	}()

	if card.Width <= 0 || card.Height <= 0 {
		return nil, fmt.Errorf("invalid card size %dx%d", card.Width, card.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, card.Width*c.scale, card.Height*c.scale))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(card.Background), image.Point{}, draw.Over)

	ts := newTypesetter(c.fonts)

	for _, el := range card.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.drawElement(ctx, canvas, ts, el); err != nil {
			return nil, fmt.Errorf("failed to draw %s: %w", el.Kind, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	c.log.Debug().
		Str("theme", string(card.Theme)).
		Str("layout", string(card.Layout)).
		Int("bytes", buf.Len()).
		Dur("took", time.Since(start)).
		Msg("Card captured")
	return buf.Bytes(), nil
}

func (c *Capturer) rect(r render.Rect) image.Rectangle {
	s := c.scale
	return image.Rect(r.X*s, r.Y*s, (r.X+r.W)*s, (r.Y+r.H)*s)
}

func (c *Capturer) drawElement(ctx context.Context, dst *image.RGBA, ts *typesetter, el render.Element) error {
	box := c.rect(el.Rect)

	switch el.Kind {
	case render.KindMedia:
		if el.Video {
			fillRect(dst, box, el.Fill, nil)
			drawPlayGlyph(dst, box)
			return nil
		}
		if el.Source == "" {
			fillRect(dst, box, el.Fill, nil)
			return nil
		}
		return c.drawImage(ctx, dst, box, el.Source, nil)

	case render.KindScrim:
		drawScrim(dst, box, el.Fill)
		return nil

	case render.KindLogo:
		var mask image.Image
		if el.Circle {
			mask = circleMask(box.Dx(), box.Dy())
		}
		if el.Source != "" {
			return c.drawImage(ctx, dst, box, el.Source, mask)
		}
		fillRect(dst, box, el.Fill, mask)
		return c.drawText(dst, ts, box, el)

	default:
		fillRect(dst, box, el.Fill, nil)
		if el.Text == "" {
			return nil
		}
		return c.drawText(dst, ts, box, el)
	}
}

// drawImage loads the media and scales it to cover box, cropping the
// overflow around the centre.
func (c *Capturer) drawImage(ctx context.Context, dst *image.RGBA, box image.Rectangle, ref string, mask image.Image) error {
	_, data, err := c.loader.Load(ctx, ref)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode media: %w", err)
	}

	crop := coverCrop(src.Bounds(), box.Dx(), box.Dy())
	if mask == nil {
		xdraw.CatmullRom.Scale(dst, box, src, crop, xdraw.Over, nil)
		return nil
	}

	tile := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	xdraw.CatmullRom.Scale(tile, tile.Bounds(), src, crop, xdraw.Src, nil)
	draw.DrawMask(dst, box, tile, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

// coverCrop returns the centred part of src with the aspect ratio of w×h.
func coverCrop(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || w == 0 || h == 0 {
		return src
	}
	if sw*h > sh*w {
		cw := sh * w / h
		x := src.Min.X + (sw-cw)/2
		return image.Rect(x, src.Min.Y, x+cw, src.Max.Y)
	}
	ch := sw * h / w
	y := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+ch)
}

func (c *Capturer) drawText(dst *image.RGBA, ts *typesetter, box image.Rectangle, el render.Element) error {
	size := el.FontSize
	if size <= 0 {
		size = 12
	}
	style := ts.style(el.Bold, size*float64(c.scale))

	lines := wrapText(style, el.Text, fixed.I(box.Dx()), el.MaxLines)
	if len(lines) == 0 {
		return nil
	}

	ascent, descent, lineHeight := style.metrics()
	top := fixed.I(0)
	if el.MaxLines == 1 {
		// single-line boxes centre their text vertically
		top += (fixed.I(box.Dy()) - ascent - descent) / 2
	}

	// glyphs may reach a line outside the box on either side
	margin := lineHeight.Ceil()
	area := image.Rect(box.Min.X, box.Min.Y-margin, box.Max.X, box.Max.Y+margin).Intersect(dst.Bounds())
	if area.Empty() {
		return nil
	}
	offX, offY := fixed.I(box.Min.X-area.Min.X), fixed.I(box.Min.Y-area.Min.Y)

	r := vector.NewRasterizer(area.Dx(), area.Dy())
	for i, line := range lines {
		y := top + ascent + lineHeight*fixed.Int26_6(i)
		if y.Ceil() > box.Dy()+descent.Ceil() {
			break
		}
		x := fixed.I(0)
		switch el.Align {
		case render.AlignCenter:
			x = (fixed.I(box.Dx()) - style.measure(line)) / 2
		case render.AlignRight:
			x = fixed.I(box.Dx()) - style.measure(line)
		}
		style.draw(r, line, offX+x, offY+y)
	}
	r.Draw(dst, area, image.NewUniform(el.TextColor), image.Point{})
	return nil
}

func fillRect(dst *image.RGBA, box image.Rectangle, c render.Color, mask image.Image) {
	if c.A == 0 {
		return
	}
	draw.DrawMask(dst, box, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

// drawScrim darkens box with a gradient that is clear at the top and
// reaches the colour's alpha at the bottom.
func drawScrim(dst *image.RGBA, box image.Rectangle, c render.Color) {
	h := box.Dy()
	if h <= 0 || c.A == 0 {
		return
	}
	for y := 0; y < h; y++ {
		a := uint8(int(c.A) * y / h)
		row := image.Rect(box.Min.X, box.Min.Y+y, box.Max.X, box.Min.Y+y+1)
		draw.Draw(dst, row, image.NewUniform(c.WithAlpha(a)), image.Point{}, draw.Over)
	}
}

// drawPlayGlyph marks a video placeholder with a centred play triangle.
func drawPlayGlyph(dst *image.RGBA, box image.Rectangle) {
	size := min(box.Dx(), box.Dy()) / 5
	if size <= 0 {
		return
	}
	cx, cy := box.Min.X+box.Dx()/2, box.Min.Y+box.Dy()/2
	left := cx - size/3
	for dy := -size / 2; dy <= size/2; dy++ {
		span := size - 2*abs(dy)
		for dx := 0; dx < span; dx++ {
			dst.Set(left+dx, cy+dy, color.White)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// circle is an alpha mask of the ellipse inscribed in a w×h box at the
// origin.
type circle struct {
	w, h int
}

func circleMask(w, h int) image.Image {
	return &circle{w: w, h: h}
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle { return image.Rect(0, 0, c.w, c.h) }

func (c *circle) At(x, y int) color.Color {
	rx, ry := float64(c.w)/2, float64(c.h)/2
	if rx == 0 || ry == 0 {
		return color.Transparent
	}
	dx := (float64(x) + 0.5 - rx) / rx
	dy := (float64(y) + 0.5 - ry) / ry
	if dx*dx+dy*dy <= 1 {
		return color.Opaque
	}
	return color.Transparent
}
