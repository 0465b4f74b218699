// Package render turns a post view-model into a card layout. Rendering is a
// pure function: the same post always yields the same card.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/bilgisen/newsinsight/internal/models"
)

// Logical card size. Exports are rasterized at a multiple of this.
const (
	CardWidth  = 400
	CardHeight = 500
)

// Color is an RGBA colour serialized as #rrggbbaa
type Color struct {
	R, G, B, A uint8
}

// Hex parses #rrggbb or #rrggbbaa. Malformed input yields transparent
// black; use ParseHex to see the error.
func Hex(s string) Color {
	c, _ := ParseHex(s)
	return c
}

func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a uint8) Color {
	c.A = a
	return c
}

// RGBA implements color.Color. Colours are stored non-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var Transparent = Color{}

// Rect is a box in logical card pixels
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ElementKind names the role of an element on the card
type ElementKind string

const (
	KindBadge       ElementKind = "badge"
	KindLogo        ElementKind = "logo"
	KindUsername    ElementKind = "username"
	KindMedia       ElementKind = "media"
	KindScrim       ElementKind = "scrim"
	KindAccentBar   ElementKind = "accent_bar"
	KindHeadline    ElementKind = "headline"
	KindDescription ElementKind = "description"
	KindTimestamp   ElementKind = "timestamp"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Element is one drawable part of the card. Text elements wrap inside Rect
// and are cut with an ellipsis after MaxLines.
type Element struct {
	Kind      ElementKind `json:"kind"`
	Rect      Rect        `json:"rect"`
	Text      string      `json:"text,omitempty"`
	Source    string      `json:"source,omitempty"`
	Video     bool        `json:"video,omitempty"`
	Fill      Color       `json:"fill"`
	TextColor Color       `json:"textColor"`
	FontSize  float64     `json:"fontSize,omitempty"`
	Bold      bool        `json:"bold,omitempty"`
	MaxLines  int         `json:"maxLines,omitempty"`
	Align     Align       `json:"align,omitempty"`
	Circle    bool        `json:"circle,omitempty"`
}

// Card is the rendered visual unit of a post
type Card struct {
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Background  Color              `json:"background"`
	Accent      Color              `json:"accent"`
	Theme       models.ThemeColor  `json:"theme"`
	Layout      models.LayoutType  `json:"layout"`
	ContentType models.ContentType `json:"contentType"`
	Elements    []Element          `json:"elements"`
}

// Find returns the first element of the given kind.
func (c Card) Find(kind ElementKind) (Element, bool) {
	for _, e := range c.Elements {
		if e.Kind == kind {
			return e, true
		}
	}
	return Element{}, false
}
