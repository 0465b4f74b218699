package models

import (
	"fmt"
	"strings"
	"time"
)

// ThemeColor selects the accent palette of the card
type ThemeColor string

const (
	ThemeRed     ThemeColor = "red"
	ThemeCyan    ThemeColor = "cyan"
	ThemeEmerald ThemeColor = "emerald"
	ThemePurple  ThemeColor = "purple"
	ThemeGold    ThemeColor = "gold"
)

// ThemeColors lists every supported theme in display order.
var ThemeColors = []ThemeColor{ThemeRed, ThemeCyan, ThemeEmerald, ThemePurple, ThemeGold}

func (t ThemeColor) Valid() bool {
	for _, c := range ThemeColors {
		if c == t {
			return true
		}
	}
	return false
}

// LayoutType selects the structural arrangement of the card
type LayoutType string

const (
	LayoutModern  LayoutType = "modern"
	LayoutMinimal LayoutType = "minimal"
	LayoutBold    LayoutType = "bold"
)

var LayoutTypes = []LayoutType{LayoutModern, LayoutMinimal, LayoutBold}

func (l LayoutType) Valid() bool {
	for _, c := range LayoutTypes {
		if c == l {
			return true
		}
	}
	return false
}

// ContentType selects which media field the renderer consumes
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
)

var ContentTypes = []ContentType{ContentImage, ContentVideo}

func (c ContentType) Valid() bool {
	return c == ContentImage || c == ContentVideo
}

// PostViewModel describes one generated news post
type PostViewModel struct {
	Headline    string      `json:"headline"`
	Description string      `json:"description"`
	Badge       string      `json:"badge"`
	Username    string      `json:"username"`
	Date        string      `json:"date"`
	ThemeColor  ThemeColor  `json:"themeColor"`
	LayoutType  LayoutType  `json:"layoutType"`
	ContentType ContentType `json:"contentType"`
	ImageURL    string      `json:"imageUrl"`
	VideoURL    string      `json:"videoUrl,omitempty"`
	LogoText    string      `json:"logoText"`
	LogoURL     string      `json:"logoUrl,omitempty"`
}

const (
	defaultHeadline    = "भारत की बड़ी जीत: नई तकनीक से बदलेगा देश का भविष्य!"
	defaultDescription = "वैज्ञानिकों ने एक ऐसा आविष्कार किया है जिससे आने वाले समय में ऊर्जा की समस्या पूरी तरह खत्म हो जाएगी।"
	defaultImageURL    = "https://images.unsplash.com/photo-1451187580459-43490279c0fa?auto=format&fit=crop&q=80&w=800"
)

// DefaultPost returns the view-model a new session starts with
func DefaultPost(now time.Time) PostViewModel {
	return PostViewModel{
		Headline:    defaultHeadline,
		Description: defaultDescription,
		Badge:       "बड़ी खबर",
		Username:    "news_insight",
		Date:        FormatHindiDate(now),
		ThemeColor:  ThemeGold,
		LayoutType:  LayoutModern,
		ContentType: ContentImage,
		ImageURL:    defaultImageURL,
		LogoText:    "NI",
	}
}

// ActiveMediaURL returns the media reference selected by ContentType.
func (p PostViewModel) ActiveMediaURL() string {
	if p.ContentType == ContentVideo {
		return p.VideoURL
	}
	return p.ImageURL
}

// ReadyForExport returns a validation error when the post has no headline.
func (p PostViewModel) ReadyForExport() error {
	if strings.TrimSpace(p.Headline) == "" {
		return NewEmptyHeadlineError()
	}
	return nil
}

// GeneratedFields is the subset of a post produced by the content call.
// Empty strings mean "not generated" and leave the existing value alone.
type GeneratedFields struct {
	Headline    string     `json:"headline"`
	Description string     `json:"description"`
	Badge       string     `json:"badge"`
	Username    string     `json:"username"`
	ThemeColor  ThemeColor `json:"themeColor,omitempty"`
	LayoutType  LayoutType `json:"layoutType,omitempty"`
}

// GeneratedContent is the full result of one content call.
type GeneratedContent struct {
	Fields   GeneratedFields
	Analysis AIAnalysis
}

// Merge overwrites the post with every populated generated field.
func (p *PostViewModel) Merge(f GeneratedFields) {
	if f.Headline != "" {
		p.Headline = f.Headline
	}
	if f.Description != "" {
		p.Description = f.Description
	}
	if f.Badge != "" {
		p.Badge = f.Badge
	}
	if f.Username != "" {
		p.Username = f.Username
	}
	if f.ThemeColor.Valid() {
		p.ThemeColor = f.ThemeColor
	}
	if f.LayoutType.Valid() {
		p.LayoutType = f.LayoutType
	}
}

// Editable field names accepted by SetField.
const (
	FieldHeadline    = "headline"
	FieldDescription = "description"
	FieldBadge       = "badge"
	FieldUsername    = "username"
	FieldThemeColor  = "themeColor"
	FieldLayoutType  = "layoutType"
	FieldContentType = "contentType"
	FieldImageURL    = "imageUrl"
	FieldVideoURL    = "videoUrl"
	FieldLogoText    = "logoText"
	FieldLogoURL     = "logoUrl"
)

// SetField applies a manual edit to exactly one field. Date is derived and
// cannot be edited.
func (p *PostViewModel) SetField(name, value string) error {
	switch name {
	case FieldHeadline:
		p.Headline = value
	case FieldDescription:
		p.Description = value
	case FieldBadge:
		p.Badge = value
	case FieldUsername:
		p.Username = value
	case FieldImageURL:
		p.ImageURL = value
	case FieldVideoURL:
		p.VideoURL = value
	case FieldLogoText:
		p.LogoText = value
	case FieldLogoURL:
		p.LogoURL = value
	case FieldThemeColor:
		if !ThemeColor(value).Valid() {
			return NewInvalidFieldValueError(name, value)
		}
		p.ThemeColor = ThemeColor(value)
	case FieldLayoutType:
		if !LayoutType(value).Valid() {
			return NewInvalidFieldValueError(name, value)
		}
		p.LayoutType = LayoutType(value)
	case FieldContentType:
		if !ContentType(value).Valid() {
			return NewInvalidFieldValueError(name, value)
		}
		p.ContentType = ContentType(value)
	default:
		return NewUnknownFieldError(name)
	}
	return nil
}

var hindiMonths = [...]string{
	"जनवरी", "फ़रवरी", "मार्च", "अप्रैल", "मई", "जून",
	"जुलाई", "अगस्त", "सितंबर", "अक्तूबर", "नवंबर", "दिसंबर",
}

// FormatHindiDate formats t the way the hi-IN locale renders a long date,
// e.g. "16 अक्तूबर 2026".
func FormatHindiDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), hindiMonths[t.Month()-1], t.Year())
}
