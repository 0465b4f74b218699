package ai

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

var controlRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// PostProcessor validates and cleans AI generated post content
type PostProcessor struct {
	markup              *bluemonday.Policy
	maxHeadlineRunes    int
	maxDescriptionRunes int
	maxBadgeRunes       int
	maxHashtags         int
}

func NewPostProcessor() *PostProcessor {
	markup := bluemonday.StrictPolicy()
	markup.AddSpaceWhenStrippingTag(true)

	return &PostProcessor{
		markup:              markup,
		maxHeadlineRunes:    120,
		maxDescriptionRunes: 400,
		maxBadgeRunes:       24,
		maxHashtags:         15,
	}
}

// ProcessContent cleans the generated fields in place. Headline and
// description are required; everything else is best effort.
func (p *PostProcessor) ProcessContent(c *models.GeneratedContent) error {
	f := &c.Fields
	f.Headline = truncateRunes(p.cleanText(f.Headline), p.maxHeadlineRunes)
	f.Description = truncateRunes(p.cleanText(f.Description), p.maxDescriptionRunes)
	f.Badge = truncateRunes(p.cleanText(f.Badge), p.maxBadgeRunes)
	f.Username = cleanHandle(f.Username)

	if f.Headline == "" {
		return fmt.Errorf("missing required field: headline")
	}
	if f.Description == "" {
		return fmt.Errorf("missing required field: description")
	}

	// unknown hints are dropped so Merge keeps the current style
	if !f.ThemeColor.Valid() {
		f.ThemeColor = ""
	}
	if !f.LayoutType.Valid() {
		f.LayoutType = ""
	}

	a := &c.Analysis
	a.Sentiment = p.cleanText(a.Sentiment)
	a.Summary = p.cleanText(a.Summary)
	switch {
	case a.EngagementScore < 0:
		a.EngagementScore = 0
	case a.EngagementScore > 100:
		a.EngagementScore = 100
	}
	a.Hashtags = p.cleanList(a.Hashtags, true)
	if len(a.Hashtags) > p.maxHashtags {
		a.Hashtags = a.Hashtags[:p.maxHashtags]
	}
	a.Suggestions = p.cleanList(a.Suggestions, false)

	return nil
}

// cleanText strips markup, removes control characters and normalizes whitespace
func (p *PostProcessor) cleanText(s string) string {
	// the strict policy drops every tag and escapes what is left
	s = html.UnescapeString(p.markup.Sanitize(s))
	s = controlRegex.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// cleanList keeps order and duplicates but drops empty entries
func (p *PostProcessor) cleanList(items []string, hashtags bool) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = p.cleanText(item)
		if hashtags {
			item = strings.TrimLeft(item, "#")
			item = strings.ReplaceAll(item, " ", "")
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func cleanHandle(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@"))
	return strings.Join(strings.Fields(s), "_")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
