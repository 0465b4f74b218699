package ai

import (
	"fmt"
	"strings"
)

// PromptTemplates contains the prompts sent to the text and image models
var PromptTemplates = struct {
	NewsPost  string
	PostImage string
}{
	NewsPost: `You are the social media editor of a Hindi news page.
Write a viral Instagram news post about the topic below.

Requirements:
1. headline: punchy Hindi headline, max 80 characters
2. description: 1-2 Hindi sentences, max 220 characters
3. badge: very short Hindi label such as "बड़ी खबर" or "ब्रेकिंग"
4. username: lowercase handle of the news page, letters, digits and underscores only
5. themeColor: one of red, cyan, emerald, purple, gold matching the mood
6. layoutType: one of modern, minimal, bold
7. analysis: object with
   - sentiment (string)
   - engagementScore (integer 0-100)
   - hashtags (array of strings without #)
   - suggestions (array of strings)
   - summary (string)

Respond ONLY with a valid JSON object with these fields. No markdown.

Topic: %s`,

	PostImage: `Create a dramatic, photorealistic news illustration for a social media post.
Square composition, no text, no watermarks, no logos.
Subject: %s`,
}

// BuildContentPrompt creates the prompt for post text generation
func BuildContentPrompt(topic string) string {
	return fmt.Sprintf(PromptTemplates.NewsPost, escapeForPrompt(topic))
}

// BuildImagePrompt creates the prompt for post image generation
func BuildImagePrompt(topic string) string {
	return fmt.Sprintf(PromptTemplates.PostImage, escapeForPrompt(topic))
}

// escapeForPrompt escapes special characters for use in prompts
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// ResponseTemplate defines the expected JSON structure of the AI's response
type ResponseTemplate struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Badge       string `json:"badge"`
	Username    string `json:"username"`
	ThemeColor  string `json:"themeColor"`
	LayoutType  string `json:"layoutType"`
	Analysis    struct {
		Sentiment       string   `json:"sentiment"`
		EngagementScore float64  `json:"engagementScore"`
		Hashtags        []string `json:"hashtags"`
		Suggestions     []string `json:"suggestions"`
		Summary         string   `json:"summary"`
	} `json:"analysis"`
}
