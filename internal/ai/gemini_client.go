package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

var (
	errNoCandidates = errors.New("no content in response")
	errNoImage      = errors.New("response carried no image data")
)

// GeminiClient talks to the Gemini generateContent endpoint. It keeps no
// state between calls and never retries.
type GeminiClient struct {
	client     *resty.Client
	apiKey     string
	model      string
	imageModel string
	baseURL    string
	post       *PostProcessor
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// Options configures a GeminiClient
type Options struct {
	APIKey     string
	Model      string
	ImageModel string
	BaseURL    string
	Timeout    time.Duration
	// Limiter throttles outgoing calls. Optional.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func NewGeminiClient(opts Options) *GeminiClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &GeminiClient{
		client:     resty.New().SetTimeout(opts.Timeout),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		imageModel: opts.ImageModel,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		post:       NewPostProcessor(),
		limiter:    opts.Limiter,
		log:        opts.Logger,
	}
}

// GenerateContent asks the text model for the post fields and analysis of a topic.
func (g *GeminiClient) GenerateContent(ctx context.Context, topic string) (*models.GeneratedContent, error) {
	temperature := 0.9
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: BuildContentPrompt(topic)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      &temperature,
		},
	}

	start := time.Now()
	resp, err := g.call(ctx, g.model, req)
	if err != nil {
		return nil, models.NewServiceError(models.ErrCodeContentFailed, fmt.Errorf("error calling Gemini API: %w", err))
	}

	text := firstText(resp)
	if text == "" {
		return nil, models.NewServiceError(models.ErrCodeContentFailed, errNoCandidates)
	}

	content, err := parseContentResponse(text)
	if err != nil {
		return nil, models.NewServiceError(models.ErrCodeContentFailed, fmt.Errorf("error parsing Gemini response: %w", err))
	}
	if err := g.post.ProcessContent(content); err != nil {
		return nil, models.NewServiceError(models.ErrCodeContentFailed, err)
	}

	g.log.Debug().
		Str("model", g.model).
		Dur("took", time.Since(start)).
		Int("hashtags", len(content.Analysis.Hashtags)).
		Msg("Generated post content")

	return content, nil
}

// GenerateImage asks the image model for an illustration and returns it as a
// data URI.
func (g *GeminiClient) GenerateImage(ctx context.Context, topic string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: BuildImagePrompt(topic)}},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}

	start := time.Now()
	resp, err := g.call(ctx, g.imageModel, req)
	if err != nil {
		return "", models.NewServiceError(models.ErrCodeImageFailed, fmt.Errorf("error calling Gemini image API: %w", err))
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			g.log.Debug().
				Str("model", g.imageModel).
				Str("mime", mime).
				Int("encoded_bytes", len(part.InlineData.Data)).
				Dur("took", time.Since(start)).
				Msg("Generated post image")
			return "data:" + mime + ";base64," + part.InlineData.Data, nil
		}
	}

	return "", models.NewServiceError(models.ErrCodeImageFailed, errNoImage)
}

func (g *GeminiClient) call(ctx context.Context, model string, req geminiRequest) (*geminiResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limited: %w", err)
		}
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, model)

	var result geminiResponse
	var apiErr geminiResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post(url)

	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}

	if resp.IsError() {
		if apiErr.Error != nil {
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (status %d)", resp.StatusCode())
	}

	if result.Error != nil {
		return nil, fmt.Errorf("API error: %s", result.Error.Message)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return nil, errNoCandidates
	}

	return &result, nil
}

func firstText(resp *geminiResponse) string {
	for _, cand := range resp.Candidates {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			return s
		}
	}
	return ""
}

func parseContentResponse(response string) (*models.GeneratedContent, error) {
	var result ResponseTemplate

	// Clean the response (sometimes Gemini adds markdown code blocks)
	clean := strings.TrimSpace(response)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```json")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
		clean = strings.TrimSpace(clean)
	}

	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &models.GeneratedContent{
		Fields: models.GeneratedFields{
			Headline:    result.Headline,
			Description: result.Description,
			Badge:       result.Badge,
			Username:    result.Username,
			ThemeColor:  models.ThemeColor(result.ThemeColor),
			LayoutType:  models.LayoutType(result.LayoutType),
		},
		Analysis: models.AIAnalysis{
			Sentiment:       result.Analysis.Sentiment,
			EngagementScore: int(math.Round(result.Analysis.EngagementScore)),
			Hashtags:        result.Analysis.Hashtags,
			Suggestions:     result.Analysis.Suggestions,
			Summary:         result.Analysis.Summary,
		},
	}, nil
}
