package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewGeminiClient(Options{
		APIKey:     "secret-key",
		Model:      "text-model",
		ImageModel: "image-model",
		BaseURL:    srv.URL,
		Logger:     zerolog.Nop(),
	}), &calls
}

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGenerateContent(t *testing.T) {
	payload := "```json\n" + `{
		"headline": "भारत का <b>मंगल</b> मिशन सफल",
		"description": "इसरो ने   इतिहास रचा।",
		"badge": "बड़ी खबर",
		"username": "@news_insight",
		"themeColor": "emerald",
		"layoutType": "sideways",
		"analysis": {
			"sentiment": "positive",
			"engagementScore": 142,
			"hashtags": ["#Mars", "India", "", "Mars"],
			"suggestions": ["Post in the evening"],
			"summary": "Mission success"
		}
	}` + "\n```"

	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/text-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret-key" {
			t.Errorf("api key header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "भारत मंगल मिशन") {
			t.Errorf("prompt does not contain topic: %s", body)
		}
		if !strings.Contains(string(body), `"responseMimeType":"application/json"`) {
			t.Errorf("missing JSON response mime type: %s", body)
		}
		writeJSON(w, http.StatusOK, textResponse(payload))
	})

	got, err := client.GenerateContent(context.Background(), "भारत मंगल मिशन")
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("calls = %d, want 1", atomic.LoadInt32(calls))
	}
	if got.Fields.Headline != "भारत का मंगल मिशन सफल" {
		t.Errorf("Headline = %q", got.Fields.Headline)
	}
	if got.Fields.Description != "इसरो ने इतिहास रचा।" {
		t.Errorf("Description = %q", got.Fields.Description)
	}
	if got.Fields.Username != "news_insight" {
		t.Errorf("Username = %q", got.Fields.Username)
	}
	if got.Fields.ThemeColor != models.ThemeEmerald {
		t.Errorf("ThemeColor = %q", got.Fields.ThemeColor)
	}
	if got.Fields.LayoutType != "" {
		t.Errorf("invalid layout hint kept: %q", got.Fields.LayoutType)
	}
	if got.Analysis.EngagementScore != 100 {
		t.Errorf("EngagementScore = %d, want clamped 100", got.Analysis.EngagementScore)
	}
	want := []string{"Mars", "India", "Mars"}
	if strings.Join(got.Analysis.Hashtags, ",") != strings.Join(want, ",") {
		t.Errorf("Hashtags = %v, want %v", got.Analysis.Hashtags, want)
	}
}

func TestGenerateContentFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error": map[string]any{"code": 403, "message": "API key not valid"},
			})
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"candidates": []any{}})
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, textResponse("this is not json"))
		}},
		{"missing headline", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, textResponse(`{"description":"x"}`))
		}},
		{"blocked prompt", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"promptFeedback": map[string]any{"blockReason": "SAFETY"},
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestClient(t, tt.handler)
			_, err := client.GenerateContent(context.Background(), "topic")
			if !models.IsCategory(err, models.CategoryService) {
				t.Fatalf("err = %v, want service error", err)
			}
			if atomic.LoadInt32(calls) != 1 {
				t.Errorf("calls = %d, want exactly one attempt", atomic.LoadInt32(calls))
			}
		})
	}
}

func TestGenerateImage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/image-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"responseModalities":["IMAGE"]`) {
			t.Errorf("missing image modality: %s", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{"mimeType": "image/jpeg", "data": "QUJD"}},
				}},
			}},
		})
	})

	got, err := client.GenerateImage(context.Background(), "topic")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if got != "data:image/jpeg;base64,QUJD" {
		t.Errorf("GenerateImage = %q", got)
	}
}

func TestGenerateImageWithoutInlineData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, textResponse("I cannot draw that"))
	})

	_, err := client.GenerateImage(context.Background(), "topic")
	if !models.IsCategory(err, models.CategoryService) {
		t.Fatalf("err = %v, want service error", err)
	}
}

func TestGenerateContentCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, textResponse(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.GenerateContent(ctx, "topic"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestLimiterThrottlesCalls(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, textResponse("no image"))
	})
	client.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	client.GenerateImage(context.Background(), "first")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.GenerateImage(ctx, "second")
	if !models.IsCategory(err, models.CategoryService) {
		t.Fatalf("err = %v, want service error", err)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}
