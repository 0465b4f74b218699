package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty topic", models.NewEmptyTopicError(), http.StatusUnprocessableEntity},
		{"busy", models.ErrGenerationInProgress, http.StatusConflict},
		{"upload", models.NewInvalidUploadError("text/plain"), http.StatusUnsupportedMediaType},
		{"service", models.NewServiceError(models.ErrCodeContentFailed, errors.New("x")), http.StatusBadGateway},
		{"capture", models.NewCaptureError(errors.New("x")), http.StatusInternalServerError},
		{"fiber", fiber.NewError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

type topicBody struct {
	Topic string `json:"topic" validate:"required,max=5"`
}

func newValidatingApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/", ValidateBody[topicBody](), func(c *fiber.Ctx) error {
		return c.SendString(Validated[topicBody](c).Topic)
	})
	return app
}

func post(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestValidateBody(t *testing.T) {
	app := newValidatingApp()

	if resp := post(t, app, `{"topic":"mars"}`); resp.StatusCode != http.StatusOK {
		t.Errorf("valid body status = %d", resp.StatusCode)
	}

	resp := post(t, app, `{"topic":"jupiter"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("long topic status = %d", resp.StatusCode)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Fields["topic"] != "max" {
		t.Errorf("fields = %v", body.Fields)
	}

	resp = post(t, app, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", resp.StatusCode)
	}
	var bad map[string]any
	json.NewDecoder(resp.Body).Decode(&bad)
	if bad["code"] != models.ErrCodeInvalidField || bad["error"] == "" || bad["action"] == nil {
		t.Errorf("malformed body response = %v", bad)
	}
	if _, ok := bad["msg"]; ok {
		t.Errorf("parser detail leaked: %v", bad)
	}
}

func TestErrorHandlerWritesAppError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error {
		return models.NewServiceError(models.ErrCodeImageFailed, errors.New("quota"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "AI Error! Manually edit karein." || body["code"] != models.ErrCodeImageFailed || body["action"] == "" {
		t.Errorf("body = %v", body)
	}
}

type requestLog struct {
	mu      sync.Mutex
	entries []string
}

func (r *requestLog) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, method+" "+route+" "+http.StatusText(status))
}

func TestLoggerRecordsFinalStatus(t *testing.T) {
	rec := &requestLog{}
	nop := zerolog.Nop()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(NewLogger(LoggerConfig{Logger: &nop, Recorder: rec}))
	app.Get("/busy", func(c *fiber.Ctx) error {
		return models.ErrGenerationInProgress
	})

	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/busy", nil), -1); err != nil {
		t.Fatal(err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.entries) != 1 || rec.entries[0] != "GET /busy Conflict" {
		t.Errorf("entries = %v", rec.entries)
	}
}
