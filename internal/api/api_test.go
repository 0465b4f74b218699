package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/export"
	"github.com/bilgisen/newsinsight/internal/metrics"
	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/bilgisen/newsinsight/internal/render"
	"github.com/bilgisen/newsinsight/internal/shell"
	"github.com/bilgisen/newsinsight/internal/studio"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type fakeGenerator struct {
	mu         sync.Mutex
	contentErr error
	imageErr   error
	block      chan struct{}
	entered    chan struct{}
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, topic string) (*models.GeneratedContent, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	return &models.GeneratedContent{
		Fields: models.GeneratedFields{
			Headline:    "मंगल पर पानी मिला",
			Description: "वैज्ञानिकों ने मंगल ग्रह पर पानी की पुष्टि की।",
			Badge:       "ब्रेकिंग",
			Username:    "space_news",
			ThemeColor:  models.ThemeCyan,
		},
		Analysis: models.AIAnalysis{
			EngagementScore: 87,
			Hashtags:        []string{"Mars", "ISRO"},
		},
	}, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, topic string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

type fakeCapturer struct {
	err error
}

func (f *fakeCapturer) Capture(_ context.Context, card render.Card) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG " + string(card.Theme)), nil
}

type testEnv struct {
	app    *fiber.App
	studio *studio.Studio
	gen    *fakeGenerator
	capt   *fakeCapturer
}

func newTestEnv(t *testing.T, credential string) *testEnv {
	t.Helper()
	cfg := config.FromEnv()
	cfg.AIApiKey = credential
	cfg.Env = "test"
	cfg.MaxUploadSize = 1 << 20

	gen := &fakeGenerator{}
	st := studio.New(studio.Options{
		Generator:  gen,
		Credential: credential,
		Logger:     zerolog.Nop(),
	})
	capt := &fakeCapturer{}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	app := NewApp(Deps{
		Config:    cfg,
		Studio:    st,
		Exporter:  export.NewExporter(capt, zerolog.Nop(), collector),
		Installer: shell.NewManifestInstaller(),
		Metrics:   collector,
		Gatherer:  reg,
		Logger:    zerolog.Nop(),
	})
	return &testEnv{app: app, studio: st, gen: gen, capt: capt}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Action string `json:"action"`
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	resp := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestGenerateSuccess(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	resp := env.do(t, http.MethodPost, "/api/v1/generate", GenerateRequest{Topic: "Mars pe pani"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st StateResponse
	decodeJSON(t, resp, &st)

	if st.Status != models.StatusSuccess || st.ActiveTab != models.TabEdit {
		t.Errorf("state = %s/%s", st.Status, st.ActiveTab)
	}
	if st.Post.Headline != "मंगल पर पानी मिला" || st.Post.ThemeColor != models.ThemeCyan {
		t.Errorf("post = %+v", st.Post)
	}
	if st.Analysis == nil || st.Analysis.EngagementScore != 87 {
		t.Errorf("analysis = %+v", st.Analysis)
	}
	if !st.CredentialConfigured || st.Surface.DiagnosticBanner != "" {
		t.Errorf("surface = %+v", st.Surface)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		topic      string
		contentErr error
		wantStatus int
		wantCode   string
		wantError  string
		wantState  models.RequestStatus
	}{
		{
			name:       "empty topic",
			credential: "real-credential",
			topic:      "   ",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   models.ErrCodeEmptyTopic,
			wantError:  "Kripya topic likhein!",
			wantState:  models.StatusIdle,
		},
		{
			name:       "missing credential",
			credential: "",
			topic:      "Mars",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   models.ErrCodeMissingCredential,
			wantState:  models.StatusIdle,
		},
		{
			name:       "service failure",
			credential: "real-credential",
			topic:      "Mars",
			contentErr: errors.New("quota exceeded"),
			wantStatus: http.StatusBadGateway,
			wantCode:   models.ErrCodeContentFailed,
			wantError:  "AI Error! Manually edit karein.",
			wantState:  models.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.credential)
			env.gen.contentErr = tt.contentErr

			resp := env.do(t, http.MethodPost, "/api/v1/generate", GenerateRequest{Topic: tt.topic})
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body errorBody
			decodeJSON(t, resp, &body)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantError != "" && body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
			if body.Action == "" {
				t.Error("missing action")
			}
			if got := env.studio.Snapshot().Status; got != tt.wantState {
				t.Errorf("studio status = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestGenerateWhileBusy(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	env.gen.block = make(chan struct{})
	env.gen.entered = make(chan struct{}, 1)

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"topic":"first"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := env.app.Test(req, -1)
		if err != nil {
			done <- 0
			return
		}
		done <- resp.StatusCode
	}()

	select {
	case <-env.gen.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first generation never started")
	}

	resp := env.do(t, http.MethodPost, "/api/v1/generate", GenerateRequest{Topic: "second"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("busy status = %d, want 409", resp.StatusCode)
	}

	close(env.gen.block)
	if code := <-done; code != http.StatusOK {
		t.Errorf("first request status = %d", code)
	}
}

func TestGenerateRejectsOversizedTopic(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	resp := env.do(t, http.MethodPost, "/api/v1/generate", GenerateRequest{Topic: strings.Repeat("a", 501)})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	if body.Fields["topic"] != "max" {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	resp := env.do(t, http.MethodPatch, "/api/v1/post", UpdatePostRequest{Field: models.FieldBadge, Value: "LIVE"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Post models.PostViewModel `json:"post"`
	}
	decodeJSON(t, resp, &body)
	if body.Post.Badge != "LIVE" {
		t.Errorf("badge = %q", body.Post.Badge)
	}

	for _, req := range []UpdatePostRequest{
		{Field: "viralScore", Value: "99"},
		{Field: models.FieldThemeColor, Value: "pink"},
		{Field: "", Value: "x"},
	} {
		if resp := env.do(t, http.MethodPatch, "/api/v1/post", req); resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%+v: status = %d, want 422", req, resp.StatusCode)
		}
	}
}

func TestUpdatePostAcceptsLongDataURI(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	uri := "data:image/png;base64," + strings.Repeat("iVBORw0KGgo", 10000)
	resp := env.do(t, http.MethodPatch, "/api/v1/post", UpdatePostRequest{Field: models.FieldImageURL, Value: uri})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env.studio.Post().ImageURL != uri {
		t.Error("pasted data uri not stored")
	}
}

func multipartRequest(t *testing.T, path string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "upload.bin")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}

	resp, err := env.app.Test(multipartRequest(t, "/api/v1/post/image", img.Bytes()), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := env.studio.Post().ImageURL; !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Errorf("image url = %.40q", got)
	}

	resp, err = env.app.Test(multipartRequest(t, "/api/v1/post/logo", img.Bytes()), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || env.studio.Post().LogoURL == "" {
		t.Errorf("logo upload status = %d", resp.StatusCode)
	}

	resp, err = env.app.Test(multipartRequest(t, "/api/v1/post/image", []byte("just some text")), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("text upload status = %d, want 415", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/v1/post/image", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}
}

func TestSetTab(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	if resp := env.do(t, http.MethodPut, "/api/v1/tab", TabRequest{Tab: models.TabEdit}); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env.studio.Snapshot().ActiveTab != models.TabEdit {
		t.Error("tab not switched")
	}
	if resp := env.do(t, http.MethodPut, "/api/v1/tab", map[string]string{"tab": "settings"}); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("invalid tab status = %d", resp.StatusCode)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	env.do(t, http.MethodPatch, "/api/v1/post", UpdatePostRequest{Field: models.FieldLayoutType, Value: "bold"})

	resp := env.do(t, http.MethodGet, "/api/v1/preview", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var card render.Card
	decodeJSON(t, resp, &card)
	if card.Layout != models.LayoutBold || card.Theme != models.ThemeGold {
		t.Errorf("card = %s/%s", card.Theme, card.Layout)
	}
	if card.Width != render.CardWidth || len(card.Elements) == 0 {
		t.Errorf("card = %+v", card)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	resp := env.do(t, http.MethodPost, "/api/v1/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "NewsInsight_") || !strings.Contains(cd, ".png") {
		t.Errorf("content disposition = %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "\x89PNG gold" {
		t.Errorf("body = %q", body)
	}
}

func TestExportFailureLeavesStatus(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	env.capt.err = errors.New("canvas tainted")

	resp := env.do(t, http.MethodPost, "/api/v1/export", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Error != "Download error! Screenshot le lein." || body.Code != models.ErrCodeCaptureFailed {
		t.Errorf("body = %+v", body)
	}
	if st := env.studio.Snapshot().Status; st != models.StatusIdle {
		t.Errorf("status = %s, want idle", st)
	}
}

func TestExportRejectsEmptyHeadline(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	env.do(t, http.MethodPatch, "/api/v1/post", UpdatePostRequest{Field: models.FieldHeadline, Value: ""})

	resp := env.do(t, http.MethodPost, "/api/v1/export", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var body errorBody
	decodeJSON(t, resp, &body)
	if body.Code != models.ErrCodeEmptyHeadline || body.Error != "Headline khali hai!" || body.Action == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestInstallFlow(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	var status map[string]bool
	decodeJSON(t, env.do(t, http.MethodGet, "/api/v1/install", nil), &status)
	if !status["canInstall"] {
		t.Error("cannot install")
	}

	var out shell.InstallOutcome
	decodeJSON(t, env.do(t, http.MethodPost, "/api/v1/install", nil), &out)
	if out.Result != shell.OutcomeInstructions || len(out.Steps) != 3 {
		t.Errorf("outcome = %+v", out)
	}

	decodeJSON(t, env.do(t, http.MethodPost, "/api/v1/install/installed", nil), &out)
	if out.Result != shell.OutcomeInstalled {
		t.Errorf("installed = %+v", out)
	}

	decodeJSON(t, env.do(t, http.MethodGet, "/api/v1/install", nil), &status)
	if status["canInstall"] {
		t.Error("still offers install")
	}
}

func TestDiagnostics(t *testing.T) {
	env := newTestEnv(t, "")
	var d shell.Diagnostics
	decodeJSON(t, env.do(t, http.MethodGet, "/api/v1/diagnostics", nil), &d)
	if d.CredentialConfigured || d.Environment != "test" {
		t.Errorf("diagnostics = %+v", d)
	}
	if d.Surface.DiagnosticBanner == "" {
		t.Error("missing credential banner")
	}
}

func TestManifestAndMetrics(t *testing.T) {
	env := newTestEnv(t, "real-credential")

	resp := env.do(t, http.MethodGet, "/manifest.webmanifest", nil)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/manifest+json") {
		t.Errorf("manifest content type = %q", ct)
	}

	env.do(t, http.MethodGet, "/api/v1/state", nil)
	resp = env.do(t, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `route="/api/v1/state"`) {
		t.Errorf("metrics missing state route:\n%s", body)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, "real-credential")
	resp := env.do(t, http.MethodGet, "/api/v1/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
