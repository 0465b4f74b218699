package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bilgisen/newsinsight/internal/config"
	"github.com/bilgisen/newsinsight/internal/export"
	"github.com/bilgisen/newsinsight/internal/middleware"
	"github.com/bilgisen/newsinsight/internal/models"
	"github.com/bilgisen/newsinsight/internal/render"
	"github.com/bilgisen/newsinsight/internal/shell"
	"github.com/bilgisen/newsinsight/internal/studio"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Installer is the install port plus the installed acknowledgement
type Installer interface {
	shell.InstallPort
	MarkInstalled() shell.InstallOutcome
}

// Exporter captures a post as a PNG
type Exporter interface {
	Export(ctx context.Context, post models.PostViewModel) (*export.Result, error)
	Sinks() []string
}

type Handlers struct {
	config    *config.Config
	studio    *studio.Studio
	exporter  Exporter
	installer Installer
	log       zerolog.Logger
	started   time.Time
	now       func() time.Time
}

type GenerateRequest struct {
	Topic string `json:"topic" validate:"max=500"`
}

type UpdatePostRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type TabRequest struct {
	Tab models.EditorTab `json:"tab" validate:"required,oneof=ai edit"`
}

// StateResponse is the editor state plus its chrome configuration
type StateResponse struct {
	studio.State
	Surface config.SurfaceConfig `json:"surface"`
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.config.Version,
		"time":    h.now().Format(time.RFC3339),
	})
}

// Diagnostics handles GET /diagnostics
func (h *Handlers) Diagnostics(c *fiber.Ctx) error {
	return c.JSON(shell.Collect(h.config, h.exporter.Sinks(), h.installer, h.started, h.now()))
}

// GetState handles GET /state
func (h *Handlers) GetState(c *fiber.Ctx) error {
	return c.JSON(h.state())
}

func (h *Handlers) state() StateResponse {
	return StateResponse{
		State:   h.studio.Snapshot(),
		Surface: shell.Surface(h.config),
	}
}

// Generate handles POST /generate. The request blocks until the attempt
// settles and answers with the resulting state.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	req := middleware.Validated[GenerateRequest](c)

	if err := h.studio.Generate(c.UserContext(), req.Topic); err != nil {
		if errors.Is(err, studio.ErrClosed) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "session closed")
		}
		return err
	}
	return c.JSON(h.state())
}

// UpdatePost handles PATCH /post
func (h *Handlers) UpdatePost(c *fiber.Ctx) error {
	req := middleware.Validated[UpdatePostRequest](c)

	if err := h.studio.UpdateField(req.Field, req.Value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"post": h.studio.Post()})
}

// UploadImage handles POST /post/image
func (h *Handlers) UploadImage(c *fiber.Ctx) error {
	return h.upload(c, h.studio.UploadImage)
}

// UploadLogo handles POST /post/logo
func (h *Handlers) UploadLogo(c *fiber.Ctx) error {
	return h.upload(c, h.studio.UploadLogo)
}

func (h *Handlers) upload(c *fiber.Ctx, apply func([]byte) (string, error)) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}
	if fh.Size > h.config.MaxUploadSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("file is %d bytes, limit %d", fh.Size, h.config.MaxUploadSize))
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	mime, err := apply(data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"mime": mime,
		"post": h.studio.Post(),
	})
}

// SetTab handles PUT /tab
func (h *Handlers) SetTab(c *fiber.Ctx) error {
	req := middleware.Validated[TabRequest](c)
	if err := h.studio.SetTab(req.Tab); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"activeTab": req.Tab})
}

// Preview handles GET /preview
func (h *Handlers) Preview(c *fiber.Ctx) error {
	return c.JSON(render.Render(h.studio.Post()))
}

// Export handles POST /export and answers with the PNG as an attachment.
// Capture failures never change the generation status.
func (h *Handlers) Export(c *fiber.Ctx) error {
	res, err := h.exporter.Export(c.UserContext(), h.studio.Post())
	if err != nil {
		return err
	}

	stored := make([]string, 0, len(res.Locations))
	for name := range res.Locations {
		stored = append(stored, name)
	}
	if len(stored) > 0 {
		sort.Strings(stored)
		c.Set("X-Export-Stored", strings.Join(stored, ","))
	}

	c.Attachment(res.FileName)
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(res.Data)
}

// InstallStatus handles GET /install
func (h *Handlers) InstallStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"canInstall": h.installer.CanInstall()})
}

// RequestInstall handles POST /install
func (h *Handlers) RequestInstall(c *fiber.Ctx) error {
	out, err := h.installer.RequestInstall(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Installed handles POST /install/installed, sent by the client once the
// browser reports the app as installed.
func (h *Handlers) Installed(c *fiber.Ctx) error {
	h.log.Info().Str("ip", c.IP()).Msg("App installed")
	return c.JSON(h.installer.MarkInstalled())
}

// Manifest handles GET /manifest.webmanifest
func (h *Handlers) Manifest(c *fiber.Ctx) error {
	return c.JSON(shell.Manifest(), "application/manifest+json")
}
