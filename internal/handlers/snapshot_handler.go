package handlers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

// Renderer turns a postcard request into a saved artifact
type Renderer interface {
	Render(ctx context.Context, req *postcard.Request) (*postcard.Artifact, error)
}

// SnapshotHandler validates kiosk snapshots and hands them to the renderer
type SnapshotHandler struct {
	renderer Renderer
	branding config.Branding
	logger   *zap.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(renderer Renderer, branding config.Branding, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		renderer: renderer,
		branding: branding,
		logger:   logger,
	}
}

// Handle decodes the snapshot, fills in defaults and renders one postcard
func (h *SnapshotHandler) Handle(ctx context.Context, request *models.SnapshotRequest) (*models.SnapshotResult, error) {
	image, err := decodeImagePayload(request.Image)
	if err != nil {
		return nil, err
	}

	lang := normalizeLang(request.Lang, h.branding.DefaultLang)

	title := strings.TrimSpace(request.Title)
	if title == "" {
		title = DefaultTitle(lang)
	}

	simType := strings.TrimSpace(request.SimType)
	if simType == "" {
		simType = "unknown"
	}

	h.logger.Debug("Processing snapshot",
		zap.String("sim_type", simType),
		zap.String("lang", lang),
		zap.Int("image_bytes", len(image)))

	artifact, err := h.renderer.Render(ctx, &postcard.Request{
		Image:          image,
		Title:          title,
		Subtitle:       request.Subtitle,
		SimulationKind: simType,
		Language:       lang,
	})
	if err != nil {
		return nil, err
	}

	result := &models.SnapshotResult{
		OK:       true,
		Filename: artifact.Filename,
		Format:   artifact.Format,
		Tier:     artifact.Capability.String(),
	}
	if artifact.Format == "pdf" {
		result.PDFFilename = artifact.Filename
	}
	return result, nil
}
