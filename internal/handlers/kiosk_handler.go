package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/config"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

const serviceName = "pattern-kiosk"

// Status reports the render setup for the health endpoint
type Status interface {
	Capability() postcard.Capability
	NotifierEnabled() bool
}

// KioskOptions holds the optional parts of the HTTP surface
type KioskOptions struct {
	StaticDir       string
	MaxBodyBytes    int64
	Metrics         http.Handler
	NotifierHealthy func() bool
}

// KioskHandler serves the kiosk page, its config and the snapshot API
type KioskHandler struct {
	snapshots *SnapshotHandler
	kiosk     *config.Kiosk
	status    Status
	opts      KioskOptions
	logger    *zap.Logger
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(snapshots *SnapshotHandler, kiosk *config.Kiosk, status Status, opts KioskOptions, logger *zap.Logger) *KioskHandler {
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}
	return &KioskHandler{
		snapshots: snapshots,
		kiosk:     kiosk,
		status:    status,
		opts:      opts,
		logger:    logger,
	}
}

// RegisterRoutes registers the kiosk routes
func (h *KioskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.opts.StaticDir))))
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/snapshot", h.handleSnapshot)
	mux.HandleFunc("/health", h.handleHealth)
	if h.opts.Metrics != nil {
		mux.Handle("/metrics", h.opts.Metrics)
	}
}

// handleIndex handles GET / - serves the kiosk page
func (h *KioskHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.opts.StaticDir, "index.html"))
}

// handleConfig handles GET /api/config - returns what the kiosk page needs
func (h *KioskHandler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"simulations": h.kiosk.Registry().EnabledIDs(),
		"branding":    h.kiosk.Branding,
	})
}

// handleSnapshot handles POST /api/snapshot - saves a postcard
func (h *KioskHandler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}

	var request models.SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "Snapshot too large")
			return
		}
		h.logger.Debug("Rejected snapshot body", zap.Error(err))
		if errors.Is(err, io.EOF) {
			h.writeError(w, http.StatusBadRequest, "No image data")
			return
		}
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.snapshots.Handle(r.Context(), &request)
	if err != nil {
		switch {
		case errors.Is(err, postcard.ErrNoImage):
			h.writeError(w, http.StatusBadRequest, "No image data")
		case errors.Is(err, ErrInvalidPayload), errors.Is(err, postcard.ErrInvalidImage):
			h.writeError(w, http.StatusBadRequest, "Invalid image data")
		default:
			h.logger.Error("Failed to save postcard",
				zap.String("sim_type", request.SimType),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "Failed to save postcard")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// handleHealth handles GET /health - returns service health status
func (h *KioskHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	notifier := "disabled"
	if h.status.NotifierEnabled() {
		notifier = "enabled"
		if h.opts.NotifierHealthy != nil && !h.opts.NotifierHealthy() {
			notifier = "unreachable"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  serviceName,
		"tier":     h.status.Capability().String(),
		"notifier": notifier,
	})
}

func (h *KioskHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *KioskHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.ErrorResponse{Error: message})
}
