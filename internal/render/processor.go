// Package render runs postcard requests through the composer and records the
// outcome.
package render

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/metrics"
	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

const notifyTimeout = 3 * time.Second

// Notifier announces saved postcards
type Notifier interface {
	PublishPostcard(ctx context.Context, event *models.PostcardEvent) error
}

// Processor owns the worker pool and reports every render to metrics and the
// optional notifier.
type Processor struct {
	composer Composer
	pool     *WorkerPool
	metrics  *metrics.Metrics
	notifier Notifier
	logger   *zap.Logger
}

// NewProcessor starts a worker pool for composer. notifier may be nil.
func NewProcessor(composer Composer, workers, queueDepth int, m *metrics.Metrics, notifier Notifier, logger *zap.Logger) *Processor {
	pool := NewWorkerPool(workers, queueDepth, composer, logger)
	pool.Start()

	return &Processor{
		composer: composer,
		pool:     pool,
		metrics:  m,
		notifier: notifier,
		logger:   logger,
	}
}

// Capability returns the composer's tier
func (p *Processor) Capability() postcard.Capability {
	return p.composer.Capability()
}

// NotifierEnabled reports whether saved postcards are announced
func (p *Processor) NotifierEnabled() bool {
	return p.notifier != nil
}

// Render produces one postcard for req
func (p *Processor) Render(ctx context.Context, req *postcard.Request) (*postcard.Artifact, error) {
	start := time.Now()

	artifact, err := p.pool.Submit(ctx, req)
	if err != nil {
		reason := errorReason(err)
		if p.metrics != nil {
			p.metrics.ObserveError(reason)
		}
		p.logger.Warn("Postcard render failed",
			zap.String("sim_type", req.SimulationKind),
			zap.String("reason", reason),
			zap.Error(err))
		return nil, err
	}

	elapsed := time.Since(start)
	tier := artifact.Capability.String()
	if p.metrics != nil {
		p.metrics.ObserveRender(tier, elapsed.Seconds())
	}

	p.logger.Info("Saved postcard",
		zap.String("filename", artifact.Filename),
		zap.String("tier", tier),
		zap.Int("source_width", artifact.SourceWidth),
		zap.Int("source_height", artifact.SourceHeight),
		zap.Int64("size", artifact.Size),
		zap.Duration("duration", elapsed))

	p.notify(ctx, req, artifact)
	return artifact, nil
}

// notify publishes the artifact. The file already exists, so failures are
// only logged.
func (p *Processor) notify(ctx context.Context, req *postcard.Request, artifact *postcard.Artifact) {
	if p.notifier == nil {
		return
	}

	event := &models.PostcardEvent{
		Type:         models.PostcardEventType,
		Filename:     artifact.Filename,
		Format:       artifact.Format,
		Tier:         artifact.Capability.String(),
		SimType:      postcard.SanitizeKind(req.SimulationKind),
		Lang:         req.Language,
		Title:        req.Title,
		SourceWidth:  artifact.SourceWidth,
		SourceHeight: artifact.SourceHeight,
		Size:         artifact.Size,
		CreatedAt:    artifact.CreatedAt,
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := p.notifier.PublishPostcard(notifyCtx, event); err != nil {
		p.logger.Warn("Failed to announce postcard",
			zap.String("filename", artifact.Filename),
			zap.Error(err))
	}
}

// Close stops the worker pool
func (p *Processor) Close() {
	p.pool.Stop()
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, postcard.ErrNoImage):
		return metrics.ReasonNoImage
	case errors.Is(err, postcard.ErrInvalidImage):
		return metrics.ReasonInvalidImage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrPoolStopped):
		return metrics.ReasonCancelled
	default:
		return metrics.ReasonRender
	}
}
