// Package postcard lays out simulation snapshots as print-ready postcards.
//
// A Composer is built once at startup. It probes which rendering stacks
// work, picks the richest tier (PDF, PNG or raw passthrough) and keeps it
// for the life of the process. Every call to Render produces exactly one
// file in the output directory.
package postcard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoImage is returned when a request carries no image bytes
	ErrNoImage = errors.New("no image data")
	// ErrInvalidImage is returned when the bytes are not a decodable image
	ErrInvalidImage = errors.New("invalid image data")
)

// DefaultMinRasterWidth is the narrowest raster postcard, 6 in at 300 DPI
const DefaultMinRasterWidth = 1800

// DefaultArtFraction is the share of the page height given to the snapshot
const DefaultArtFraction = 0.77

// Request is one snapshot to turn into a postcard
type Request struct {
	Image          []byte
	Title          string
	Subtitle       string
	SimulationKind string
	Language       string
}

// Artifact describes the file written for a request
type Artifact struct {
	Filename     string
	Path         string
	Capability   Capability
	Format       string
	SourceWidth  int
	SourceHeight int
	Size         int64
	CreatedAt    time.Time
}

// Settings is the immutable layout configuration of a Composer
type Settings struct {
	Page           PageSize
	ArtFraction    float64
	FooterLeft     string
	FooterRight    string
	LogoPath       string
	OutputDir      string
	MinRasterWidth int
	FontDirs       []string
	Badge          Badge
	Features       Features
}

func (s Settings) withDefaults() Settings {
	if s.Page.WidthIn <= 0 || s.Page.HeightIn <= 0 {
		s.Page = PagePostcard
	}
	if s.ArtFraction <= 0 || s.ArtFraction >= 1 {
		s.ArtFraction = DefaultArtFraction
	}
	if s.MinRasterWidth <= 0 {
		s.MinRasterWidth = DefaultMinRasterWidth
	}
	if s.OutputDir == "" {
		s.OutputDir = "postcards"
	}
	if s.Badge.Line1 == "" && s.Badge.Line2 == "" {
		s.Badge = DefaultBadge
	}
	return s
}

// rendered is the encoded output of one tier
type rendered struct {
	data   []byte
	format string
	width  int
	height int
}

// renderer is implemented once per Capability
type renderer interface {
	capability() Capability
	prefix() string
	render(req *Request) (*rendered, error)
}

// Composer renders requests with the tier chosen at construction
type Composer struct {
	settings Settings
	tier     Capability
	renderer renderer
	fonts    *FontSet
	clock    *stampClock
	logger   *zap.Logger
}

// New loads fonts, probes the wanted features and selects the tier
func New(settings Settings, logger *zap.Logger) *Composer {
	settings = settings.withDefaults()
	fonts := LoadFonts(settings.FontDirs, logger)
	features := Probe(fonts, settings.Features, logger)
	return newComposer(settings, Detect(features), fonts, time.Now, logger)
}

func newComposer(settings Settings, tier Capability, fonts *FontSet, now func() time.Time, logger *zap.Logger) *Composer {
	c := &Composer{
		settings: settings,
		tier:     tier,
		fonts:    fonts,
		clock:    newStampClock(now),
		logger:   logger,
	}

	switch tier {
	case VectorPDF:
		c.renderer = &pdfRenderer{settings: settings, fonts: fonts}
	case RasterOnly:
		c.renderer = &rasterRenderer{settings: settings, fonts: fonts}
	default:
		c.renderer = &rawRenderer{}
	}

	logger.Info("Postcard composer ready",
		zap.String("tier", tier.String()),
		zap.String("page_size", settings.Page.Name),
		zap.Float64("art_fraction", settings.ArtFraction),
		zap.String("output_dir", settings.OutputDir))

	return c
}

// Capability returns the tier in use
func (c *Composer) Capability() Capability {
	return c.tier
}

// Settings returns the layout configuration
func (c *Composer) Settings() Settings {
	return c.settings
}

// Render lays out the request and writes exactly one file. Nothing is
// written when the request is rejected.
func (c *Composer) Render(req *Request) (*Artifact, error) {
	if req == nil || len(req.Image) == 0 {
		return nil, ErrNoImage
	}

	out, err := c.renderer.render(req)
	if err != nil {
		return nil, err
	}

	created := c.clock.next()
	name := ArtifactName(c.renderer.prefix(), req.SimulationKind, created, out.format)
	path := filepath.Join(c.settings.OutputDir, name)

	if err := writeExclusive(path, out.data); err != nil {
		return nil, err
	}

	return &Artifact{
		Filename:     name,
		Path:         path,
		Capability:   c.tier,
		Format:       out.format,
		SourceWidth:  out.width,
		SourceHeight: out.height,
		Size:         int64(len(out.data)),
		CreatedAt:    created,
	}, nil
}

// writeExclusive creates path (and its directory) and refuses to overwrite.
// A failed write leaves no file behind.
func writeExclusive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sourceSize reads only the image header
func sourceSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
