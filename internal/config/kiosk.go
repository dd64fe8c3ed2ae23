package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/veletrh/pattern-kiosk/internal/postcard"
	"github.com/veletrh/pattern-kiosk/pkg/models"
)

// Supported kiosk languages
const (
	LangCS = "cs"
	LangEN = "en"
)

// Kiosk is the exhibit configuration read from config.toml or config.yaml
type Kiosk struct {
	Simulations []models.Simulation `toml:"simulations" yaml:"simulations"`
	Branding    Branding            `toml:"branding" yaml:"branding"`
	Postcard    PostcardConfig      `toml:"postcard" yaml:"postcard"`
}

// Branding is exposed to the kiosk page as-is
type Branding struct {
	TitleCS     string `toml:"title_cs" yaml:"title_cs" json:"title_cs"`
	TitleEN     string `toml:"title_en" yaml:"title_en" json:"title_en"`
	Subtitle    string `toml:"subtitle" yaml:"subtitle" json:"subtitle"`
	DefaultLang string `toml:"default_lang" yaml:"default_lang" json:"default_lang"`
}

// PostcardConfig controls the postcard layout and output
type PostcardConfig struct {
	FooterLeft    string  `toml:"footer_left" yaml:"footer_left"`
	FooterRight   string  `toml:"footer_right" yaml:"footer_right"`
	LogoPath      string  `toml:"logo_path" yaml:"logo_path"`
	OutputDir     string  `toml:"output_dir" yaml:"output_dir"`
	PageSize      string  `toml:"page_size" yaml:"page_size"`
	ArtFraction   float64 `toml:"art_fraction" yaml:"art_fraction"`
	MinWidth      int     `toml:"min_width" yaml:"min_width"`
	FontDir       string  `toml:"font_dir" yaml:"font_dir"`
	BadgeLine1    string  `toml:"badge_line1" yaml:"badge_line1"`
	BadgeLine2    string  `toml:"badge_line2" yaml:"badge_line2"`
	DisablePDF    bool    `toml:"disable_pdf" yaml:"disable_pdf"`
	DisableRaster bool    `toml:"disable_raster" yaml:"disable_raster"`
}

// DefaultKiosk returns the built-in exhibit configuration
func DefaultKiosk() *Kiosk {
	return &Kiosk{
		Simulations: []models.Simulation{
			{ID: "rd"},
			{ID: "osc"},
			{ID: "boids"},
		},
		Branding: Branding{
			TitleCS:     "Z jednoduchého složité",
			TitleEN:     "From Simple to Complex",
			Subtitle:    "ÚI AV ČR — Veletrh vědy 2026",
			DefaultLang: LangCS,
		},
		Postcard: PostcardConfig{
			FooterLeft:  "Veletrh vědy 2026",
			FooterRight: "www.cs.cas.cz",
			LogoPath:    "static/logo.png",
			OutputDir:   "postcards",
			PageSize:    "6x4",
			ArtFraction: postcard.DefaultArtFraction,
			MinWidth:    postcard.DefaultMinRasterWidth,
			BadgeLine1:  postcard.DefaultBadge.Line1,
			BadgeLine2:  postcard.DefaultBadge.Line2,
		},
	}
}

// LoadKiosk reads the kiosk file over the defaults. Keys missing from the
// file keep their default values. A missing file yields the defaults; a file
// that cannot be parsed yields the defaults and a warning.
func LoadKiosk(path string, logger *zap.Logger) *Kiosk {
	if path == "" {
		return DefaultKiosk()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Could not read kiosk config, using defaults",
				zap.String("path", path),
				zap.Error(err))
		}
		return DefaultKiosk()
	}

	k, err := parseKiosk(path, data)
	if err != nil {
		logger.Warn("Could not parse kiosk config, using defaults",
			zap.String("path", path),
			zap.Error(err))
		return DefaultKiosk()
	}

	logger.Info("Loaded kiosk config",
		zap.String("path", path),
		zap.Int("simulations", len(k.Simulations)))
	return k
}

func parseKiosk(path string, data []byte) (*Kiosk, error) {
	k := DefaultKiosk()
	defaults := k.Simulations
	// A list in the file replaces the default list as a whole.
	k.Simulations = nil

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, k)
	default:
		err = toml.Unmarshal(data, k)
	}
	if err != nil {
		return nil, err
	}

	if k.Simulations == nil {
		k.Simulations = defaults
	}
	return k, nil
}

// Validate rejects values the composer cannot honour
func (k *Kiosk) Validate() error {
	if k.Postcard.ArtFraction <= 0 || k.Postcard.ArtFraction >= 1 {
		return fmt.Errorf("postcard.art_fraction must be between 0 and 1, got %v", k.Postcard.ArtFraction)
	}
	if k.Postcard.MinWidth < 0 {
		return fmt.Errorf("postcard.min_width must not be negative, got %d", k.Postcard.MinWidth)
	}
	if !IsSupportedLang(k.Branding.DefaultLang) {
		return fmt.Errorf("branding.default_lang must be %q or %q, got %q", LangCS, LangEN, k.Branding.DefaultLang)
	}
	return nil
}

// IsSupportedLang reports whether lang is one of the kiosk languages
func IsSupportedLang(lang string) bool {
	return lang == LangCS || lang == LangEN
}

// Registry returns the configured simulations
func (k *Kiosk) Registry() *models.SimulationRegistry {
	return models.NewSimulationRegistry(k.Simulations)
}

// PostcardSettings converts the postcard section into composer settings
func (k *Kiosk) PostcardSettings() postcard.Settings {
	p := k.Postcard

	fontDirs := postcard.DefaultFontDirs
	if p.FontDir != "" {
		fontDirs = append([]string{p.FontDir}, postcard.DefaultFontDirs...)
	}

	return postcard.Settings{
		Page:           postcard.ParsePageSize(p.PageSize),
		ArtFraction:    p.ArtFraction,
		FooterLeft:     p.FooterLeft,
		FooterRight:    p.FooterRight,
		LogoPath:       p.LogoPath,
		OutputDir:      p.OutputDir,
		MinRasterWidth: p.MinWidth,
		FontDirs:       fontDirs,
		Badge:          postcard.Badge{Line1: p.BadgeLine1, Line2: p.BadgeLine2},
		Features: postcard.Features{
			Raster: !p.DisableRaster,
			Vector: !p.DisablePDF,
		},
	}
}
