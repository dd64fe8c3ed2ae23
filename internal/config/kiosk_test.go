package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/veletrh/pattern-kiosk/internal/postcard"
)

func writeKiosk(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write kiosk config: %v", err)
	}
	return path
}

func TestLoadKioskMissingFile(t *testing.T) {
	k := LoadKiosk(filepath.Join(t.TempDir(), "config.toml"), zap.NewNop())
	if !reflect.DeepEqual(k, DefaultKiosk()) {
		t.Errorf("missing file should yield defaults, got %+v", k)
	}
}

func TestLoadKioskUnparsable(t *testing.T) {
	path := writeKiosk(t, "config.toml", "[postcard\nart_fraction = ")
	k := LoadKiosk(path, zap.NewNop())
	if !reflect.DeepEqual(k, DefaultKiosk()) {
		t.Errorf("unparsable file should yield defaults, got %+v", k)
	}
}

func TestLoadKioskDeepMerge(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
[branding]
title_en = "Emergence"

[postcard]
page_size = "a5"
art_fraction = 0.7
disable_pdf = true
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
branding:
  title_en: Emergence
postcard:
  page_size: a5
  art_fraction: 0.7
  disable_pdf: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := LoadKiosk(writeKiosk(t, tt.file, tt.content), zap.NewNop())
			def := DefaultKiosk()

			if k.Branding.TitleEN != "Emergence" {
				t.Errorf("TitleEN = %q, want Emergence", k.Branding.TitleEN)
			}
			if k.Branding.TitleCS != def.Branding.TitleCS || k.Branding.DefaultLang != def.Branding.DefaultLang {
				t.Errorf("branding defaults lost: %+v", k.Branding)
			}
			if k.Postcard.PageSize != "a5" || k.Postcard.ArtFraction != 0.7 || !k.Postcard.DisablePDF {
				t.Errorf("postcard overrides not applied: %+v", k.Postcard)
			}
			if k.Postcard.FooterRight != def.Postcard.FooterRight || k.Postcard.OutputDir != def.Postcard.OutputDir {
				t.Errorf("postcard defaults lost: %+v", k.Postcard)
			}
			if !reflect.DeepEqual(k.Simulations, def.Simulations) {
				t.Errorf("Simulations = %+v, want defaults", k.Simulations)
			}
		})
	}
}

func TestLoadKioskSimulationsReplaceDefaults(t *testing.T) {
	content := `
[[simulations]]
id = "rd"

[[simulations]]
id = "boids"
enabled = false
`
	k := LoadKiosk(writeKiosk(t, "config.toml", content), zap.NewNop())

	if len(k.Simulations) != 2 {
		t.Fatalf("Simulations = %+v, want 2 entries", k.Simulations)
	}
	if got := k.Registry().EnabledIDs(); !reflect.DeepEqual(got, []string{"rd"}) {
		t.Errorf("EnabledIDs = %v, want [rd]", got)
	}
}

func TestKioskValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(k *Kiosk)
		wantErr bool
	}{
		{"defaults", func(k *Kiosk) {}, false},
		{"english", func(k *Kiosk) { k.Branding.DefaultLang = "en" }, false},
		{"zero fraction", func(k *Kiosk) { k.Postcard.ArtFraction = 0 }, true},
		{"full fraction", func(k *Kiosk) { k.Postcard.ArtFraction = 1 }, true},
		{"negative min width", func(k *Kiosk) { k.Postcard.MinWidth = -1 }, true},
		{"unknown language", func(k *Kiosk) { k.Branding.DefaultLang = "de" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := DefaultKiosk()
			tt.mutate(k)
			err := k.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostcardSettings(t *testing.T) {
	k := DefaultKiosk()
	k.Postcard.PageSize = "A6"
	k.Postcard.FontDir = "/opt/fonts"
	k.Postcard.DisableRaster = true

	s := k.PostcardSettings()

	if s.Page != postcard.PageA6 {
		t.Errorf("Page = %+v, want A6", s.Page)
	}
	if s.ArtFraction != 0.77 {
		t.Errorf("ArtFraction = %v, want 0.77", s.ArtFraction)
	}
	if len(s.FontDirs) == 0 || s.FontDirs[0] != "/opt/fonts" {
		t.Errorf("FontDirs = %v, want /opt/fonts first", s.FontDirs)
	}
	if len(s.FontDirs) != len(postcard.DefaultFontDirs)+1 {
		t.Errorf("FontDirs = %v, want defaults appended", s.FontDirs)
	}
	if s.Features.Raster || !s.Features.Vector {
		t.Errorf("Features = %+v", s.Features)
	}
	if s.Badge != postcard.DefaultBadge {
		t.Errorf("Badge = %+v, want default", s.Badge)
	}
	if postcard.Detect(s.Features) != postcard.RawPassthrough {
		t.Error("disabling raster should leave only raw passthrough")
	}
}
