package postcard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// FontRole names a typographic slot on the postcard
type FontRole int

const (
	FontTitle FontRole = iota
	FontSubtitle
	FontBody
	FontBadge
)

// DefaultFontDirs lists the usual DejaVu install locations in search order
var DefaultFontDirs = []string{
	"/usr/share/fonts/truetype/dejavu", // Debian / Ubuntu
	"/usr/share/fonts/TTF",             // Arch
	"/usr/share/fonts/dejavu",          // Fedora / RHEL
	"C:/Windows/Fonts",
}

type fontSpec struct {
	file      string
	builtin   []byte
	builtinID string
	family    string
	style     string
}

var fontSpecs = map[FontRole]fontSpec{
	FontTitle:    {file: "DejaVuSerif-Bold.ttf", builtin: gobold.TTF, builtinID: builtinPrefix + "go-bold", family: pdfSerifFamily, style: "B"},
	FontSubtitle: {file: "DejaVuSerif-Italic.ttf", builtin: goitalic.TTF, builtinID: builtinPrefix + "go-italic", family: pdfSerifFamily, style: "I"},
	FontBody:     {file: "DejaVuSans.ttf", builtin: goregular.TTF, builtinID: builtinPrefix + "go-regular", family: pdfSansFamily, style: ""},
	FontBadge:    {file: "DejaVuSans-Bold.ttf", builtin: gobold.TTF, builtinID: builtinPrefix + "go-bold", family: pdfSansFamily, style: "B"},
}

const (
	builtinPrefix  = "builtin:"
	pdfSerifFamily = "PostcardSerif"
	pdfSansFamily  = "PostcardSans"
)

// LoadedFont is a validated TrueType font and where it came from
type LoadedFont struct {
	Source string
	data   []byte
	parsed *truetype.Font
}

// Builtin reports whether the font is one of the embedded Go fonts
func (f *LoadedFont) Builtin() bool {
	return strings.HasPrefix(f.Source, builtinPrefix)
}

// Face returns a new face at the given pixel size. Faces are not safe for
// concurrent use; create one per render.
func (f *LoadedFont) Face(size float64) font.Face {
	return truetype.NewFace(f.parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// FontSet holds one font per role. It is read-only after LoadFonts returns.
type FontSet struct {
	fonts map[FontRole]*LoadedFont
}

// LoadFonts resolves every role by trying each directory in order and falling
// back to the embedded Go fonts.
func LoadFonts(dirs []string, logger *zap.Logger) *FontSet {
	set := &FontSet{fonts: make(map[FontRole]*LoadedFont, len(fontSpecs))}

	for role, spec := range fontSpecs {
		f, err := findFont(dirs, spec.file)
		if err != nil {
			logger.Warn("Font not found, using built-in fallback",
				zap.String("font", spec.file),
				zap.String("fallback", spec.builtinID))
			f = builtinFont(spec)
		} else {
			logger.Debug("Loaded font",
				zap.String("font", spec.file),
				zap.String("path", f.Source))
		}
		set.fonts[role] = f
	}

	return set
}

// Get returns the font for a role
func (s *FontSet) Get(role FontRole) *LoadedFont {
	return s.fonts[role]
}

// findFont returns the first candidate that exists and parses as TrueType
func findFont(dirs []string, file string) (*LoadedFont, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		return &LoadedFont{Source: path, data: data, parsed: parsed}, nil
	}
	return nil, fmt.Errorf("%s not found in %d locations", file, len(dirs))
}

func builtinFont(spec fontSpec) *LoadedFont {
	parsed, err := truetype.Parse(spec.builtin)
	if err != nil {
		// The embedded Go fonts are known-good TrueType files.
		panic(fmt.Sprintf("parse %s: %v", spec.builtinID, err))
	}
	return &LoadedFont{Source: spec.builtinID, data: spec.builtin, parsed: parsed}
}

// registerPDF embeds every role's font under its PDF family and style
func (s *FontSet) registerPDF(pdf *fpdf.Fpdf) {
	for role, spec := range fontSpecs {
		pdf.AddUTF8FontFromBytes(spec.family, spec.style, s.fonts[role].data)
	}
}

func pdfFont(role FontRole) (family, style string) {
	spec := fontSpecs[role]
	return spec.family, spec.style
}
