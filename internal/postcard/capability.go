package postcard

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
)

// Capability is the rendering tier selected once at startup
type Capability int

const (
	// RawPassthrough writes the submitted bytes untouched
	RawPassthrough Capability = iota
	// RasterOnly composes a PNG postcard
	RasterOnly
	// VectorPDF composes a PDF postcard with embedded fonts
	VectorPDF
)

// String returns the tier name used in logs, metrics and API responses
func (c Capability) String() string {
	switch c {
	case VectorPDF:
		return "pdf"
	case RasterOnly:
		return "raster"
	default:
		return "raw"
	}
}

// Features records which optional rendering stacks are usable
type Features struct {
	Raster bool
	Vector bool
}

// AllFeatures requests every tier the binary can provide
func AllFeatures() Features {
	return Features{Raster: true, Vector: true}
}

// Detect picks the richest tier the features allow. Vector output needs
// raster decoding of the source image as well.
func Detect(f Features) Capability {
	switch {
	case f.Vector && f.Raster:
		return VectorPDF
	case f.Raster:
		return RasterOnly
	default:
		return RawPassthrough
	}
}

// Probe exercises each wanted stack once and clears the features that fail.
// A failing probe is logged and never returned as an error.
func Probe(fonts *FontSet, want Features, logger *zap.Logger) Features {
	got := Features{}

	if want.Raster {
		if err := probeRaster(fonts); err != nil {
			logger.Warn("Raster postcards disabled", zap.Error(err))
		} else {
			got.Raster = true
		}
	}

	if want.Vector {
		if err := probeVector(fonts); err != nil {
			logger.Warn("PDF postcards disabled", zap.Error(err))
		} else {
			got.Vector = true
		}
	}

	return got
}

func probeRaster(fonts *FontSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("raster probe panicked: %v", r)
		}
	}()

	if fonts == nil {
		return fmt.Errorf("no fonts loaded")
	}

	face := truetype.NewFace(fonts.Get(FontBody).parsed, &truetype.Options{Size: 8})
	dc := gg.NewContext(16, 16)
	dc.SetFontFace(face)
	dc.SetRGB255(0, 0, 0)
	dc.DrawString("Aa", 1, 12)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dc.Image(), imaging.PNG); err != nil {
		return fmt.Errorf("encode probe image: %w", err)
	}
	if _, err := imaging.Decode(&buf); err != nil {
		return fmt.Errorf("decode probe image: %w", err)
	}
	return nil
}

func probeVector(fonts *FontSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf probe panicked: %v", r)
		}
	}()

	if fonts == nil {
		return fmt.Errorf("no fonts loaded")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: 72, Ht: 72},
	})
	fonts.registerPDF(pdf)
	pdf.AddPage()
	pdf.SetFont(pdfSansFamily, "", 8)
	pdf.Text(4, 20, "ÚI AV ČR")

	var png bytes.Buffer
	if err := imaging.Encode(&png, image.NewNRGBA(image.Rect(0, 0, 2, 2)), imaging.PNG); err != nil {
		return fmt.Errorf("encode probe image: %w", err)
	}
	pdf.RegisterImageOptionsReader("probe", fpdf.ImageOptions{ImageType: "PNG"}, &png)
	pdf.ImageOptions("probe", 4, 30, 8, 8, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return fmt.Errorf("write probe pdf: %w", err)
	}
	return nil
}
