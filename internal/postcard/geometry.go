package postcard

import (
	"math"
	"strings"
)

const pointsPerInch = 72.0

// Reference widths the footer constants were tuned for: a 6 inch card in
// points and a 900 px wide raster.
const (
	vectorReferenceWidth = 6 * pointsPerInch
	rasterReferenceWidth = 900.0
)

// PageSize is a named physical page in inches
type PageSize struct {
	Name     string
	WidthIn  float64
	HeightIn float64
}

var (
	PagePostcard = PageSize{Name: "6x4", WidthIn: 6.0, HeightIn: 4.0}
	PageA5       = PageSize{Name: "a5", WidthIn: 8.268, HeightIn: 5.827}
	PageA6       = PageSize{Name: "a6", WidthIn: 5.827, HeightIn: 4.134}
)

// ParsePageSize maps a configured page name to its dimensions.
// Unknown names fall back to the 6x4 postcard.
func ParsePageSize(name string) PageSize {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a5":
		return PageA5
	case "a6":
		return PageA6
	default:
		return PagePostcard
	}
}

// Rect is an axis-aligned box with a top-left origin
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the Y coordinate of the lower edge
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Right returns the X coordinate of the right edge
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Layout is the resolved geometry of one postcard page. Units are points for
// vector output and pixels for raster output. Every *Y text field is a
// baseline.
type Layout struct {
	Width  float64
	Height float64
	Scale  float64

	Art       Rect
	Accent    Rect
	FooterTop float64
	Margin    float64

	TitleY       float64
	TitleSize    float64
	SubtitleY    float64
	SubtitleSize float64

	Logo         Rect
	BadgeRadius  float64
	BadgeLine1Y  float64
	BadgeLine1Sz float64
	BadgeLine2Y  float64
	BadgeLine2Sz float64

	RuleY     float64
	RuleWidth float64

	FooterY    float64
	FooterSize float64
}

// ArtFraction returns the share of the page height taken by the art region
func (l Layout) ArtFraction() float64 {
	if l.Height == 0 {
		return 0
	}
	return l.Art.H / l.Height
}

// VectorLayout computes the page geometry in points
func VectorLayout(page PageSize, artFraction float64) Layout {
	w := page.WidthIn * pointsPerInch
	h := page.HeightIn * pointsPerInch
	s := w / vectorReferenceWidth

	l := Layout{Width: w, Height: h, Scale: s}
	l.Art = Rect{X: 0, Y: 0, W: w, H: h * artFraction}
	l.Accent = Rect{X: 0, Y: l.Art.Bottom(), W: w, H: 2 * s}
	l.FooterTop = l.Accent.Bottom()
	l.Margin = 12 * s

	l.TitleSize = 14 * s
	l.TitleY = l.FooterTop + 18*s
	l.SubtitleSize = 9 * s
	l.SubtitleY = l.FooterTop + 32*s

	logo := 40 * s
	l.Logo = Rect{X: w - logo - l.Margin, Y: l.FooterTop + 6*s, W: logo, H: logo}
	l.BadgeRadius = 4 * s
	l.BadgeLine1Sz = 10 * s
	l.BadgeLine1Y = l.Logo.Y + 18*s
	l.BadgeLine2Sz = 7 * s
	l.BadgeLine2Y = l.Logo.Y + 30*s

	l.RuleY = l.Logo.Bottom() + 4*s
	l.RuleWidth = 0.5 * s

	l.FooterSize = 7 * s
	l.FooterY = l.RuleY + 10*s
	return l
}

// RasterLayout computes the page geometry in pixels. The canvas is as wide as
// the source image but never narrower than minWidth; its height follows the
// page aspect ratio.
func RasterLayout(page PageSize, artFraction float64, srcWidth, minWidth int) Layout {
	pw := srcWidth
	if pw < minWidth {
		pw = minWidth
	}
	if pw <= 0 {
		pw = DefaultMinRasterWidth
	}
	ph := int(math.Round(float64(pw) * page.HeightIn / page.WidthIn))

	w := float64(pw)
	h := float64(ph)
	s := w / rasterReferenceWidth

	l := Layout{Width: w, Height: h, Scale: s}
	l.Art = Rect{X: 0, Y: 0, W: w, H: h * artFraction}

	accent := float64(ph / 150)
	if accent < 4 {
		accent = 4
	}
	// The accent starts at the exact art edge. FooterTop rounds up to the
	// next whole pixel row; the raster renderer rounds the art height itself
	// and paints the accent down to FooterTop.
	l.Accent = Rect{X: 0, Y: l.Art.Bottom(), W: w, H: accent}
	l.FooterTop = math.Ceil(l.Accent.Bottom())
	l.Margin = math.Floor(24 * s)

	l.TitleSize = 28 * s
	l.TitleY = l.FooterTop + 16*s + l.TitleSize
	l.SubtitleSize = 16 * s
	l.SubtitleY = l.FooterTop + 52*s + l.SubtitleSize

	logo := math.Floor(80 * s)
	l.Logo = Rect{X: w - logo - l.Margin, Y: l.FooterTop + math.Floor(10*s), W: logo, H: logo}
	l.BadgeRadius = 6 * s
	l.BadgeLine1Sz = 16 * s
	l.BadgeLine1Y = l.Logo.Y + 36*s
	l.BadgeLine2Sz = 13 * s
	l.BadgeLine2Y = l.Logo.Y + 58*s

	l.RuleY = l.FooterTop + 96*s
	l.RuleWidth = math.Max(1, math.Floor(s))

	l.FooterSize = 13 * s
	l.FooterY = l.RuleY + 8*s + l.FooterSize
	return l
}
