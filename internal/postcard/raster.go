package postcard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// rasterRenderer composes a PNG postcard at a resolution derived from the
// source width.
type rasterRenderer struct {
	settings Settings
	fonts    *FontSet
}

func (r *rasterRenderer) capability() Capability { return RasterOnly }

func (r *rasterRenderer) prefix() string { return "postcard" }

func (r *rasterRenderer) render(req *Request) (*rendered, error) {
	src, err := decodeSource(req.Image)
	if err != nil {
		return nil, err
	}

	l := RasterLayout(r.settings.Page, r.settings.ArtFraction, src.Width(), r.settings.MinRasterWidth)
	card := r.compose(src.Image, l, req)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, card, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &rendered{data: buf.Bytes(), format: "png", width: src.Width(), height: src.Height()}, nil
}

func (r *rasterRenderer) compose(src image.Image, l Layout, req *Request) image.Image {
	pw, ph := int(l.Width), int(l.Height)
	artH := int(math.Round(l.Art.H))

	card := imaging.New(pw, ph, colorCream)

	// Stretch to fill; the aspect ratio is not preserved.
	art := imaging.Resize(src, pw, artH, imaging.Lanczos)
	card = imaging.Paste(card, art, image.Pt(0, 0))

	logoDrawn := false
	if logo, err := loadLogo(r.settings.LogoPath); err == nil {
		at := fitRect(l.Logo, logo.Bounds().Dx(), logo.Bounds().Dy())
		fitted := imaging.Resize(logo, int(math.Round(at.W)), int(math.Round(at.H)), imaging.Lanczos)
		card = imaging.Overlay(card, fitted, image.Pt(int(at.X), int(at.Y)), 1.0)
		logoDrawn = true
	}

	dc := gg.NewContextForImage(card)

	setColor(dc, colorGold)
	dc.DrawRectangle(0, float64(artH), l.Width, l.FooterTop-float64(artH))
	dc.Fill()

	r.text(dc, FontTitle, l.TitleSize, colorInk, l.Margin, l.TitleY, 0, req.Title)
	r.text(dc, FontSubtitle, l.SubtitleSize, colorMuted, l.Margin, l.SubtitleY, 0, req.Subtitle)

	if !logoDrawn {
		setColor(dc, colorInk)
		dc.DrawRoundedRectangle(l.Logo.X, l.Logo.Y, l.Logo.W, l.Logo.H, l.BadgeRadius)
		dc.Fill()

		cx := l.Logo.X + l.Logo.W/2
		r.text(dc, FontBadge, l.BadgeLine1Sz, colorGold, cx, l.BadgeLine1Y, 0.5, r.settings.Badge.Line1)
		r.text(dc, FontBody, l.BadgeLine2Sz, colorGold, cx, l.BadgeLine2Y, 0.5, r.settings.Badge.Line2)
	}

	setColor(dc, colorRule)
	dc.SetLineWidth(l.RuleWidth)
	dc.DrawLine(l.Margin, l.RuleY, l.Width-l.Margin, l.RuleY)
	dc.Stroke()

	r.text(dc, FontBody, l.FooterSize, colorFooter, l.Margin, l.FooterY, 0, r.settings.FooterLeft)
	r.text(dc, FontBody, l.FooterSize, colorFooter, l.Width-l.Margin, l.FooterY, 1, r.settings.FooterRight)

	return dc.Image()
}

// text draws s with its baseline at y; ax is the horizontal anchor
// (0 left, 0.5 centre, 1 right).
func (r *rasterRenderer) text(dc *gg.Context, role FontRole, size float64, c color.NRGBA, x, y, ax float64, s string) {
	if s == "" {
		return
	}
	dc.SetFontFace(r.fonts.Get(role).Face(size))
	setColor(dc, c)
	dc.DrawStringAnchored(s, x, y, ax, 0)
}

func setColor(dc *gg.Context, c color.NRGBA) {
	dc.SetRGB255(int(c.R), int(c.G), int(c.B))
}
