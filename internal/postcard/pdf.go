package postcard

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// Palette shared by both composed tiers
var (
	colorCream  = color.NRGBA{R: 250, G: 248, B: 243, A: 255}
	colorGold   = color.NRGBA{R: 200, G: 184, B: 138, A: 255}
	colorInk    = color.NRGBA{R: 26, G: 26, B: 46, A: 255}
	colorMuted  = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	colorRule   = color.NRGBA{R: 224, G: 220, B: 212, A: 255}
	colorFooter = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
)

// pdfRenderer writes a single-page PDF with embedded fonts and the source
// image at its native resolution.
type pdfRenderer struct {
	settings Settings
	fonts    *FontSet
}

func (r *pdfRenderer) capability() Capability { return VectorPDF }

func (r *pdfRenderer) prefix() string { return "postcard" }

func (r *pdfRenderer) render(req *Request) (*rendered, error) {
	src, err := decodeSource(req.Image)
	if err != nil {
		return nil, err
	}

	art, artType, err := src.pdfImage()
	if err != nil {
		return nil, err
	}

	l := VectorLayout(r.settings.Page, r.settings.ArtFraction)

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: l.Width, Ht: l.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pattern-kiosk", true)
	pdf.SetTitle(pdfSafeText(nil, req.Title), true)
	r.fonts.registerPDF(pdf)
	pdf.AddPage()

	fill(pdf, colorCream)
	pdf.Rect(0, 0, l.Width, l.Height, "F")

	artOpts := fpdf.ImageOptions{ImageType: artType}
	pdf.RegisterImageOptionsReader("art", artOpts, bytes.NewReader(art))
	pdf.ImageOptions("art", l.Art.X, l.Art.Y, l.Art.W, l.Art.H, false, artOpts, 0, "")

	fill(pdf, colorGold)
	pdf.Rect(l.Accent.X, l.Accent.Y, l.Accent.W, l.Accent.H, "F")

	r.text(pdf, FontTitle, l.TitleSize, colorInk, l.Margin, l.TitleY, req.Title)
	r.text(pdf, FontSubtitle, l.SubtitleSize, colorMuted, l.Margin, l.SubtitleY, req.Subtitle)

	if err := r.logo(pdf, l.Logo); err != nil {
		r.badge(pdf, l)
	}

	pdf.SetDrawColor(int(colorRule.R), int(colorRule.G), int(colorRule.B))
	pdf.SetLineWidth(l.RuleWidth)
	pdf.Line(l.Margin, l.RuleY, l.Width-l.Margin, l.RuleY)

	r.text(pdf, FontBody, l.FooterSize, colorFooter, l.Margin, l.FooterY, r.settings.FooterLeft)
	r.textRight(pdf, FontBody, l.FooterSize, colorFooter, l.Width-l.Margin, l.FooterY, r.settings.FooterRight)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return &rendered{data: buf.Bytes(), format: "pdf", width: src.Width(), height: src.Height()}, nil
}

// logo embeds the logo asset centred in box. A returned error means the
// badge must be drawn instead; the document itself is untouched.
func (r *pdfRenderer) logo(pdf *fpdf.Fpdf, box Rect) error {
	img, err := loadLogo(r.settings.LogoPath)
	if err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if pdf.Err() || info == nil {
		// fpdf errors are sticky; clear so the rest of the page still renders.
		pdf.ClearError()
		return fmt.Errorf("embed logo failed")
	}

	b := img.Bounds()
	at := fitRect(box, b.Dx(), b.Dy())
	pdf.ImageOptions("logo", at.X, at.Y, at.W, at.H, false, opts, 0, "")
	return nil
}

func (r *pdfRenderer) badge(pdf *fpdf.Fpdf, l Layout) {
	fill(pdf, colorInk)
	pdf.RoundedRect(l.Logo.X, l.Logo.Y, l.Logo.W, l.Logo.H, l.BadgeRadius, "1234", "F")

	cx := l.Logo.X + l.Logo.W/2
	r.textCentered(pdf, FontBadge, l.BadgeLine1Sz, colorGold, cx, l.BadgeLine1Y, r.settings.Badge.Line1)
	r.textCentered(pdf, FontBody, l.BadgeLine2Sz, colorGold, cx, l.BadgeLine2Y, r.settings.Badge.Line2)
}

func (r *pdfRenderer) text(pdf *fpdf.Fpdf, role FontRole, size float64, c color.NRGBA, x, y float64, s string) {
	s = pdfSafeText(r.fonts.Get(role), s)
	if s == "" {
		return
	}
	r.draw(pdf, role, size, c, x, y, s)
}

func (r *pdfRenderer) textRight(pdf *fpdf.Fpdf, role FontRole, size float64, c color.NRGBA, right, y float64, s string) {
	s = pdfSafeText(r.fonts.Get(role), s)
	if s == "" {
		return
	}
	family, style := pdfFont(role)
	pdf.SetFont(family, style, size)
	r.draw(pdf, role, size, c, right-pdf.GetStringWidth(s), y, s)
}

func (r *pdfRenderer) textCentered(pdf *fpdf.Fpdf, role FontRole, size float64, c color.NRGBA, cx, y float64, s string) {
	s = pdfSafeText(r.fonts.Get(role), s)
	if s == "" {
		return
	}
	family, style := pdfFont(role)
	pdf.SetFont(family, style, size)
	r.draw(pdf, role, size, c, cx-pdf.GetStringWidth(s)/2, y, s)
}

// draw writes s, which must already have passed through pdfSafeText
func (r *pdfRenderer) draw(pdf *fpdf.Fpdf, role FontRole, size float64, c color.NRGBA, x, y float64, s string) {
	family, style := pdfFont(role)
	pdf.SetFont(family, style, size)
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	pdf.Text(x, y, s)
}

// pdfSafeText drops what the PDF writer cannot encode: runes outside the
// Basic Multilingual Plane, invalid UTF-8, control characters and, when f is
// given, runes the font has no glyph for.
func pdfSafeText(f *LoadedFont, s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == utf8.RuneError, r > 0xFFFF, unicode.IsControl(r):
			return -1
		case f != nil && f.parsed != nil && !unicode.IsSpace(r) && f.parsed.Index(r) == 0:
			return -1
		}
		return r
	}, s)
}

func fill(pdf *fpdf.Fpdf, c color.NRGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
