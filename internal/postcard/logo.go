package postcard

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// Badge is the text drawn in place of a missing logo
type Badge struct {
	Line1 string
	Line2 string
}

// DefaultBadge carries the institute initials and code
var DefaultBadge = Badge{Line1: "ÚI", Line2: "AV ČR"}

// loadLogo reads the logo asset. Any failure means "no logo"; callers draw
// the badge instead.
func loadLogo(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("no logo configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("logo %s is empty", path)
	}
	return img, nil
}

// fitRect centres an image of the given size inside box, preserving its
// aspect ratio.
func fitRect(box Rect, imgW, imgH int) Rect {
	if imgW <= 0 || imgH <= 0 {
		return box
	}
	scale := box.W / float64(imgW)
	if s := box.H / float64(imgH); s < scale {
		scale = s
	}
	w := float64(imgW) * scale
	h := float64(imgH) * scale
	return Rect{
		X: box.X + (box.W-w)/2,
		Y: box.Y + (box.H-h)/2,
		W: w,
		H: h,
	}
}

// encodePNG re-encodes an image as 8-bit NRGBA PNG, keeping alpha
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
