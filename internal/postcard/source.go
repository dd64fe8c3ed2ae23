package postcard

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	_ "golang.org/x/image/webp"
)

// Source is a decoded snapshot together with its original encoding
type Source struct {
	Image image.Image
	Raw   []byte
	MIME  string
}

// Width returns the source width in pixels
func (s *Source) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the source height in pixels
func (s *Source) Height() int {
	return s.Image.Bounds().Dy()
}

// sniffImage rejects payloads that are not an image format at all
func sniffImage(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") {
		return mt, nil
	}
	return nil, fmt.Errorf("%w: content looks like %s", ErrInvalidImage, mt.String())
}

func decodeSource(data []byte) (*Source, error) {
	mt, err := sniffImage(data)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	return &Source{Image: img, Raw: data, MIME: mt.String()}, nil
}

// pdfImage returns bytes the PDF writer can embed without touching pixels.
// JPEG and 8-bit non-interlaced PNG pass through; anything else is
// re-encoded losslessly at the same size.
func (s *Source) pdfImage() ([]byte, string, error) {
	switch s.MIME {
	case "image/jpeg":
		return s.Raw, "JPG", nil
	case "image/png":
		if pngPassthrough(s.Raw) {
			return s.Raw, "PNG", nil
		}
	}
	data, err := encodePNG(s.Image)
	if err != nil {
		return nil, "", fmt.Errorf("re-encode source: %w", err)
	}
	return data, "PNG", nil
}

// pngPassthrough inspects the IHDR chunk: bit depth at offset 24, interlace
// method at offset 28.
func pngPassthrough(data []byte) bool {
	if len(data) < 33 {
		return false
	}
	if string(data[12:16]) != "IHDR" {
		return false
	}
	if binary.BigEndian.Uint32(data[16:20]) == 0 || binary.BigEndian.Uint32(data[20:24]) == 0 {
		return false
	}
	return data[24] == 8 && data[28] == 0
}
