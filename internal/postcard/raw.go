package postcard

import "strings"

// rawRenderer stores the submitted bytes verbatim, with no layout
type rawRenderer struct{}

func (r *rawRenderer) capability() Capability { return RawPassthrough }

func (r *rawRenderer) prefix() string { return "snapshot" }

func (r *rawRenderer) render(req *Request) (*rendered, error) {
	mt, err := sniffImage(req.Image)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		ext = "png"
	}

	w, h := sourceSize(req.Image)
	return &rendered{data: req.Image, format: ext, width: w, height: h}, nil
}
