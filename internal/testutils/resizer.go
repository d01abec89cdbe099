package testutils

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// FakeResizer copies the input bytes and reports proportionally scaled
// dimensions, so tests do not need libvips.
type FakeResizer struct {
	Err   error
	Calls int
}

func (f *FakeResizer) Resize(src []byte, width, height int) ([]byte, int, int, error) {
	f.Calls++
	if f.Err != nil {
		return nil, 0, 0, f.Err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, 0, 0, err
	}
	if cfg.Width == 0 {
		return nil, 0, 0, errors.New("empty image")
	}
	if height <= 0 {
		height = cfg.Height * width / cfg.Width
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, width, height, nil
}
