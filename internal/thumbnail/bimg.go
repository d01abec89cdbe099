package thumbnail

import (
	"github.com/h2non/bimg"
)

// BimgResizer 基于 libvips 缩放
type BimgResizer struct{}

func (BimgResizer) Resize(src []byte, width, height int) ([]byte, int, int, error) {
	opts := bimg.Options{
		Width:   width,
		Height:  height,
		Quality: 80,
	}
	if height > 0 {
		// 同时指定宽高时保持比例并放入目标框内
		opts.Embed = true
	}

	out, err := bimg.NewImage(src).Process(opts)
	if err != nil {
		return nil, 0, 0, err
	}
	size, err := bimg.NewImage(out).Size()
	if err != nil {
		return nil, 0, 0, err
	}
	return out, size.Width, size.Height, nil
}
