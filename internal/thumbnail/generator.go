package thumbnail

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/utils"
)

// 矢量图不缩放，未指定尺寸时记录的默认宽高
const (
	DefaultSVGWidth  = 200
	DefaultSVGHeight = 150
)

// Resizer 将栅格图缩放到指定宽度，height 为 0 时按比例计算。返回输出内容与实际尺寸。
type Resizer interface {
	Resize(src []byte, width, height int) ([]byte, int, int, error)
}

type Options struct {
	Width  int
	Height int
}

type Result struct {
	Filename string
	Path     string
	Width    int
	Height   int
}

type Generator struct {
	resizer Resizer
	width   int
	height  int
}

func NewGenerator(resizer Resizer, cfg config.ThumbnailConfig) *Generator {
	if resizer == nil {
		resizer = BimgResizer{}
	}
	return &Generator{resizer: resizer, width: cfg.Width, height: cfg.Height}
}

// DefaultOptions 返回配置中的缩略图尺寸
func (g *Generator) DefaultOptions() Options {
	return Options{Width: g.width, Height: g.height}
}

// Generate 在源文件同目录下生成 thumb-<源文件名>。栅格图按比例缩放，SVG 原样复制。
func (g *Generator) Generate(sourcePath string, opts Options) (*Result, error) {
	if opts.Width <= 0 {
		opts.Width = g.width
	}
	if opts.Width <= 0 {
		opts.Width = 200
	}

	filename := model.ThumbnailFilename(filepath.Base(sourcePath))
	outPath := filepath.Join(filepath.Dir(sourcePath), filename)

	if utils.IsSVG(sourcePath) {
		if err := copyFile(sourcePath, outPath); err != nil {
			return nil, common.NewThumbnailError(sourcePath, err)
		}
		w, h := opts.Width, opts.Height
		if w <= 0 {
			w = DefaultSVGWidth
		}
		if h <= 0 {
			h = DefaultSVGHeight
		}
		return &Result{Filename: filename, Path: outPath, Width: w, Height: h}, nil
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, common.NewThumbnailError(sourcePath, err)
	}
	out, w, h, err := g.resizer.Resize(src, opts.Width, opts.Height)
	if err != nil {
		return nil, common.NewThumbnailError(sourcePath, fmt.Errorf("缩放失败: %w", err))
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return nil, common.NewThumbnailError(sourcePath, err)
	}
	return &Result{Filename: filename, Path: outPath, Width: w, Height: h}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
