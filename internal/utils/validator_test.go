package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

var allowedAll = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml"}

func TestDetectImageType(t *testing.T) {
	pngBytes := []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // signature
		0x00, 0x00, 0x00, 0x0D, // IHDR length
		0x49, 0x48, 0x44, 0x52, // IHDR
		0x00, 0x00, 0x00, 0x01, // width=1
		0x00, 0x00, 0x00, 0x01, // height=1
		0x08, 0x02, 0x00, 0x00, 0x00, // bit depth/color type/etc
	}
	gifBytes := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
	svgBytes := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)

	tests := []struct {
		name     string
		data     []byte
		filename string
		allowed  []string
		wantMIME string
		wantExt  string
		wantOK   bool
	}{
		{name: "png_ok", data: pngBytes, filename: "a.png", allowed: allowedAll, wantMIME: "image/png", wantExt: ".png", wantOK: true},
		{name: "png_upper_ext", data: pngBytes, filename: "A.PNG", allowed: allowedAll, wantMIME: "image/png", wantExt: ".png", wantOK: true},
		{name: "png_no_ext", data: pngBytes, filename: "noext", allowed: allowedAll, wantMIME: "image/png", wantExt: ".png", wantOK: true},
		{name: "png_mismatch_ext", data: pngBytes, filename: "a.jpg", allowed: allowedAll, wantOK: false},
		{name: "gif_ok", data: gifBytes, filename: "a.gif", allowed: allowedAll, wantMIME: "image/gif", wantExt: ".gif", wantOK: true},
		{name: "svg_ok", data: svgBytes, filename: "logo.svg", allowed: allowedAll, wantMIME: "image/svg+xml", wantExt: ".svg", wantOK: true},
		{name: "svg_not_allowed", data: svgBytes, filename: "logo.svg", allowed: []string{"image/png"}, wantOK: false},
		{name: "unsupported", data: []byte("not an image"), filename: "a.png", allowed: allowedAll, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			mime, ext, err := DetectImageType(r, tt.filename, tt.allowed)
			if (err == nil) != tt.wantOK {
				t.Fatalf("DetectImageType err=%v wantOK=%v", err, tt.wantOK)
			}
			if tt.wantOK && (mime != tt.wantMIME || ext != tt.wantExt) {
				t.Fatalf("期望 %s %s，实际为 %s %s", tt.wantMIME, tt.wantExt, mime, ext)
			}

			// 校验后读取位置应已重置
			b := make([]byte, 1)
			if _, err := r.Read(b); err != nil && err != io.EOF {
				t.Fatalf("reader should still be readable: %v", err)
			}
			if len(tt.data) > 0 && b[0] != tt.data[0] {
				t.Fatalf("期望读取位置被重置到开头")
			}
		})
	}
}

// 测试内容：验证描述会被去空白、按正确顺序转义，且超长时被拒绝。
func TestSanitizeDescription(t *testing.T) {
	got, ok, _ := SanitizeDescription("  <b>Tom & \"Jerry\"</b> 's  ", 1000)
	if !ok {
		t.Fatalf("期望合法描述通过")
	}
	want := "&lt;b&gt;Tom &amp; &quot;Jerry&quot;&lt;/b&gt; &#x27;s"
	if got != want {
		t.Fatalf("期望 %q，实际为 %q", want, got)
	}

	// 恰好 1000 个字符（含多字节字符）应通过
	if _, ok, _ := SanitizeDescription(strings.Repeat("图", 1000), 1000); !ok {
		t.Fatalf("期望 1000 个字符的描述通过")
	}
	if _, ok, msg := SanitizeDescription(strings.Repeat("a", 1001), 1000); ok || msg == "" {
		t.Fatalf("期望超长描述被拒绝")
	}

	if got, ok, _ := SanitizeDescription("   ", 1000); !ok || got != "" {
		t.Fatalf("期望空白描述被规范为空串，实际为 %q", got)
	}
}

// 测试内容：验证 SVG 扩展名判断。
func TestIsSVG(t *testing.T) {
	if !IsSVG("a.SVG") || IsSVG("a.png") {
		t.Fatalf("IsSVG 判断错误")
	}
}
