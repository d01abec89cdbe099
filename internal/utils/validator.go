package utils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const sniffLen = 512

// 每种 MIME 允许的扩展名，第一个为规范扩展名
var mimeExtensions = map[string][]string{
	"image/jpeg":    {".jpg", ".jpeg"},
	"image/png":     {".png"},
	"image/gif":     {".gif"},
	"image/webp":    {".webp"},
	"image/svg+xml": {".svg"},
}

// DetectImageType 根据文件头识别图片真实类型，并校验与扩展名一致、在允许列表内。
// 返回识别出的 MIME 与规范化（小写）的扩展名，读取位置会被重置到开头。
func DetectImageType(reader io.ReadSeeker, filename string, allowed []string) (string, string, error) {
	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", "", fmt.Errorf("读取文件内容失败")
	}
	buffer = buffer[:n]

	// 重置读取位置
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("重置文件读取位置失败")
	}

	contentType := sniffContentType(buffer)
	ext := strings.ToLower(filepath.Ext(filename))

	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}
	if !allowedSet[contentType] {
		return "", "", fmt.Errorf("不支持的文件类型(%s)，仅允许 %s", contentType, strings.Join(allowed, ", "))
	}

	exts := mimeExtensions[contentType]
	if ext == "" && len(exts) > 0 {
		// 没有扩展名时补全为规范扩展名
		return contentType, exts[0], nil
	}
	for _, e := range exts {
		if e == ext {
			return contentType, ext, nil
		}
	}
	return "", "", fmt.Errorf("文件真实类型(%s)与扩展名(%s)不匹配", contentType, ext)
}

func sniffContentType(head []byte) string {
	contentType := http.DetectContentType(head)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	// DetectContentType 不识别 SVG，会把它当成 text/xml 或 text/plain
	if strings.HasPrefix(contentType, "text/") && looksLikeSVG(head) {
		return "image/svg+xml"
	}
	return contentType
}

func looksLikeSVG(head []byte) bool {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")))
	lower := bytes.ToLower(trimmed)
	if !bytes.HasPrefix(lower, []byte("<?xml")) && !bytes.HasPrefix(lower, []byte("<svg")) && !bytes.HasPrefix(lower, []byte("<!--")) {
		return false
	}
	return bytes.Contains(lower, []byte("<svg"))
}

// IsSVG 判断文件名是否为矢量图
func IsSVG(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".svg")
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeDescription 去除首尾空白、校验长度并转义 HTML 特殊字符。
// 长度按字符数计算，且在转义前校验。
func SanitizeDescription(raw string, maxLen int) (string, bool, string) {
	description := strings.TrimSpace(raw)
	if maxLen > 0 && utf8.RuneCountInString(description) > maxLen {
		return "", false, fmt.Sprintf("描述不能超过 %d 个字符", maxLen)
	}
	return htmlEscaper.Replace(description), true, ""
}
