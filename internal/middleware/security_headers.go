package middleware

import (
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"

	"github.com/gin-gonic/gin"
)

const (
	// API 只返回 JSON，不需要加载任何资源
	apiContentPolicy = "default-src 'none'; frame-ancestors 'none'"
	// 上传文件可能是带脚本的 SVG，直接打开时放进沙箱
	uploadContentPolicy = "default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'; sandbox"
)

// SecurityHeaders 全局响应头
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", apiContentPolicy)
		c.Next()
	}
}

// UploadedFileHeaders 用于上传目录的静态文件：覆盖为沙箱 CSP，
// 并按 server.static_cache 设置 Cache-Control（为空则不设置，配置热更新后立即生效）
func UploadedFileHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", uploadContentPolicy)
		if cc := config.Get().Server.StaticCache; cc != "" {
			c.Header("Cache-Control", cc)
		}
		c.Next()
	}
}
