package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"

	"github.com/gin-gonic/gin"
)

// multipart 表单中除文件外的字段（描述、边界等）预留的空间
const multipartOverhead = 1 << 20

// BodyLimitMiddleware 限制请求体大小，skipPrefixes 中的路由（上传）由 UploadBodyLimitMiddleware 负责
func BodyLimitMiddleware(skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method == http.MethodPost {
			for _, p := range skipPrefixes {
				if strings.TrimSuffix(path, "/") == strings.TrimSuffix(p, "/") {
					c.Next()
					return
				}
			}
		}

		maxSizeMB := config.Get().Server.MaxRequestBodyMB
		if maxSizeMB <= 0 {
			// 如果未设置或为0，默认 2MB
			maxSizeMB = 2
		}

		// 使用 MaxBytesReader 限制读取的字节数
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(maxSizeMB)*1024*1024)

		c.Next()
	}
}

// UploadBodyLimitMiddleware 限制上传接口的请求体大小
func UploadBodyLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		maxFileSize := config.Get().Upload.MaxFileSize
		if maxFileSize <= 0 {
			maxFileSize = 5242880
		}
		maxBytes := maxFileSize + multipartOverhead

		if c.Request.ContentLength > maxBytes && c.Request.ContentLength != -1 {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("文件大小不能超过 %dMB", maxFileSize/1024/1024)})
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
