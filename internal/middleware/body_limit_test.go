package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newBodyReadingRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusOK)
	}
	r.POST("/api/pictures", handler)
	r.PUT("/api/pictures/1", handler)
	return r
}

// 测试内容：验证超过全局请求体上限的请求读取失败。
func TestBodyLimitMiddleware_RejectsLargeBody(t *testing.T) {
	reloadConfig(t, map[string]string{"server.max_request_body_mb": "1"})
	r := newBodyReadingRouter(BodyLimitMiddleware("/api/pictures"))

	body := bytes.Repeat([]byte("a"), 2*1024*1024)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/pictures/1", bytes.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("期望 413，实际为 %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/pictures/1", strings.NewReader(`{"description":"x"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("期望小请求体通过，实际为 %d", w.Code)
	}
}

// 测试内容：验证上传路由跳过全局请求体限制。
func TestBodyLimitMiddleware_SkipsUploadRoute(t *testing.T) {
	reloadConfig(t, map[string]string{"server.max_request_body_mb": "1"})
	r := newBodyReadingRouter(BodyLimitMiddleware("/api/pictures"))

	body := bytes.Repeat([]byte("a"), 2*1024*1024)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/pictures", bytes.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("期望上传路由不受全局限制，实际为 %d", w.Code)
	}
}

// 测试内容：验证上传请求的 Content-Length 超过文件上限加表单余量时直接返回 413。
func TestUploadBodyLimitMiddleware_ContentLength(t *testing.T) {
	reloadConfig(t, map[string]string{"upload.max_file_size": "1048576"})
	r := newBodyReadingRouter(UploadBodyLimitMiddleware())

	body := bytes.Repeat([]byte("a"), 3*1024*1024)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/pictures", bytes.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("期望 413，实际为 %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "1MB") {
		t.Fatalf("期望错误信息包含上限，实际为 %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/pictures", bytes.NewReader(body[:1024*1024])))
	if w.Code != http.StatusOK {
		t.Fatalf("期望上限内的请求通过，实际为 %d", w.Code)
	}
}
