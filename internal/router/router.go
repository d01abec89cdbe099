package router

import (
	"net/http"
	"strings"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/handler"
	"github.com/jwcloud365/SimpleWebDBApp/internal/middleware"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const uploadRoute = "/api/pictures"

type Router struct {
	handler *handler.Handler
	files   *storage.LocalStore
	redis   *redis.Client
}

// NewRouter redisClient 为 nil 时上传限流使用进程内实现
func NewRouter(h *handler.Handler, files *storage.LocalStore, redisClient *redis.Client) *Router {
	return &Router{
		handler: h,
		files:   files,
		redis:   redisClient,
	}
}

func (rt *Router) Init(r *gin.Engine) {
	// 注册全局安全标头中间件
	r.Use(middleware.SecurityHeaders())

	// 上传目录静态文件：沙箱 CSP 与可配置的缓存策略
	prefix := config.Get().Upload.URLPrefix
	r.Group(prefix, middleware.UploadedFileHeaders()).
		StaticFS("", gin.Dir(rt.files.Dir(), false))

	api := r.Group("/api")
	// 上传路由单独限制请求体大小
	api.Use(middleware.BodyLimitMiddleware(uploadRoute))

	uploadLimiter := middleware.RateLimitMiddleware(rt.redis, config.Get().Redis.Prefix)
	uploadBodyLimit := middleware.UploadBodyLimitMiddleware()

	h := rt.handler
	api.GET("/ping", h.Ping)

	pictures := api.Group("/pictures")
	pictures.POST("", uploadBodyLimit, uploadLimiter, h.UploadPicture)
	pictures.GET("", h.ListPictures)
	pictures.GET("/:id", h.GetPicture)
	pictures.PUT("/:id", h.UpdatePictureDescription)
	pictures.DELETE("/:id", h.DeletePicture)
	pictures.GET("/:id/thumbnail", h.GetPictureThumbnail)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.JSON(http.StatusNotFound, gin.H{"error": "文件不存在"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
