package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common/httpx"
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
	"github.com/jwcloud365/SimpleWebDBApp/internal/utils"

	"github.com/gin-gonic/gin"
)

// parsePictureID 解析路径中的图片 ID，非法时直接写入 400 响应
func parsePictureID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的图片ID"})
		return 0, false
	}
	return uint(id), true
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// UploadPicture 上传图片（multipart 字段 picture）及可选描述
func (h *Handler) UploadPicture(c *gin.Context) {
	fileHeader, err := c.FormFile("picture")
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "上传内容过大"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "未上传文件"})
		return
	}

	var description *string
	if raw, ok := c.GetPostForm("description"); ok {
		clean, valid, msg := utils.SanitizeDescription(raw, config.Get().Upload.MaxDescriptionLength)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		description = &clean
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("❌ 打开上传文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传失败，请稍后重试"})
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.pictures.Upload(c.Request.Context(), service.UploadInput{
		File:             file,
		OriginalFilename: fileHeader.Filename,
		Size:             fileHeader.Size,
		Description:      description,
	})
	if err != nil {
		log.Printf("❌ 上传失败: %v", err)
		httpx.WriteServiceError(c, err, "上传失败，请稍后重试")
		return
	}

	picture := gin.H{
		"id":          result.Picture.ID,
		"filename":    result.Picture.Filename,
		"description": result.Picture.Description,
		"thumbnail":   nil,
	}
	if result.Thumbnail != nil {
		picture["thumbnail"] = result.Thumbnail.Filename
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "上传成功",
		"picture": picture,
	})
}

// ListPictures 分页列出图片，page/limit 解析失败时使用默认值，范围由 service 归一化
func (h *Handler) ListPictures(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.pictures.GetAll(c.Request.Context(), service.PageRequest{Page: page, Limit: limit})
	if err != nil {
		log.Printf("❌ 获取图片列表失败: %v", err)
		httpx.WriteServiceError(c, err, "获取图片列表失败")
		return
	}

	views := make([]pictureView, 0, len(result.Pictures))
	for _, p := range result.Pictures {
		views = append(views, newPictureView(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"pictures":   views,
		"pagination": result.Pagination,
	})
}

// GetPicture 获取图片详情
func (h *Handler) GetPicture(c *gin.Context) {
	id, ok := parsePictureID(c)
	if !ok {
		return
	}

	picture, found, err := h.pictures.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ 获取图片 %d 失败: %v", id, err)
		httpx.WriteServiceError(c, err, "获取图片失败")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}

	c.JSON(http.StatusOK, newPictureView(*picture))
}

// UpdatePictureDescription 修改图片描述，支持 JSON 与表单
func (h *Handler) UpdatePictureDescription(c *gin.Context) {
	id, ok := parsePictureID(c)
	if !ok {
		return
	}

	var req struct {
		Description *string `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "请求体过大"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "参数错误"})
		return
	}
	if req.Description == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少描述"})
		return
	}

	description, valid, msg := utils.SanitizeDescription(*req.Description, config.Get().Upload.MaxDescriptionLength)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	updated, err := h.pictures.UpdateDescription(c.Request.Context(), id, description)
	if err != nil {
		log.Printf("❌ 更新图片 %d 描述失败: %v", id, err)
		httpx.WriteServiceError(c, err, "更新失败")
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "描述更新成功"})
}

// DeletePicture 删除图片及其缩略图
func (h *Handler) DeletePicture(c *gin.Context) {
	id, ok := parsePictureID(c)
	if !ok {
		return
	}

	deleted, err := h.pictures.Delete(c.Request.Context(), id)
	if err != nil {
		httpx.WriteServiceError(c, err, "删除失败")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// GetPictureThumbnail 重定向到图片的第一张缩略图
func (h *Handler) GetPictureThumbnail(c *gin.Context) {
	id, ok := parsePictureID(c)
	if !ok {
		return
	}

	picture, found, err := h.pictures.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Printf("❌ 获取图片 %d 失败: %v", id, err)
		httpx.WriteServiceError(c, err, "获取缩略图失败")
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "图片不存在"})
		return
	}
	if len(picture.Thumbnails) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "缩略图不存在"})
		return
	}

	c.Redirect(http.StatusFound, fileURL(picture.Thumbnails[0].Filename))
}

// Ping 健康检查
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
