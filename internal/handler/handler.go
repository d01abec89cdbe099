package handler

import (
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
)

type Handler struct {
	pictures *service.PictureService
}

func NewHandler(pictures *service.PictureService) *Handler {
	return &Handler{pictures: pictures}
}

type thumbnailView struct {
	model.Thumbnail
	URL string `json:"url"`
}

type pictureView struct {
	model.Picture
	URL        string          `json:"url"`
	Thumbnails []thumbnailView `json:"thumbnails"`
}

// fileURL 拼接上传目录的公开访问路径，url_prefix 已保证以 / 结尾
func fileURL(filename string) string {
	return config.Get().Upload.URLPrefix + filename
}

func newPictureView(p model.Picture) pictureView {
	thumbs := make([]thumbnailView, 0, len(p.Thumbnails))
	for _, th := range p.Thumbnails {
		thumbs = append(thumbs, thumbnailView{Thumbnail: th, URL: fileURL(th.Filename)})
	}
	return pictureView{Picture: p, URL: fileURL(p.Filename), Thumbnails: thumbs}
}
