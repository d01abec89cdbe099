package model

import (
	"strings"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
)

// ThumbnailPrefix 缩略图文件名前缀，缩略图与原图位于同一目录
const ThumbnailPrefix = "thumb-"

// LegacyThumbnailPrefix 早期版本使用的前缀，由对账任务迁移
const LegacyThumbnailPrefix = "thumb_"

type Thumbnail struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PictureID uint      `json:"picture_id" gorm:"not null;index"`
	Filename  string    `json:"filename" gorm:"not null"`
	Width     int       `json:"width" gorm:"not null"`
	Height    int       `json:"height" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	Picture   *Picture  `gorm:"foreignKey:PictureID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (Thumbnail) TableName() string {
	return "thumbnails"
}

type NewThumbnailInput struct {
	PictureID uint
	Filename  string
	Width     int
	Height    int
}

func NewThumbnail(in NewThumbnailInput) (*Thumbnail, error) {
	if in.PictureID == 0 {
		return nil, common.NewValidationError("缩略图必须关联图片")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return nil, common.NewValidationError("缩略图文件名不能为空")
	}
	if in.Width < 0 || in.Height < 0 {
		return nil, common.NewValidationError("缩略图尺寸不能为负数")
	}
	return &Thumbnail{
		PictureID: in.PictureID,
		Filename:  in.Filename,
		Width:     in.Width,
		Height:    in.Height,
	}, nil
}

// ThumbnailFilename 由原图文件名推导缩略图文件名
func ThumbnailFilename(source string) string {
	return ThumbnailPrefix + source
}
