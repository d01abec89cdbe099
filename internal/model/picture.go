package model

import (
	"strings"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
)

// Picture 对应 pictures 表，一条记录对应上传目录中的一个原图文件
type Picture struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Filename         string    `json:"filename" gorm:"not null;uniqueIndex"`
	OriginalFilename string    `json:"original_filename" gorm:"not null"`
	Description      *string   `json:"description"`
	Mimetype         string    `json:"mimetype" gorm:"not null"`
	Size             int64     `json:"size" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at" gorm:"index"`
	UpdatedAt        time.Time `json:"updated_at"`

	// 不落库，由查询时附加
	Thumbnails []Thumbnail `json:"thumbnails" gorm:"-"`
}

func (Picture) TableName() string {
	return "pictures"
}

type NewPictureInput struct {
	Filename         string
	OriginalFilename string
	Description      *string
	Mimetype         string
	Size             int64
}

// NewPicture 校验输入并构造待插入的 Picture
func NewPicture(in NewPictureInput) (*Picture, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, common.NewValidationError("文件名不能为空")
	}
	if strings.TrimSpace(in.OriginalFilename) == "" {
		return nil, common.NewValidationError("原始文件名不能为空")
	}
	if strings.TrimSpace(in.Mimetype) == "" {
		return nil, common.NewValidationError("文件类型不能为空")
	}
	if in.Size < 0 {
		return nil, common.NewValidationError("文件大小不能为负数")
	}
	return &Picture{
		Filename:         in.Filename,
		OriginalFilename: in.OriginalFilename,
		Description:      in.Description,
		Mimetype:         in.Mimetype,
		Size:             in.Size,
	}, nil
}

// DescriptionText 返回描述文本，未设置时为空串
func (p *Picture) DescriptionText() string {
	if p == nil || p.Description == nil {
		return ""
	}
	return *p.Description
}
