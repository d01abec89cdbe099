package repository

import (
	"context"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
)

// FileRef 是数据库中引用的一个磁盘文件，供对账使用
type FileRef struct {
	ID        uint
	PictureID uint
	Filename  string
}

type PictureStore interface {
	Create(ctx context.Context, picture *model.Picture) error
	FindByID(ctx context.Context, id uint) (*model.Picture, bool, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset int, limit int) ([]model.Picture, error)
	UpdateDescription(ctx context.Context, id uint, description string, now time.Time) (bool, error)
	DeleteWithThumbnails(ctx context.Context, id uint) (*model.Picture, []model.Thumbnail, bool, error)

	CreateThumbnail(ctx context.Context, thumb *model.Thumbnail) error
	FindThumbnailsByPictureID(ctx context.Context, pictureID uint) ([]model.Thumbnail, error)
	ListThumbnailsByPictureIDs(ctx context.Context, pictureIDs []uint) ([]model.Thumbnail, error)

	ListPictureFiles(ctx context.Context) ([]FileRef, error)
	ListThumbnailFiles(ctx context.Context) ([]FileRef, error)
	RenameThumbnailFile(ctx context.Context, thumbnailID uint, filename string) (bool, error)
}
