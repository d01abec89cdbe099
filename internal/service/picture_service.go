package service

import (
	"context"
	"log"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/repository"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/thumbnail"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PictureService 协调 pictures 行、派生的 thumbnails 行与磁盘文件的生命周期
type PictureService struct {
	store  repository.PictureStore
	files  *storage.LocalStore
	thumbs *thumbnail.Generator
	now    func() time.Time
}

func NewPictureService(repos *repository.Repositories, files *storage.LocalStore, thumbs *thumbnail.Generator) *PictureService {
	return &PictureService{
		store:  repos.Picture,
		files:  files,
		thumbs: thumbs,
		now:    time.Now,
	}
}

type PageRequest struct {
	Page  int
	Limit int
}

type Pagination struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type PicturePage struct {
	Pictures   []model.Picture `json:"pictures"`
	Pagination Pagination      `json:"pagination"`
}

// Create 插入一条图片记录，返回带有生成 ID 与时间戳的记录
func (s *PictureService) Create(ctx context.Context, in model.NewPictureInput) (*model.Picture, error) {
	picture, err := model.NewPicture(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, picture); err != nil {
		return nil, err
	}
	picture.Thumbnails = []model.Thumbnail{}
	log.Printf("✅ 图片记录已创建: id=%d file=%s", picture.ID, picture.Filename)
	return picture, nil
}

// GetByID 读取单张图片，不存在时 found 为 false
func (s *PictureService) GetByID(ctx context.Context, id uint) (*model.Picture, bool, error) {
	picture, found, err := s.store.FindByID(ctx, id)
	if err != nil || !found {
		return nil, false, err
	}
	thumbs, err := s.store.FindThumbnailsByPictureID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	picture.Thumbnails = thumbs
	return picture, true, nil
}

// normalizePagination 归一化分页参数：页码最小为 1，页大小限定在 [1, 100]
func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// GetAll 分页读取图片（按创建时间倒序），并为每张图片附加缩略图
func (s *PictureService) GetAll(ctx context.Context, req PageRequest) (*PicturePage, error) {
	page, limit := normalizePagination(req.Page, req.Limit)

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pagination := Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	// 超出末页直接返回空列表，同时避免 (page-1)*limit 溢出
	if page > totalPages {
		return &PicturePage{Pictures: []model.Picture{}, Pagination: pagination}, nil
	}

	pictures, err := s.store.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(pictures))
	for _, p := range pictures {
		ids = append(ids, p.ID)
	}
	thumbs, err := s.store.ListThumbnailsByPictureIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byPicture := make(map[uint][]model.Thumbnail, len(pictures))
	for _, th := range thumbs {
		byPicture[th.PictureID] = append(byPicture[th.PictureID], th)
	}
	for i := range pictures {
		if list, ok := byPicture[pictures[i].ID]; ok {
			pictures[i].Thumbnails = list
		} else {
			pictures[i].Thumbnails = []model.Thumbnail{}
		}
	}

	return &PicturePage{Pictures: pictures, Pagination: pagination}, nil
}

// UpdateDescription 更新描述并刷新 updated_at，图片不存在时返回 false
func (s *PictureService) UpdateDescription(ctx context.Context, id uint, description string) (bool, error) {
	updated, err := s.store.UpdateDescription(ctx, id, description, s.now())
	if err != nil {
		return false, err
	}
	if updated {
		log.Printf("✅ 图片 %d 描述已更新", id)
	}
	return updated, nil
}

// Delete 在事务中删除图片行（缩略图级联删除），提交后尽力删除磁盘文件。
// 文件删除失败只记录警告，返回值只反映数据库行是否被删除。
func (s *PictureService) Delete(ctx context.Context, id uint) (bool, error) {
	picture, thumbs, deleted, err := s.store.DeleteWithThumbnails(ctx, id)
	if err != nil {
		log.Printf("❌ 删除图片 %d 失败: %v", id, err)
		return false, err
	}
	if !deleted {
		return false, nil
	}

	s.removeFiles(picture.Filename, thumbs)
	log.Printf("✅ 图片 %d 已删除", id)
	return true, nil
}

func (s *PictureService) removeFiles(filename string, thumbs []model.Thumbnail) {
	if s.files == nil {
		return
	}
	s.files.RemoveBestEffort(filename, "图片")
	for _, th := range thumbs {
		s.files.RemoveBestEffort(th.Filename, "缩略图")
	}
}

// AddThumbnail 为已有图片添加缩略图记录，图片不存在时外键约束报 DatabaseError
func (s *PictureService) AddThumbnail(ctx context.Context, in model.NewThumbnailInput) (*model.Thumbnail, error) {
	thumb, err := model.NewThumbnail(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateThumbnail(ctx, thumb); err != nil {
		return nil, err
	}
	return thumb, nil
}

func (s *PictureService) GetThumbnails(ctx context.Context, pictureID uint) ([]model.Thumbnail, error) {
	return s.store.FindThumbnailsByPictureID(ctx, pictureID)
}
