package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/utils"
)

type UploadInput struct {
	File             io.ReadSeeker
	OriginalFilename string
	Size             int64
	Description      *string
}

type UploadResult struct {
	Picture   *model.Picture
	Thumbnail *model.Thumbnail // thumbnail.required=false 且生成失败时为 nil
}

// Upload 处理图片上传：校验 → 保存文件 → 创建记录 → 生成缩略图 → 记录缩略图。
// 文件写入之后的任何失败都会回滚已写入的文件和已创建的记录。
func (s *PictureService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	cfg := config.Get()
	maxSize := cfg.Upload.MaxFileSize
	if maxSize <= 0 {
		maxSize = 5242880
	}

	if in.File == nil {
		return nil, common.NewValidationError("未上传文件")
	}
	if in.Size > maxSize {
		return nil, common.NewTooLargeError(fmt.Sprintf("文件大小不能超过 %s", humanSize(maxSize)))
	}

	mimetype, ext, err := utils.DetectImageType(in.File, in.OriginalFilename, cfg.Upload.AllowedTypeList())
	if err != nil {
		return nil, common.NewValidationError(err.Error())
	}

	// 1. 保存文件（多读一个字节用于识别声明大小与实际不符的情况）
	name := storage.NewPictureName(ext)
	written, err := s.files.Save(name, io.LimitReader(in.File, maxSize+1))
	if err != nil {
		log.Printf("❌ 保存上传文件失败: %v", err)
		return nil, common.NewInternalError("文件保存失败")
	}
	if written > maxSize {
		s.files.RemoveBestEffort(name, "图片")
		return nil, common.NewTooLargeError(fmt.Sprintf("文件大小不能超过 %s", humanSize(maxSize)))
	}

	// 清理使用独立的 context，客户端断开时也要执行
	cleanupCtx := context.WithoutCancel(ctx)

	// 2. 创建记录
	picture, err := s.Create(ctx, model.NewPictureInput{
		Filename:         name,
		OriginalFilename: in.OriginalFilename,
		Description:      in.Description,
		Mimetype:         mimetype,
		Size:             written,
	})
	if err != nil {
		s.files.RemoveBestEffort(name, "图片")
		return nil, err
	}

	// 3. 生成缩略图
	sourcePath, err := s.files.Path(name)
	if err != nil {
		s.rollbackUpload(cleanupCtx, picture.ID, name)
		return nil, common.NewInternalError("文件路径无效")
	}
	result, err := s.thumbs.Generate(sourcePath, s.thumbs.DefaultOptions())
	if err != nil {
		if cfg.Thumbnail.Required {
			log.Printf("❌ 缩略图生成失败，回滚上传: %v", err)
			s.rollbackUpload(cleanupCtx, picture.ID, name)
			return nil, err
		}
		log.Printf("⚠️ 缩略图生成失败，继续上传: %v", err)
		return &UploadResult{Picture: picture}, nil
	}

	// 4. 记录缩略图
	thumb, err := s.AddThumbnail(ctx, model.NewThumbnailInput{
		PictureID: picture.ID,
		Filename:  result.Filename,
		Width:     result.Width,
		Height:    result.Height,
	})
	if err != nil {
		log.Printf("❌ 缩略图记录失败，回滚上传: %v", err)
		s.rollbackUpload(cleanupCtx, picture.ID, name, result.Filename)
		return nil, err
	}

	picture.Thumbnails = []model.Thumbnail{*thumb}
	return &UploadResult{Picture: picture, Thumbnail: thumb}, nil
}

// rollbackUpload 删除已创建的记录与已写入的文件，失败只记录日志
func (s *PictureService) rollbackUpload(ctx context.Context, pictureID uint, filenames ...string) {
	if _, _, _, err := s.store.DeleteWithThumbnails(ctx, pictureID); err != nil {
		log.Printf("⚠️ 回滚图片记录 %d 失败: %v", pictureID, err)
	}
	for _, name := range filenames {
		s.files.RemoveBestEffort(name, "上传")
	}
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d 字节", n)
}
