package repository

import (
	"context"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
)

type PictureRepository struct {
	conn *db.Conn
}

func NewPictureRepository(conn *db.Conn) PictureStore {
	return &PictureRepository{conn: conn}
}

func (r *PictureRepository) Create(ctx context.Context, picture *model.Picture) error {
	gdb, err := r.conn.Gorm(ctx)
	if err != nil {
		return err
	}
	if err := gdb.Create(picture).Error; err != nil {
		return common.NewDatabaseError("create picture", err)
	}
	return nil
}

func (r *PictureRepository) FindByID(ctx context.Context, id uint) (*model.Picture, bool, error) {
	var picture model.Picture
	found, err := r.conn.QueryOne(ctx, &picture,
		"SELECT id, filename, original_filename, description, mimetype, size, created_at, updated_at FROM pictures WHERE id = ?", id)
	if err != nil || !found {
		return nil, false, err
	}
	return &picture, true, nil
}

func (r *PictureRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if _, err := r.conn.QueryOne(ctx, &total, "SELECT COUNT(*) FROM pictures"); err != nil {
		return 0, err
	}
	return total, nil
}

// List 按创建时间倒序分页，创建时间相同时按 id 倒序
func (r *PictureRepository) List(ctx context.Context, offset int, limit int) ([]model.Picture, error) {
	pictures := make([]model.Picture, 0, limit)
	err := r.conn.QueryAll(ctx, &pictures,
		`SELECT id, filename, original_filename, description, mimetype, size, created_at, updated_at
		 FROM pictures ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return pictures, nil
}

func (r *PictureRepository) UpdateDescription(ctx context.Context, id uint, description string, now time.Time) (bool, error) {
	res, err := r.conn.Exec(ctx, "UPDATE pictures SET description = ?, updated_at = ? WHERE id = ?", description, now, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// DeleteWithThumbnails 在一个事务中重新读取图片与缩略图并删除图片行，缩略图由外键级联删除。
// 返回被删除的记录，供调用方在提交后清理文件。
func (r *PictureRepository) DeleteWithThumbnails(ctx context.Context, id uint) (*model.Picture, []model.Thumbnail, bool, error) {
	var (
		picture model.Picture
		thumbs  []model.Thumbnail
		found   bool
	)
	err := r.conn.WithTransaction(ctx, func(h *db.Handle) error {
		var err error
		found, err = h.QueryOne(ctx, &picture,
			"SELECT id, filename, original_filename, description, mimetype, size, created_at, updated_at FROM pictures WHERE id = ?", id)
		if err != nil || !found {
			return err
		}
		if err := h.QueryAll(ctx, &thumbs, "SELECT id, picture_id, filename, width, height, created_at FROM thumbnails WHERE picture_id = ? ORDER BY id", id); err != nil {
			return err
		}
		res, err := h.Exec(ctx, "DELETE FROM pictures WHERE id = ?", id)
		if err != nil {
			return err
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}
	if !found {
		return nil, nil, false, nil
	}
	if thumbs == nil {
		thumbs = []model.Thumbnail{}
	}
	return &picture, thumbs, true, nil
}

func (r *PictureRepository) CreateThumbnail(ctx context.Context, thumb *model.Thumbnail) error {
	gdb, err := r.conn.Gorm(ctx)
	if err != nil {
		return err
	}
	if err := gdb.Omit("Picture").Create(thumb).Error; err != nil {
		return common.NewDatabaseError("create thumbnail", err)
	}
	return nil
}

func (r *PictureRepository) FindThumbnailsByPictureID(ctx context.Context, pictureID uint) ([]model.Thumbnail, error) {
	thumbs := []model.Thumbnail{}
	err := r.conn.QueryAll(ctx, &thumbs,
		"SELECT id, picture_id, filename, width, height, created_at FROM thumbnails WHERE picture_id = ? ORDER BY id", pictureID)
	if err != nil {
		return nil, err
	}
	return thumbs, nil
}

// ListThumbnailsByPictureIDs 一次查询取回一页图片的全部缩略图
func (r *PictureRepository) ListThumbnailsByPictureIDs(ctx context.Context, pictureIDs []uint) ([]model.Thumbnail, error) {
	thumbs := []model.Thumbnail{}
	if len(pictureIDs) == 0 {
		return thumbs, nil
	}
	err := r.conn.QueryAll(ctx, &thumbs,
		"SELECT id, picture_id, filename, width, height, created_at FROM thumbnails WHERE picture_id IN ? ORDER BY picture_id, id", pictureIDs)
	if err != nil {
		return nil, err
	}
	return thumbs, nil
}

func (r *PictureRepository) ListPictureFiles(ctx context.Context) ([]FileRef, error) {
	refs := []FileRef{}
	if err := r.conn.QueryAll(ctx, &refs, "SELECT id, id AS picture_id, filename FROM pictures ORDER BY id"); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *PictureRepository) ListThumbnailFiles(ctx context.Context) ([]FileRef, error) {
	refs := []FileRef{}
	if err := r.conn.QueryAll(ctx, &refs, "SELECT id, picture_id, filename FROM thumbnails ORDER BY id"); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *PictureRepository) RenameThumbnailFile(ctx context.Context, thumbnailID uint, filename string) (bool, error) {
	res, err := r.conn.Exec(ctx, "UPDATE thumbnails SET filename = ? WHERE id = ?", filename, thumbnailID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected > 0, nil
}
