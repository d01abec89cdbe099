package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/testutils"
)

func mustCreatePicture(t *testing.T, repo PictureStore, filename string) *model.Picture {
	t.Helper()
	p, err := model.NewPicture(model.NewPictureInput{
		Filename:         filename,
		OriginalFilename: "orig-" + filename,
		Mimetype:         "image/png",
		Size:             100,
	})
	if err != nil {
		t.Fatalf("构造图片失败: %v", err)
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("创建图片失败: %v", err)
	}
	return p
}

func mustCreateThumb(t *testing.T, repo PictureStore, pictureID uint, filename string) *model.Thumbnail {
	t.Helper()
	th, err := model.NewThumbnail(model.NewThumbnailInput{PictureID: pictureID, Filename: filename, Width: 200, Height: 150})
	if err != nil {
		t.Fatalf("构造缩略图失败: %v", err)
	}
	if err := repo.CreateThumbnail(context.Background(), th); err != nil {
		t.Fatalf("创建缩略图失败: %v", err)
	}
	return th
}

// 测试内容：验证创建后可按 ID 读取，字段一致，未知 ID 返回未找到。
func TestPictureRepository_CreateAndFind(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	ctx := context.Background()

	p := mustCreatePicture(t, repo, "picture-1.png")
	if p.ID == 0 {
		t.Fatalf("期望创建后分配 ID")
	}

	got, found, err := repo.FindByID(ctx, p.ID)
	if err != nil || !found {
		t.Fatalf("期望找到图片，found=%v err=%v", found, err)
	}
	if got.Filename != "picture-1.png" || got.OriginalFilename != "orig-picture-1.png" || got.Mimetype != "image/png" || got.Size != 100 {
		t.Fatalf("读取的字段与写入不一致: %+v", got)
	}
	if got.Description != nil {
		t.Fatalf("期望描述为 NULL")
	}

	_, found, err = repo.FindByID(ctx, 9999)
	if err != nil || found {
		t.Fatalf("期望未知 ID 返回未找到，found=%v err=%v", found, err)
	}
}

// 测试内容：验证分页列表按创建时间倒序，且计数正确。
func TestPictureRepository_ListAndCount(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	ctx := context.Background()

	a := mustCreatePicture(t, repo, "a.png")
	b := mustCreatePicture(t, repo, "b.png")
	c := mustCreatePicture(t, repo, "c.png")

	total, err := repo.Count(ctx)
	if err != nil || total != 3 {
		t.Fatalf("期望总数 3，实际为 %d err=%v", total, err)
	}

	first, err := repo.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("分页查询失败: %v", err)
	}
	if len(first) != 2 || first[0].ID != c.ID || first[1].ID != b.ID {
		t.Fatalf("期望第一页为 [c b]，实际为 %+v", first)
	}
	second, err := repo.List(ctx, 2, 2)
	if err != nil || len(second) != 1 || second[0].ID != a.ID {
		t.Fatalf("期望第二页为 [a]，实际为 %+v err=%v", second, err)
	}
	empty, err := repo.List(ctx, 10, 2)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("期望越界页为空切片，实际为 %#v err=%v", empty, err)
	}
}

// 测试内容：验证更新描述刷新 updated_at，不存在的 ID 返回 false。
func TestPictureRepository_UpdateDescription(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	ctx := context.Background()
	p := mustCreatePicture(t, repo, "u.png")

	now := p.UpdatedAt.Add(time.Second)
	ok, err := repo.UpdateDescription(ctx, p.ID, "新描述", now)
	if err != nil || !ok {
		t.Fatalf("期望更新成功，ok=%v err=%v", ok, err)
	}
	got, _, _ := repo.FindByID(ctx, p.ID)
	if got.DescriptionText() != "新描述" {
		t.Fatalf("期望描述已更新，实际为 %q", got.DescriptionText())
	}
	if !got.UpdatedAt.After(p.UpdatedAt) {
		t.Fatalf("期望 updated_at 变新，原 %v 现 %v", p.UpdatedAt, got.UpdatedAt)
	}

	ok, err = repo.UpdateDescription(ctx, 9999, "x", now)
	if err != nil || ok {
		t.Fatalf("期望不存在的 ID 返回 false，ok=%v err=%v", ok, err)
	}
}

// 测试内容：验证删除返回被删记录与缩略图，缩略图被级联删除，再次删除返回未找到。
func TestPictureRepository_DeleteWithThumbnails(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	ctx := context.Background()
	p := mustCreatePicture(t, repo, "d.png")
	mustCreateThumb(t, repo, p.ID, "thumb-d.png")

	deleted, thumbs, ok, err := repo.DeleteWithThumbnails(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("期望删除成功，ok=%v err=%v", ok, err)
	}
	if deleted.Filename != "d.png" || len(thumbs) != 1 || thumbs[0].Filename != "thumb-d.png" {
		t.Fatalf("非预期的删除结果: %+v %+v", deleted, thumbs)
	}

	left, err := repo.FindThumbnailsByPictureID(ctx, p.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("期望缩略图被级联删除，剩余 %d err=%v", len(left), err)
	}

	_, _, ok, err = repo.DeleteWithThumbnails(ctx, p.ID)
	if err != nil || ok {
		t.Fatalf("期望再次删除返回 false，ok=%v err=%v", ok, err)
	}
}

// 测试内容：验证引用不存在图片的缩略图插入返回 DatabaseError。
func TestPictureRepository_CreateThumbnailForeignKey(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	th, _ := model.NewThumbnail(model.NewThumbnailInput{PictureID: 12345, Filename: "thumb-x.png"})
	err := repo.CreateThumbnail(context.Background(), th)
	if _, ok := common.AsDatabaseError(err); !ok {
		t.Fatalf("期望外键违反返回 DatabaseError，实际为 %v", err)
	}
}

// 测试内容：验证按多个图片 ID 批量读取缩略图，以及对账用的文件引用查询与重命名。
func TestPictureRepository_BatchThumbnailsAndFileRefs(t *testing.T) {
	repo := NewPictureRepository(testutils.SetupDB(t))
	ctx := context.Background()
	a := mustCreatePicture(t, repo, "a.png")
	b := mustCreatePicture(t, repo, "b.png")
	c := mustCreatePicture(t, repo, "c.png")
	ta := mustCreateThumb(t, repo, a.ID, "thumb_a.png")
	mustCreateThumb(t, repo, b.ID, "thumb-b.png")

	thumbs, err := repo.ListThumbnailsByPictureIDs(ctx, []uint{a.ID, b.ID, c.ID})
	if err != nil || len(thumbs) != 2 {
		t.Fatalf("期望 2 条缩略图，实际为 %d err=%v", len(thumbs), err)
	}
	none, err := repo.ListThumbnailsByPictureIDs(ctx, nil)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("期望空 ID 列表返回空切片")
	}

	pics, err := repo.ListPictureFiles(ctx)
	if err != nil || len(pics) != 3 || pics[0].Filename != "a.png" || pics[0].PictureID != a.ID {
		t.Fatalf("非预期的图片文件引用: %+v err=%v", pics, err)
	}
	refs, err := repo.ListThumbnailFiles(ctx)
	if err != nil || len(refs) != 2 || refs[0].PictureID != a.ID {
		t.Fatalf("非预期的缩略图文件引用: %+v err=%v", refs, err)
	}

	ok, err := repo.RenameThumbnailFile(ctx, ta.ID, "thumb-a.png")
	if err != nil || !ok {
		t.Fatalf("期望重命名成功，ok=%v err=%v", ok, err)
	}
	got, _ := repo.FindThumbnailsByPictureID(ctx, a.ID)
	if len(got) != 1 || got[0].Filename != "thumb-a.png" {
		t.Fatalf("期望文件名已更新，实际为 %+v", got)
	}
}
