package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/testutils"
)

func uploadInput(data []byte, name string) UploadInput {
	return UploadInput{
		File:             bytes.NewReader(data),
		OriginalFilename: name,
		Size:             int64(len(data)),
		Description:      strPtr("desc"),
	}
}

func listFiles(t *testing.T, files *storage.LocalStore) []string {
	t.Helper()
	list, err := files.List()
	if err != nil {
		t.Fatalf("列出文件失败: %v", err)
	}
	var names []string
	for _, f := range list {
		names = append(names, f.Name)
	}
	return names
}

// 测试内容：验证 PNG 上传成功：保存原图与缩略图、创建两条记录。
func TestUpload_PNGSuccess(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Upload(ctx, uploadInput(testutils.PNGBytes(t, 400, 200), "holiday.PNG"))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	p := res.Picture
	if !strings.HasPrefix(p.Filename, storage.PicturePrefix) || !strings.HasSuffix(p.Filename, ".png") {
		t.Fatalf("非预期的存储文件名: %q", p.Filename)
	}
	if p.OriginalFilename != "holiday.PNG" || p.Mimetype != "image/png" || p.DescriptionText() != "desc" {
		t.Fatalf("非预期的图片记录: %+v", p)
	}
	if res.Thumbnail == nil || res.Thumbnail.Filename != "thumb-"+p.Filename || res.Thumbnail.Width != 200 || res.Thumbnail.Height != 100 {
		t.Fatalf("非预期的缩略图: %+v", res.Thumbnail)
	}

	names := listFiles(t, env.files)
	if len(names) != 2 {
		t.Fatalf("期望磁盘上有原图与缩略图，实际为 %v", names)
	}
	thumbs, err := env.svc.GetThumbnails(ctx, p.ID)
	if err != nil || len(thumbs) != 1 {
		t.Fatalf("期望一条缩略图记录，实际为 %d err=%v", len(thumbs), err)
	}
}

// 测试内容：验证 SVG 上传复制为缩略图并使用默认尺寸。
func TestUpload_SVG(t *testing.T) {
	env := setupService(t)
	res, err := env.svc.Upload(context.Background(), uploadInput([]byte(testutils.MinimalSVG), "logo.svg"))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if res.Picture.Mimetype != "image/svg+xml" {
		t.Fatalf("期望 MIME 为 image/svg+xml，实际为 %q", res.Picture.Mimetype)
	}
	if res.Thumbnail == nil || res.Thumbnail.Width != 200 || res.Thumbnail.Height != 150 {
		t.Fatalf("非预期的 SVG 缩略图: %+v", res.Thumbnail)
	}
	if env.resizer.Calls != 0 {
		t.Fatalf("SVG 不应调用缩放器")
	}
}

// 测试内容：验证不支持的文件类型返回校验错误且不落盘。
func TestUpload_RejectsUnsupportedType(t *testing.T) {
	env := setupService(t)
	_, err := env.svc.Upload(context.Background(), uploadInput([]byte("just some text"), "note.png"))
	if se, ok := common.AsServiceError(err); !ok || se.Code != common.ErrorCodeValidation {
		t.Fatalf("期望校验错误，实际为 %v", err)
	}
	if names := listFiles(t, env.files); len(names) != 0 {
		t.Fatalf("期望未写入文件，实际为 %v", names)
	}
}

// 测试内容：验证声明大小超限或实际内容超限时返回 too_large 且不留下文件。
func TestUpload_TooLarge(t *testing.T) {
	reloadConfig(t, map[string]string{"upload.max_file_size": "200"})
	env := setupService(t)

	data := append(testutils.PNGBytes(t, 4, 4), bytes.Repeat([]byte{0}, 400)...)
	in := uploadInput(data, "big.png")
	_, err := env.svc.Upload(context.Background(), in)
	if se, ok := common.AsServiceError(err); !ok || se.Code != common.ErrorCodeTooLarge {
		t.Fatalf("期望 too_large，实际为 %v", err)
	}

	// 声明大小偏小，但实际内容超限
	in = uploadInput(data, "big.png")
	in.Size = 10
	_, err = env.svc.Upload(context.Background(), in)
	if se, ok := common.AsServiceError(err); !ok || se.Code != common.ErrorCodeTooLarge {
		t.Fatalf("期望 too_large，实际为 %v", err)
	}
	if names := listFiles(t, env.files); len(names) != 0 {
		t.Fatalf("期望未留下文件，实际为 %v", names)
	}
}

// 测试内容：验证缩略图生成失败时回滚：返回 ThumbnailError，不留下记录与文件。
func TestUpload_ThumbnailFailureRollsBack(t *testing.T) {
	env := setupService(t)
	env.resizer.Err = errors.New("vips down")

	_, err := env.svc.Upload(context.Background(), uploadInput(testutils.PNGBytes(t, 10, 10), "a.png"))
	if _, ok := common.AsThumbnailError(err); !ok {
		t.Fatalf("期望 ThumbnailError，实际为 %v", err)
	}
	page, err := env.svc.GetAll(context.Background(), PageRequest{Page: 1, Limit: 10})
	if err != nil || page.Pagination.Total != 0 {
		t.Fatalf("期望记录被回滚，total=%d err=%v", page.Pagination.Total, err)
	}
	if names := listFiles(t, env.files); len(names) != 0 {
		t.Fatalf("期望文件被清理，实际为 %v", names)
	}
}

// 测试内容：验证 thumbnail.required=false 时缩略图失败不影响上传。
func TestUpload_ThumbnailOptional(t *testing.T) {
	reloadConfig(t, map[string]string{"thumbnail.required": "false"})
	env := setupService(t)
	env.resizer.Err = errors.New("vips down")

	res, err := env.svc.Upload(context.Background(), uploadInput(testutils.PNGBytes(t, 10, 10), "a.png"))
	if err != nil {
		t.Fatalf("期望上传成功，实际错误: %v", err)
	}
	if res.Thumbnail != nil {
		t.Fatalf("期望无缩略图")
	}
	if _, found, _ := env.svc.GetByID(context.Background(), res.Picture.ID); !found {
		t.Fatalf("期望图片记录保留")
	}
}

// 测试内容：验证未提供文件时返回校验错误。
func TestUpload_NoFile(t *testing.T) {
	env := setupService(t)
	_, err := env.svc.Upload(context.Background(), UploadInput{OriginalFilename: "a.png"})
	if se, ok := common.AsServiceError(err); !ok || se.Code != common.ErrorCodeValidation {
		t.Fatalf("期望校验错误，实际为 %v", err)
	}
}
