package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/repository"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/testutils"
	"github.com/jwcloud365/SimpleWebDBApp/internal/thumbnail"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	svc    *service.PictureService
	files  *storage.LocalStore
	router *gin.Engine
}

func setupHandler(t *testing.T) *testEnv {
	t.Helper()
	conn := testutils.SetupDB(t)
	repos := repository.NewRepositories(repository.NewPictureRepository(conn))
	files := storage.NewLocalStore(t.TempDir())
	svc := service.NewPictureService(repos, files, thumbnail.NewGenerator(&testutils.FakeResizer{}, config.Get().Thumbnail))
	h := NewHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/ping", h.Ping)
	api.POST("/pictures", h.UploadPicture)
	api.GET("/pictures", h.ListPictures)
	api.GET("/pictures/:id", h.GetPicture)
	api.PUT("/pictures/:id", h.UpdatePictureDescription)
	api.DELETE("/pictures/:id", h.DeletePicture)
	api.GET("/pictures/:id/thumbnail", h.GetPictureThumbnail)

	return &testEnv{svc: svc, files: files, router: r}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// multipartUpload 构造上传请求，description 为 nil 时不附带描述字段
func multipartUpload(t *testing.T, field, filename string, data []byte, description *string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("创建表单文件失败: %v", err)
		}
		_, _ = part.Write(data)
	}
	if description != nil {
		_ = w.WriteField("description", *description)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pictures", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func seedPicture(t *testing.T, svc *service.PictureService, filename string) *model.Picture {
	t.Helper()
	p, err := svc.Create(context.Background(), model.NewPictureInput{
		Filename:         filename,
		OriginalFilename: "orig-" + filename,
		Mimetype:         "image/png",
		Size:             10,
	})
	if err != nil {
		t.Fatalf("创建图片失败: %v", err)
	}
	return p
}

func strPtr(s string) *string {
	return &s
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
