package service

import (
	"context"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
	"github.com/jwcloud365/SimpleWebDBApp/internal/model"
	"github.com/jwcloud365/SimpleWebDBApp/internal/repository"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/testutils"
	"github.com/jwcloud365/SimpleWebDBApp/internal/thumbnail"
)

type testEnv struct {
	conn    *db.Conn
	repos   *repository.Repositories
	files   *storage.LocalStore
	resizer *testutils.FakeResizer
	svc     *PictureService
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	conn := testutils.SetupDB(t)
	repos := repository.NewRepositories(repository.NewPictureRepository(conn))
	files := storage.NewLocalStore(t.TempDir())
	resizer := &testutils.FakeResizer{}
	gen := thumbnail.NewGenerator(resizer, config.Get().Thumbnail)
	return &testEnv{
		conn:    conn,
		repos:   repos,
		files:   files,
		resizer: resizer,
		svc:     NewPictureService(repos, files, gen),
	}
}

// reloadConfig 通过环境变量修改配置。重载清理先注册，会在环境变量恢复之后执行。
func reloadConfig(t *testing.T, kv map[string]string) {
	t.Helper()
	t.Cleanup(func() {
		config.InitConfigWithoutWatch(testConfigDir)
	})
	testutils.SetConfigEnv(t, kv)
	config.InitConfigWithoutWatch(testConfigDir)
}

func createPicture(t *testing.T, svc *PictureService, filename string) *model.Picture {
	t.Helper()
	p, err := svc.Create(context.Background(), model.NewPictureInput{
		Filename:         filename,
		OriginalFilename: "orig-" + filename,
		Mimetype:         "image/png",
		Size:             42,
	})
	if err != nil {
		t.Fatalf("创建图片失败: %v", err)
	}
	return p
}

func strPtr(s string) *string {
	return &s
}
