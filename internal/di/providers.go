package di

import (
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"
	"github.com/jwcloud365/SimpleWebDBApp/internal/thumbnail"

	"github.com/redis/go-redis/v9"
)

// 以下 provider 从配置快照中取出各组件所需的部分

func provideLocalStore(cfg *config.Config) *storage.LocalStore {
	return storage.NewLocalStore(cfg.Upload.Path)
}

func provideThumbnailConfig(cfg *config.Config) config.ThumbnailConfig {
	return cfg.Thumbnail
}

func provideBackupConfig(cfg *config.Config) config.BackupConfig {
	return cfg.Backup
}

func provideResizer() thumbnail.Resizer {
	return thumbnail.BimgResizer{}
}

func provideRedisClient(cfg *config.Config) *redis.Client {
	return service.NewRedisClient(cfg.Redis)
}
