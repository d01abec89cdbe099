package di

import (
	"fmt"

	"github.com/jwcloud365/SimpleWebDBApp/internal/router"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
	"github.com/jwcloud365/SimpleWebDBApp/internal/storage"

	"github.com/redis/go-redis/v9"
)

type Application struct {
	Router     *router.Router
	Pictures   *service.PictureService
	Reconciler *service.Reconciler
	Backups    *service.BackupService
	Files      *storage.LocalStore
	Redis      *redis.Client
}

func NewApplication(
	r *router.Router,
	pictures *service.PictureService,
	reconciler *service.Reconciler,
	backups *service.BackupService,
	files *storage.LocalStore,
	redisClient *redis.Client,
) *Application {
	return &Application{
		Router:     r,
		Pictures:   pictures,
		Reconciler: reconciler,
		Backups:    backups,
		Files:      files,
		Redis:      redisClient,
	}
}

// Close 释放应用持有的外部连接，数据库连接由调用方关闭
func (a *Application) Close() error {
	if a.Redis == nil {
		return nil
	}
	if err := a.Redis.Close(); err != nil {
		return fmt.Errorf("close redis failed: %w", err)
	}
	return nil
}
