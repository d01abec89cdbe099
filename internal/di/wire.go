//go:build wireinject
// +build wireinject

package di

import (
	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
	"github.com/jwcloud365/SimpleWebDBApp/internal/handler"
	"github.com/jwcloud365/SimpleWebDBApp/internal/repository"
	"github.com/jwcloud365/SimpleWebDBApp/internal/router"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"
	"github.com/jwcloud365/SimpleWebDBApp/internal/thumbnail"

	"github.com/google/wire"
)

func InitializeApplication(conn *db.Conn, cfg *config.Config) (*Application, error) {
	wire.Build(
		repository.NewPictureRepository,
		repository.NewRepositories,
		provideLocalStore,
		provideThumbnailConfig,
		provideBackupConfig,
		provideResizer,
		provideRedisClient,
		thumbnail.NewGenerator,
		service.NewPictureService,
		service.NewReconciler,
		service.NewBackupService,
		handler.NewHandler,
		router.NewRouter,
		NewApplication,
	)
	return nil, nil
}
