package cmd

import (
	"fmt"
	"log"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/consts"
	"github.com/jwcloud365/SimpleWebDBApp/internal/db"
	"github.com/jwcloud365/SimpleWebDBApp/internal/di"

	"github.com/spf13/cobra"
)

var (
	// 配置文件目录，目录下的 config.yaml 与 .env 会被加载
	configDir string

	rootCmd = &cobra.Command{
		Use:   "picture-db",
		Short: consts.ApplicationName,
		Long: `Simple Picture Database 是一个图片管理服务：上传图片并生成缩略图，
分页浏览、修改描述、删除图片。子命令提供数据库迁移、文件对账与备份。`,
		Version:       consts.ApplicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "config", "配置文件目录")
}

// Execute executes the root command.
func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		log.Printf("❌ %v", err)
		return err
	}
	return nil
}

// bootstrap 加载配置、打开数据库并组装应用。watch 为 true 时监听配置文件变更。
// 返回的 cleanup 负责关闭 Redis 与数据库连接。
func bootstrap(watch bool) (*di.Application, *db.Conn, func(), error) {
	if watch {
		config.InitConfig(configDir)
	} else {
		config.InitConfigWithoutWatch(configDir)
	}
	cfg := config.Get()

	conn := db.New(cfg.Database)
	if _, err := conn.Open(); err != nil {
		return nil, nil, nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	app, err := di.InitializeApplication(conn, &cfg)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, fmt.Errorf("初始化应用失败: %w", err)
	}

	cleanup := func() {
		if err := app.Close(); err != nil {
			log.Printf("⚠️ %v", err)
		}
		if err := conn.Close(); err != nil {
			log.Printf("⚠️ 关闭数据库失败: %v", err)
		}
	}
	return app, conn, cleanup, nil
}
