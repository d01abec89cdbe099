package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/consts"
	"github.com/jwcloud365/SimpleWebDBApp/internal/di"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, cleanup, err := bootstrap(true)
		if err != nil {
			return err
		}
		defer cleanup()

		uploadPath := app.Files.Dir()
		if err := checkSecurePath(uploadPath); err != nil {
			return err
		}
		if err := app.Files.EnsureDir(); err != nil {
			return fmt.Errorf("无法创建上传目录: %w", err)
		}

		r := newEngine(app)

		// 导出模式
		if export, _ := cmd.Flags().GetString("export"); export != "" {
			if err := exportRoutes(r, export); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ 路由已成功导出到 %s\n", export)
			return nil
		}

		scheduler, err := startReconcileSchedule(app)
		if err != nil {
			return err
		}
		if scheduler != nil {
			defer scheduler.Stop()
		}

		printWelcomeMessage()

		// 停机配置
		srv := &http.Server{
			Addr:    ":" + config.Get().Server.Port,
			Handler: r,
		}

		errCh := make(chan error, 1)
		go func() {
			// 服务连接
			log.Printf("🚀 服务启动成功，运行在 :%s\n", config.Get().Server.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// 等待中断信号关闭服务器（设置 5 秒的超时时间）
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			return fmt.Errorf("服务启动失败: %w", err)
		}
		log.Println("🛑 正在关闭服务...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("服务强制关闭: %w", err)
		}
		log.Println("✅ 服务已退出")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("export", "", "导出路由到指定 JSON 文件并退出")
	rootCmd.AddCommand(serveCmd)
}

func newEngine(app *di.Application) *gin.Engine {
	gin.SetMode(config.Get().Server.Mode)

	r := gin.Default()
	app.Router.Init(r)
	return r
}

// startReconcileSchedule 按 reconcile.schedule 启动定时对账，未配置时返回 nil
func startReconcileSchedule(app *di.Application) (*cron.Cron, error) {
	schedule := strings.TrimSpace(config.Get().Reconcile.Schedule)
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { runScheduledReconcile(app.Reconciler) }); err != nil {
		return nil, fmt.Errorf("无效的对账计划 %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("✅ 已启用定时对账: %s", schedule)
	return c, nil
}

func printWelcomeMessage() {
	cfg := config.Get()
	dbType := cfg.Database.Type
	if dbType == "" {
		dbType = "sqlite"
	}

	fmt.Println()
	fmt.Println(" ┌───────────────────────────────────────────────────────┐")
	fmt.Printf(" │   🚀  %s\n", consts.ApplicationName)
	fmt.Println(" ├───────────────────────────────────────────────────────┤")
	fmt.Printf(" │   📦  版本     : %s\n", consts.ApplicationVersion)
	fmt.Printf(" │   🗄️  数据库   : %s\n", dbType)
	fmt.Printf(" │   🔥  服务端口 : %s\n", cfg.Server.Port)
	fmt.Println(" └───────────────────────────────────────────────────────┘")
	fmt.Println()
}

func exportRoutes(r *gin.Engine, filename string) error {
	// 简单的结构体，只留关键信息
	type RouteInfo struct {
		Method  string `json:"method"`
		Path    string `json:"path"`
		Handler string `json:"handler"`
	}

	exportList := make([]RouteInfo, 0, len(r.Routes()))
	for _, route := range r.Routes() {
		exportList = append(exportList, RouteInfo{
			Method:  route.Method,
			Path:    route.Path,
			Handler: route.Handler,
		})
	}

	data, err := json.MarshalIndent(exportList, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// checkSecurePath 上传目录会被公开访问，不能是项目根目录，
// 位于项目目录内时必须在允许的子目录下
func checkSecurePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("路径解析失败: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("无法获取当前工作目录: %w", err)
	}

	// 检查是否直接指向项目根目录
	if absPath == cwd {
		return fmt.Errorf("安全配置错误: 上传目录 '%s' 不能设置为项目根目录", path)
	}

	rel, err := filepath.Rel(cwd, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}

	// 只有位于这些目录下的路径才被允许作为静态资源目录
	allowedDirs := []string{
		"uploads",
		"public",
		"static",
		"tmp",
	}

	firstComponent := strings.Split(filepath.ToSlash(rel), "/")[0]
	for _, allowed := range allowedDirs {
		if strings.EqualFold(firstComponent, allowed) {
			return nil
		}
	}
	return fmt.Errorf("安全配置错误: 上传目录 '%s' 必须位于项目根目录下的安全子目录中 (如 %v)", path, allowedDirs)
}
