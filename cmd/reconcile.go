package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"
	"github.com/jwcloud365/SimpleWebDBApp/internal/service"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "对账数据库记录与上传目录",
	Long: `修正旧命名（thumb_）的缩略图文件，报告文件缺失的记录，
并清理超过宽限期且未被任何记录引用的文件。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, cleanup, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer cleanup()

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		grace, _ := cmd.Flags().GetDuration("grace")
		if !cmd.Flags().Changed("grace") {
			grace = configuredGrace()
		}

		report, err := app.Reconciler.Run(cmd.Context(), service.ReconcileOptions{DryRun: dryRun, Grace: grace})
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report, dryRun)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().Bool("dry-run", false, "只报告，不修改文件和数据库")
	reconcileCmd.Flags().Duration("grace", 0, "孤立文件的最短保留时间（默认取 reconcile.grace_minutes）")
	rootCmd.AddCommand(reconcileCmd)
}

func configuredGrace() time.Duration {
	return time.Duration(config.Get().Reconcile.GraceMinutes) * time.Minute
}

func printReport(w io.Writer, report *service.ReconcileReport, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "🔍 试运行模式，未做任何修改")
	}
	fmt.Fprintf(w, "重命名缩略图: %d\n", len(report.Renamed))
	for _, name := range report.Renamed {
		fmt.Fprintf(w, "  - %s\n", name)
	}
	fmt.Fprintf(w, "文件缺失的图片: %d\n", len(report.MissingPictures))
	for _, ref := range report.MissingPictures {
		fmt.Fprintf(w, "  - #%d %s\n", ref.ID, ref.Filename)
	}
	fmt.Fprintf(w, "文件缺失的缩略图: %d\n", len(report.MissingThumbnails))
	for _, ref := range report.MissingThumbnails {
		fmt.Fprintf(w, "  - #%d (图片 #%d) %s\n", ref.ID, ref.PictureID, ref.Filename)
	}
	fmt.Fprintf(w, "已清理孤立文件: %d\n", len(report.OrphansRemoved))
	for _, name := range report.OrphansRemoved {
		fmt.Fprintf(w, "  - %s\n", name)
	}
	fmt.Fprintf(w, "保留的孤立文件: %d\n", len(report.OrphansKept))
	for _, name := range report.OrphansKept {
		fmt.Fprintf(w, "  - %s\n", name)
	}
}

// runScheduledReconcile 供定时任务调用，结果只写日志
func runScheduledReconcile(r *service.Reconciler) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := r.Run(ctx, service.ReconcileOptions{Grace: configuredGrace()})
	if err != nil {
		log.Printf("❌ 定时对账失败: %v", err)
		return
	}
	log.Printf("✅ 定时对账完成: 重命名 %d，缺失图片 %d，缺失缩略图 %d，清理孤立文件 %d",
		len(report.Renamed), len(report.MissingPictures), len(report.MissingThumbnails), len(report.OrphansRemoved))
}
