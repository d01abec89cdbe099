package cmd

import (
	"fmt"

	"github.com/jwcloud365/SimpleWebDBApp/internal/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或同步数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 打开连接时即完成迁移
		_, _, cleanup, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer cleanup()

		dbType := config.Get().Database.Type
		if dbType == "" {
			dbType = "sqlite"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ 数据库(%s)表结构已同步\n", dbType)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
