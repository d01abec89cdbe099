package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "SQLite 数据库备份",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "生成数据库快照",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, cleanup, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer cleanup()

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		info, err := app.Backups.Create(cmd.Context(), name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ 备份已生成: %s (%d 字节)\n", info.Path, info.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出已有备份（最新的在前）",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, cleanup, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer cleanup()

		backups, err := app.Backups.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(backups) == 0 {
			fmt.Fprintf(out, "%s 下没有备份\n", app.Backups.Dir())
			return nil
		}
		for _, b := range backups {
			fmt.Fprintf(out, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "以只读方式校验备份完整性",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, cleanup, err := bootstrap(false)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := app.Backups.Verify(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ 备份完整: %s (%d 字节)\n", res.Path, res.Size)
		for _, t := range res.Tables {
			fmt.Fprintf(out, "%s\t%d\n", t.Table, t.Records)
		}
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupVerifyCmd)
	rootCmd.AddCommand(backupCmd)
}
