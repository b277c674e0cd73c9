package cmd

import (
	"fmt"

	"acoustid/db"
	"acoustid/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrate(db.GormDB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("[Migrate] database schema is up to date", logger.String("database", cfg.DBName))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
