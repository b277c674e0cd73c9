package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"acoustid/cache"
	"acoustid/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写和脚本操作。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("开始测试Redis连接...")
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		// 连接Redis
		if err := db.ConnectRedis(cfg); err != nil {
			return err
		}
		defer func() {
			if err := db.CloseRedis(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// 测试Redis基本操作
		if err := db.CheckRedis(ctx, db.RedisClient); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		avg, err := cache.NewLookupStats(db.RedisClient).AverageLookupTime(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("平均查询耗时: %s\n", avg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
