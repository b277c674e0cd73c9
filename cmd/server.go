package cmd

import (
	"acoustid/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 AcoustID 服务器",
	Long:  `启动 HTTP 服务器，提供 /v2/lookup、/v2/submit 和 /v2/submission_status 接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
