package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vault-bridge/pkg/config"
)

var cfgFile string

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "bridge-cli",
	Short: "跨链金库桥命令行工具",
	Long: `vault-bridge 的离线辅助工具。
计算请求 ID、派生 MPC 控制的以太坊地址与程序派生地址 (PDA)，以及管理本地开发签名者。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Load(cfgFile)
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认 ./config.yaml 或 ./config/config.yaml)")
}
