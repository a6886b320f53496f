package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vault-bridge/pkg/requestid"
)

var requestIDCmd = &cobra.Command{
	Use:   "request-id",
	Short: "计算签名请求 ID",
	Long:  `按 keccak256(sender || tx || slip44 || key_version || path || algo || dest || params) 计算请求 ID，与协议登记时的计算方式一致。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sender, _ := cmd.Flags().GetString("sender")
		txHex, _ := cmd.Flags().GetString("tx")
		slip44, _ := cmd.Flags().GetUint32("slip44")
		keyVersion, _ := cmd.Flags().GetUint32("key-version")
		path, _ := cmd.Flags().GetString("path")
		algo, _ := cmd.Flags().GetString("algo")
		dest, _ := cmd.Flags().GetString("dest")
		params, _ := cmd.Flags().GetString("params")

		tx, err := hex.DecodeString(strings.TrimPrefix(txHex, "0x"))
		if err != nil {
			return fmt.Errorf("解析交易字节失败: %w", err)
		}
		id := requestid.Derive(sender, tx, slip44, keyVersion, path, algo, dest, params)
		fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
		return nil
	},
}

func init() {
	f := requestIDCmd.Flags()
	f.String("sender", "", "请求方 (base58 PDA)")
	f.String("tx", "", "未签名交易的规范字节 (hex)")
	f.Uint32("slip44", requestid.SLIP44Ethereum, "目标链 SLIP-44 编号")
	f.Uint32("key-version", requestid.DefaultKeyVersion, "密钥版本")
	f.String("path", "", "派生路径")
	f.String("algo", requestid.AlgoECDSA, "签名算法")
	f.String("dest", requestid.DestEthereum, "目标链")
	f.String("params", requestid.NoParams, "附加参数")
	_ = requestIDCmd.MarkFlagRequired("sender")
	_ = requestIDCmd.MarkFlagRequired("tx")
	_ = requestIDCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(requestIDCmd)
}
