package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vault-bridge/internal/service"
	"vault-bridge/pkg/bip39"
	"vault-bridge/pkg/config"
)

var devSignerCmd = &cobra.Command{
	Use:   "dev-signer",
	Short: "本地开发签名者",
	Long: `输出开发签名者根私钥对应的地址，用于配置 bridge.trusted_signer_address。
助记词取自 --mnemonic 或 signer.mnemonic；--generate 生成新的助记词。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		generate, _ := cmd.Flags().GetBool("generate")
		mnemonic, _ := cmd.Flags().GetString("mnemonic")
		out := cmd.OutOrStdout()

		if generate {
			m, err := bip39.Generate(256)
			if err != nil {
				return err
			}
			mnemonic = m
			fmt.Fprintf(out, "Mnemonic: %s\n", mnemonic)
		}
		if mnemonic == "" {
			mnemonic = config.Global.Signer.Mnemonic
		}
		if mnemonic == "" {
			return fmt.Errorf("缺少助记词: 使用 --mnemonic、--generate 或配置 signer.mnemonic")
		}

		path := config.Global.Signer.DerivationPath
		key, err := service.LoadDevSignerKey(mnemonic, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signer Address [%s]: %s\n", path, service.NewDevSigner(key, nil, service.DevSignerTopics{}).Address())
		return nil
	},
}

func init() {
	devSignerCmd.Flags().String("mnemonic", "", "BIP-39 助记词")
	devSignerCmd.Flags().Bool("generate", false, "生成新的助记词")
	rootCmd.AddCommand(devSignerCmd)
}
