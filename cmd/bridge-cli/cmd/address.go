package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/derivation"
)

func deriversFromConfig() (*derivation.Deriver, *authority.Deriver, error) {
	program, err := authority.ParsePublicKey(config.Global.Bridge.ProgramID)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge.program_id: %w", err)
	}
	base, err := derivation.ParseBasePublicKey(config.Global.Bridge.MPCBasePublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge.mpc_base_public_key: %w", err)
	}
	authorities := authority.NewDeriver(program)
	return derivation.NewDeriver(base, authorities), authorities, nil
}

var depositAddressCmd = &cobra.Command{
	Use:   "deposit-address",
	Short: "派生 MPC 控制的以太坊地址",
	Long:  `指定 --user 时输出该用户的专属充值地址，否则输出全局金库地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userText, _ := cmd.Flags().GetString("user")
		deriver, _, err := deriversFromConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if userText == "" {
			addr, err := deriver.VaultAddress()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Vault Address: %s\n", addr)
			return nil
		}
		user, err := authority.ParsePublicKey(userText)
		if err != nil {
			return err
		}
		addr, err := deriver.DepositAddress(user)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deposit Address [%s]: %s\n", user, addr)
		return nil
	},
}

var pdaCmd = &cobra.Command{
	Use:   "pda",
	Short: "计算程序派生地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		userText, _ := cmd.Flags().GetString("user")
		assetText, _ := cmd.Flags().GetString("asset")
		_, authorities, err := deriversFromConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		global, err := authorities.GlobalVaultAuthority()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "global_vault_authority: %s\n", global)
		if userText == "" {
			return nil
		}

		user, err := authority.ParsePublicKey(userText)
		if err != nil {
			return err
		}
		vault, err := authorities.VaultAuthority(user)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "vault_authority:        %s\n", vault)
		if assetText != "" {
			if !common.IsHexAddress(assetText) {
				return fmt.Errorf("invalid asset address %q", assetText)
			}
			balance, err := authorities.UserBalance(user, common.HexToAddress(assetText))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "user_balance:           %s\n", balance)
		}
		return nil
	},
}

func init() {
	depositAddressCmd.Flags().String("user", "", "用户公钥 (base58)")
	pdaCmd.Flags().String("user", "", "用户公钥 (base58)")
	pdaCmd.Flags().String("asset", "", "ERC20 合约地址")
	rootCmd.AddCommand(depositAddressCmd, pdaCmd)
}
