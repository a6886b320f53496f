package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/requestid"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRequestIDCommand(t *testing.T) {
	sender := "8qJSyQprMC57TWKaYEmetUR3UUiTP2M3hXW6D2evU9Tt"
	out := run(t, "request-id", "--sender", sender, "--tx", "0x02c0", "--path", "root")

	want := requestid.Derive(sender, []byte{0x02, 0xc0}, requestid.SLIP44Ethereum, requestid.DefaultKeyVersion,
		"root", requestid.AlgoECDSA, requestid.DestEthereum, requestid.NoParams)
	assert.Equal(t, want.Hex(), strings.TrimSpace(out))
}

func TestPDACommand(t *testing.T) {
	var user authority.PublicKey
	user[0] = 9
	out := run(t, "pda", "--user", user.String(), "--asset", "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")

	assert.Contains(t, out, "global_vault_authority: ")
	assert.Contains(t, out, "vault_authority:")
	assert.Contains(t, out, "user_balance:")
}

func TestDepositAddressCommand(t *testing.T) {
	out := run(t, "deposit-address")
	assert.Contains(t, out, "Vault Address: 0x")
}

func TestDevSignerCommand(t *testing.T) {
	out := run(t, "dev-signer", "--mnemonic", "test test test test test test test test test test test junk")
	assert.Contains(t, out, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}
