package evmtx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"vault-bridge/pkg/errno"
)

const vaultABIJSON = `[
	{"type":"function","name":"deposit","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var vaultABI abi.ABI

func init() {
	var err error
	vaultABI, err = abi.JSON(strings.NewReader(vaultABIJSON))
	if err != nil {
		panic(fmt.Sprintf("evmtx: parse vault abi: %v", err))
	}
}

// VaultTransaction 对 IVault 合约的一次 deposit/withdraw 调用
type VaultTransaction struct {
	To        common.Address `json:"to_address"` // vault 合约地址
	Recipient common.Address `json:"recipient_address"`
	Amount    *big.Int       `json:"amount"`
	Params    TxParams       `json:"params"`
}

// VaultCall 编码 IVault.deposit / IVault.withdraw 调用数据
func VaultCall(op Operation, recipient common.Address, amount *big.Int) ([]byte, error) {
	var method string
	switch op {
	case OperationDeposit:
		method = "deposit"
	case OperationWithdraw:
		method = "withdraw"
	default:
		return nil, fmt.Errorf("%w: %s", errno.ErrUnknownOperation, op)
	}
	data, err := vaultABI.Pack(method, recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", errno.ErrSerialization, method, err)
	}
	return data, nil
}

// BuildVault 构造 vault 调用交易
func BuildVault(op Operation, vt VaultTransaction) (Unsigned, error) {
	if err := CheckAmount("amount", vt.Amount, false); err != nil {
		return Unsigned{}, err
	}
	data, err := VaultCall(op, vt.Recipient, vt.Amount)
	if err != nil {
		return Unsigned{}, err
	}
	return Build(vt.To, data, vt.Params)
}
