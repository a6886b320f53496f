package event

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/sigverify"
)

// 签名格式 (explorer / callback 的序列化方式)
const (
	FormatBorsh   uint8 = 0
	FormatAbiJSON uint8 = 1
)

// SignRespondRequested 请求签名服务对交易签名并回报执行结果
// Topic: bridge.sign_respond
type SignRespondRequested struct {
	RequestID            string `json:"request_id"`
	Operation            string `json:"operation"` // deposit / withdraw
	Sender               string `json:"sender"`    // 签名身份 (PDA, base58)
	PayloadHash          string `json:"payload_hash"`
	SerializedTx         []byte `json:"serialized_tx"`
	SLIP44ChainID        uint32 `json:"slip44_chain_id"`
	KeyVersion           uint32 `json:"key_version"`
	Path                 string `json:"path"`
	Algo                 string `json:"algo"`
	Dest                 string `json:"dest"`
	Params               string `json:"params"`
	ExplorerFormat       uint8  `json:"explorer_deserialization_format"`
	ExplorerSchema       string `json:"explorer_deserialization_schema"`
	CallbackFormat       uint8  `json:"callback_serialization_format"`
	CallbackSchema       string `json:"callback_serialization_schema"`
	ResponseEncodingHint string `json:"response_encoding_hint"`
}

// SignatureRequested 金库交易签名请求
// InstructionData 为签名程序期望的完整指令字节 (discriminator + borsh)
type SignatureRequested struct {
	Operation       string `json:"operation"`
	Requester       string `json:"requester"`
	Payload         string `json:"payload"` // 交易签名哈希 (0x hex)
	KeyVersion      uint32 `json:"key_version"`
	Path            string `json:"path"`
	Algo            string `json:"algo"`
	Dest            string `json:"dest"`
	Params          string `json:"params"`
	InstructionData []byte `json:"instruction_data"`
}

// DepositClaimed 充值入账
type DepositClaimed struct {
	RequestID string    `json:"request_id"`
	Requester string    `json:"requester"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Balance   string    `json:"balance"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// DepositFailed 充值在目标链执行失败, 无需退款 (从未扣款), 仅通知请求方
type DepositFailed struct {
	RequestID string    `json:"request_id"`
	Requester string    `json:"requester"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	FailedAt  time.Time `json:"failed_at"`
}

// WithdrawalCompleted 提现结束; Success=false 时 Refunded=true
type WithdrawalCompleted struct {
	RequestID   string    `json:"request_id"`
	Requester   string    `json:"requester"`
	Asset       string    `json:"asset"`
	Amount      string    `json:"amount"`
	Recipient   string    `json:"recipient"`
	Success     bool      `json:"success"`
	Refunded    bool      `json:"refunded"`
	Balance     string    `json:"balance"`
	CompletedAt time.Time `json:"completed_at"`
}

// WithdrawalExpired 超时未完成的提现已退款关闭
type WithdrawalExpired struct {
	RequestID string    `json:"request_id"`
	Requester string    `json:"requester"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	Balance   string    `json:"balance"`
	ExpiredAt time.Time `json:"expired_at"`
}

// DepositExpired 超时未认领的充值已关闭
type DepositExpired struct {
	RequestID string    `json:"request_id"`
	Requester string    `json:"requester"`
	Asset     string    `json:"asset"`
	Amount    string    `json:"amount"`
	ExpiredAt time.Time `json:"expired_at"`
}

// RecoverableSignature 签名服务返回的签名 (hex 编码)
type RecoverableSignature struct {
	BigRX      string `json:"big_r_x"`
	S          string `json:"s"`
	RecoveryID uint8  `json:"recovery_id"`
}

func NewRecoverableSignature(sig sigverify.Signature) RecoverableSignature {
	return RecoverableSignature{
		BigRX:      "0x" + hex.EncodeToString(sig.BigRX[:]),
		S:          "0x" + hex.EncodeToString(sig.S[:]),
		RecoveryID: sig.RecoveryID,
	}
}

// Decode 解析为 sigverify.Signature, r/s 必须是 32 字节
func (r RecoverableSignature) Decode() (sigverify.Signature, error) {
	var sig sigverify.Signature
	if err := decodeWord(r.BigRX, sig.BigRX[:]); err != nil {
		return sig, fmt.Errorf("%w: big_r_x: %v", errno.ErrInvalidSignature, err)
	}
	if err := decodeWord(r.S, sig.S[:]); err != nil {
		return sig, fmt.Errorf("%w: s: %v", errno.ErrInvalidSignature, err)
	}
	sig.RecoveryID = r.RecoveryID
	return sig, nil
}

func decodeWord(s string, dst []byte) error {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("want %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// SignatureResponded 签名服务返回交易签名
// Topic: bridge.signature_responded
type SignatureResponded struct {
	RequestID string               `json:"request_id"`
	Signature RecoverableSignature `json:"signature"`
}

// ReadResponded 签名服务读取目标链执行结果后回报
// Topic: bridge.read_responded
type ReadResponded struct {
	RequestID        string               `json:"request_id"`
	SerializedOutput []byte               `json:"serialized_output"`
	Signature        RecoverableSignature `json:"signature"`
}
