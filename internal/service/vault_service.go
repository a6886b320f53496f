package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"vault-bridge/internal/event"
	"vault-bridge/internal/store"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/borsh"
	"vault-bridge/pkg/crypto_util"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/requestid"
)

// signDiscriminator 签名程序 sign 指令的前 8 字节
var signDiscriminator = func() [8]byte {
	h := crypto_util.SHA256([]byte("global:sign"))
	var d [8]byte
	copy(d[:], h[:8])
	return d
}()

// SignInstructionData discriminator || payload || key_version || path || algo || dest || params
func SignInstructionData(payload common.Hash, p requestid.SigningParams) []byte {
	w := &borsh.Writer{}
	return w.WriteFixed(signDiscriminator[:]).
		WriteFixed(payload[:]).
		WriteU32(p.KeyVersion).
		WriteString(p.Path).
		WriteString(p.Algo).
		WriteString(p.Dest).
		WriteString(p.Params).
		Bytes()
}

// VaultSignatureInput 对 vault 合约调用的签名请求
type VaultSignatureInput struct {
	Authority authority.PublicKey
	Tx        evmtx.VaultTransaction
}

// VaultService 为 IVault deposit/withdraw 调用请求签名, 不登记状态
type VaultService struct {
	store       store.Store
	authorities *authority.Deriver
	limits      requestid.Limits
	minGasLimit uint64
	topic       string
}

func NewVaultService(cfg BridgeConfig, st store.Store, topic string) *VaultService {
	limits := cfg.Limits
	if limits == (requestid.Limits{}) {
		limits = requestid.DefaultLimits
	}
	return &VaultService{
		store:       st,
		authorities: authority.NewDeriver(cfg.ProgramID),
		limits:      limits,
		minGasLimit: cfg.MinGasLimit,
		topic:       topic,
	}
}

// SigningHash vault 调用交易的签名哈希
func (s *VaultService) SigningHash(op evmtx.Operation, vt evmtx.VaultTransaction) (common.Hash, error) {
	if err := vt.Params.Validate(s.minGasLimit); err != nil {
		return common.Hash{}, err
	}
	if vt.To == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: vault", errno.ErrInvalidAddress)
	}
	unsigned, err := evmtx.BuildVault(op, vt)
	if err != nil {
		return common.Hash{}, err
	}
	return unsigned.SigningHash(), nil
}

// RequestVaultSignature 校验后发布 SignatureRequested 事件
func (s *VaultService) RequestVaultSignature(ctx context.Context, op evmtx.Operation, in VaultSignatureInput, signing requestid.SigningParams) (*event.SignatureRequested, error) {
	if in.Authority.IsZero() {
		return nil, errno.ErrInvalidRequester
	}
	if err := signing.Validate(s.limits); err != nil {
		return nil, err
	}
	hash, err := s.SigningHash(op, in.Tx)
	if err != nil {
		return nil, err
	}
	requester, err := s.authorities.VaultAuthority(in.Authority)
	if err != nil {
		return nil, err
	}

	ev := &event.SignatureRequested{
		Operation:       op.String(),
		Requester:       requester.String(),
		Payload:         hash.Hex(),
		KeyVersion:      signing.KeyVersion,
		Path:            signing.Path,
		Algo:            signing.Algo,
		Dest:            signing.Dest,
		Params:          signing.Params,
		InstructionData: SignInstructionData(hash, signing),
	}
	if err := s.store.Atomic(ctx, func(tx store.Tx) error {
		return tx.Emit(s.topic, hash.Hex(), ev)
	}); err != nil {
		return nil, err
	}

	logger.Info("vault signature requested",
		zap.String("operation", ev.Operation),
		zap.String("requester", ev.Requester),
		zap.String("payload", ev.Payload),
	)
	return ev, nil
}
