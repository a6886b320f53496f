package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"vault-bridge/internal/event"
	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/internal/store"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/borsh"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/derivation"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/monitor"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

// ErrorResponsePrefix 签名服务显式错误响应的前缀, 其后内容不解析
var ErrorResponsePrefix = []byte{0xDE, 0xAD, 0xBE, 0xEF}

const (
	// transfer() 返回值的 ABI 描述, 供签名服务解析目标链执行结果
	explorerSchema = `[{"name":"","type":"bool"}]`
	// 回调结果 borsh 编码为单个 bool
	callbackSchema = `"bool"`

	reclaimBatchSize = 100
)

const (
	flowInitiateDeposit  = "initiate_deposit"
	flowClaimDeposit     = "claim_deposit"
	flowInitiateWithdraw = "initiate_withdraw"
	flowCompleteWithdraw = "complete_withdraw"

	kindDeposit  = "deposit"
	kindWithdraw = "withdraw"
)

// BridgeConfig 协议构造参数
type BridgeConfig struct {
	TrustedSigner     string
	MinGasLimit       uint64
	DepositRecipient  common.Address
	ProgramID         authority.PublicKey
	Limits            requestid.Limits
	PendingTTL        time.Duration // 0 表示不过期
	SignRespondTopic  string
	NotificationTopic string
	Clock             func() time.Time
}

// NewBridgeConfig 由全局配置生成协议参数
func NewBridgeConfig(c config.BridgeConfig) (BridgeConfig, error) {
	program, err := authority.ParsePublicKey(c.ProgramID)
	if err != nil {
		return BridgeConfig{}, fmt.Errorf("bridge.program_id: %w", err)
	}
	if !common.IsHexAddress(c.DepositRecipient) {
		return BridgeConfig{}, fmt.Errorf("bridge.deposit_recipient: %w", errno.ErrInvalidAddress)
	}
	if !common.IsHexAddress(c.TrustedSignerAddress) {
		return BridgeConfig{}, fmt.Errorf("bridge.trusted_signer_address: %w", errno.ErrInvalidAddress)
	}
	return BridgeConfig{
		TrustedSigner:    c.TrustedSignerAddress,
		MinGasLimit:      c.MinGasLimit,
		DepositRecipient: common.HexToAddress(c.DepositRecipient),
		ProgramID:        program,
		Limits: requestid.Limits{
			MaxPathLen:   c.MaxPathLen,
			MaxAlgoLen:   c.MaxAlgoLen,
			MaxDestLen:   c.MaxDestLen,
			MaxParamsLen: c.MaxParamsLen,
		},
		PendingTTL:        c.PendingTTL,
		SignRespondTopic:  c.SignRespondTopic,
		NotificationTopic: c.NotificationTopic,
		Clock:             time.Now,
	}, nil
}

// InitiateDepositInput 发起充值
type InitiateDepositInput struct {
	RequestID requestid.ID
	Requester authority.PublicKey
	Asset     common.Address
	Amount    *big.Int
	Tx        evmtx.TxParams
}

// InitiateWithdrawInput 发起提现
// Authorization 为余额所有者对 authority.WithdrawMessage(RequestID) 的 ed25519 签名
type InitiateWithdrawInput struct {
	RequestID     requestid.ID
	Requester     authority.PublicKey
	Asset         common.Address
	Amount        *big.Int
	Recipient     common.Address
	Tx            evmtx.TxParams
	Authorization []byte
}

// ReclaimReport 一次过期清理的结果
type ReclaimReport struct {
	Deposits    int
	Withdrawals int
}

// BridgeService 充值/提现四阶段流程
type BridgeService struct {
	cfg         BridgeConfig
	store       store.Store
	codec       *evmtx.Codec
	verifier    *sigverify.Verifier
	authorities *authority.Deriver
	log         *zap.Logger
}

func NewBridgeService(cfg BridgeConfig, st store.Store) *BridgeService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Limits == (requestid.Limits{}) {
		cfg.Limits = requestid.DefaultLimits
	}
	return &BridgeService{
		cfg:         cfg,
		store:       st,
		codec:       evmtx.NewCodec(cfg.DepositRecipient),
		verifier:    sigverify.NewVerifier(cfg.TrustedSigner),
		authorities: authority.NewDeriver(cfg.ProgramID),
		log:         logger.With(zap.String("component", "bridge")),
	}
}

func (s *BridgeService) Config() BridgeConfig {
	return s.cfg
}

func balanceKey(owner string, asset common.Address) ledger.Key {
	return ledger.Key{Owner: owner, Asset: asset.Hex()}
}

// prepared 通过校验并计算出请求 ID 的签名请求
type prepared struct {
	sender   string
	unsigned evmtx.Unsigned
	signing  requestid.SigningParams
	amount   *uint256.Int
}

// prepare 校验参数 -> 构造交易 -> 计算请求 ID -> 与调用方提供的 ID 比对
func (s *BridgeService) prepare(id requestid.ID, sender authority.PublicKey, path string, transfer evmtx.Transfer, p evmtx.TxParams) (*prepared, error) {
	if err := p.Validate(s.cfg.MinGasLimit); err != nil {
		return nil, err
	}
	signing := requestid.EthereumSigning(path)
	if err := signing.Validate(s.cfg.Limits); err != nil {
		return nil, err
	}

	unsigned, err := s.codec.BuildTransfer(transfer, p)
	if err != nil {
		return nil, err
	}
	computed := signing.Request(sender.String(), unsigned.Bytes, requestid.SLIP44Ethereum).ID()
	if computed != id {
		return nil, fmt.Errorf("%w: computed %s, provided %s", errno.ErrInvalidRequestID, computed, id)
	}

	amount, err := ledger.FromBig(transfer.Amount)
	if err != nil {
		return nil, err
	}
	return &prepared{sender: sender.String(), unsigned: unsigned, signing: signing, amount: amount}, nil
}

func (s *BridgeService) signRespondEvent(op evmtx.Operation, id requestid.ID, p *prepared) event.SignRespondRequested {
	return event.SignRespondRequested{
		RequestID:            id.Hex(),
		Operation:            op.String(),
		Sender:               p.sender,
		PayloadHash:          p.unsigned.SigningHash().Hex(),
		SerializedTx:         p.unsigned.Bytes,
		SLIP44ChainID:        requestid.SLIP44Ethereum,
		KeyVersion:           p.signing.KeyVersion,
		Path:                 p.signing.Path,
		Algo:                 p.signing.Algo,
		Dest:                 p.signing.Dest,
		Params:               p.signing.Params,
		ExplorerFormat:       event.FormatAbiJSON,
		ExplorerSchema:       explorerSchema,
		CallbackFormat:       event.FormatBorsh,
		CallbackSchema:       callbackSchema,
		ResponseEncodingHint: "boolean",
	}
}

func validateParties(requester authority.PublicKey, asset common.Address) error {
	if requester.IsZero() {
		return errno.ErrInvalidRequester
	}
	if asset == (common.Address{}) {
		return fmt.Errorf("%w: asset", errno.ErrInvalidAddress)
	}
	return nil
}

// InitiateDeposit 登记充值请求并请求签名, 不改变余额
func (s *BridgeService) InitiateDeposit(ctx context.Context, in InitiateDepositInput) (*event.SignRespondRequested, error) {
	ev, err := s.initiateDeposit(ctx, in)
	s.observe(flowInitiateDeposit, err)
	return ev, err
}

func (s *BridgeService) initiateDeposit(ctx context.Context, in InitiateDepositInput) (*event.SignRespondRequested, error) {
	// 1. 校验参数
	if err := validateParties(in.Requester, in.Asset); err != nil {
		return nil, err
	}
	if err := evmtx.CheckAmount("amount", in.Amount, false); err != nil {
		return nil, err
	}

	// 2. 签名身份为用户专属的 vault_authority PDA, 派生路径为用户公钥
	sender, err := s.authorities.VaultAuthority(in.Requester)
	if err != nil {
		return nil, err
	}

	// 3. 构造交易, 校验请求 ID
	p, err := s.prepare(in.RequestID, sender, in.Requester.String(), evmtx.Transfer{
		Operation: evmtx.OperationDeposit,
		Asset:     in.Asset,
		Amount:    in.Amount,
	}, in.Tx)
	if err != nil {
		return nil, err
	}

	ev := s.signRespondEvent(evmtx.OperationDeposit, in.RequestID, p)

	// 4. 登记 + 签名请求在同一工作单元内
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.InsertDeposit(&model.PendingDeposit{
			RequestID: in.RequestID.Hex(),
			Requester: in.Requester.String(),
			Asset:     in.Asset.Hex(),
			Amount:    ledger.ToDecimal(p.amount),
			Path:      p.signing.Path,
		}); err != nil {
			return err
		}
		return tx.Emit(s.cfg.SignRespondTopic, in.RequestID.Hex(), ev)
	})
	if err != nil {
		return nil, err
	}

	monitor.AddPending(kindDeposit, 1)
	s.log.Info("deposit initiated",
		zap.String("request_id", in.RequestID.Hex()),
		zap.String("requester", in.Requester.String()),
		zap.String("asset", in.Asset.Hex()),
		zap.String("amount", in.Amount.String()),
	)
	return &ev, nil
}

// verify 校验签名服务对 (requestID || payload) 的签名
func (s *BridgeService) verify(flow string, id requestid.ID, payload []byte, sig sigverify.Signature) error {
	if err := s.verifier.VerifyResponse(id, payload, sig); err != nil {
		monitor.ObserveSignatureFailure(flow)
		s.log.Warn("rejected signer response", zap.String("flow", flow), zap.String("request_id", id.Hex()), zap.Error(err))
		return err
	}
	return nil
}

func decodeSuccess(payload []byte) (bool, error) {
	ok, err := borsh.DecodeBool(payload)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errno.ErrInvalidOutput, err)
	}
	return ok, nil
}

// ClaimDeposit 校验签名服务的执行结果并入账
// 结果为 false 时条目同样被消费, 返回 ErrTransferFailed, 不涉及退款
func (s *BridgeService) ClaimDeposit(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.DepositClaimed, error) {
	claimed, err := s.claimDeposit(ctx, id, payload, sig)
	s.observe(flowClaimDeposit, err)
	return claimed, err
}

func (s *BridgeService) claimDeposit(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.DepositClaimed, error) {
	var (
		claimed *event.DepositClaimed
		failed  *event.DepositFailed
	)

	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		// 1. 条目必须存在
		if _, err := tx.GetDeposit(id); err != nil {
			return err
		}

		// 2. 校验签名, 失败时条目保留
		if err := s.verify(flowClaimDeposit, id, payload, sig); err != nil {
			return err
		}

		// 3. 解析结果
		success, err := decodeSuccess(payload)
		if err != nil {
			return err
		}

		// 4. 消费条目
		d, err := tx.TakeDeposit(id)
		if err != nil {
			return err
		}
		amount, err := ledger.FromDecimal(d.Amount)
		if err != nil {
			return err
		}
		now := s.cfg.Clock()

		if !success {
			failed = &event.DepositFailed{
				RequestID: d.RequestID,
				Requester: d.Requester,
				Asset:     d.Asset,
				Amount:    amount.Dec(),
				FailedAt:  now,
			}
			return tx.Emit(s.cfg.NotificationTopic, d.Requester, failed)
		}

		// 5. 入账
		balance, err := tx.Credit(ledger.Key{Owner: d.Requester, Asset: d.Asset}, amount)
		if err != nil {
			return err
		}
		claimed = &event.DepositClaimed{
			RequestID: d.RequestID,
			Requester: d.Requester,
			Asset:     d.Asset,
			Amount:    amount.Dec(),
			Balance:   balance.Dec(),
			ClaimedAt: now,
		}
		return tx.Emit(s.cfg.NotificationTopic, d.Requester, claimed)
	})
	if err != nil {
		return nil, err
	}

	monitor.AddPending(kindDeposit, -1)
	if failed != nil {
		s.log.Warn("deposit transfer failed on destination chain",
			zap.String("request_id", failed.RequestID),
			zap.String("requester", failed.Requester),
		)
		return nil, fmt.Errorf("%w: deposit %s", errno.ErrTransferFailed, failed.RequestID)
	}

	s.log.Info("deposit claimed",
		zap.String("request_id", claimed.RequestID),
		zap.String("requester", claimed.Requester),
		zap.String("amount", claimed.Amount),
		zap.String("balance", claimed.Balance),
	)
	return claimed, nil
}

// InitiateWithdraw 乐观扣款后登记提现请求并请求签名
func (s *BridgeService) InitiateWithdraw(ctx context.Context, in InitiateWithdrawInput) (*event.SignRespondRequested, error) {
	ev, err := s.initiateWithdraw(ctx, in)
	s.observe(flowInitiateWithdraw, err)
	return ev, err
}

func (s *BridgeService) initiateWithdraw(ctx context.Context, in InitiateWithdrawInput) (*event.SignRespondRequested, error) {
	// 1. 校验参数
	if err := validateParties(in.Requester, in.Asset); err != nil {
		return nil, err
	}
	// 只有余额所有者可以发起提现
	if err := in.Requester.Verify(authority.WithdrawMessage(in.RequestID), in.Authorization); err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrUnauthorized, err)
	}
	if in.Recipient == (common.Address{}) {
		return nil, fmt.Errorf("%w: recipient", errno.ErrInvalidAddress)
	}
	if err := evmtx.CheckAmount("amount", in.Amount, false); err != nil {
		return nil, err
	}
	amount, err := ledger.FromBig(in.Amount)
	if err != nil {
		return nil, err
	}
	if err := in.Tx.Validate(s.cfg.MinGasLimit); err != nil {
		return nil, err
	}

	// 提现统一由全局金库身份签名, 路径固定为 root
	sender, err := s.authorities.GlobalVaultAuthority()
	if err != nil {
		return nil, err
	}

	var ev event.SignRespondRequested
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		// 2. 余额检查 + 乐观扣款
		key := balanceKey(in.Requester.String(), in.Asset)
		if _, err := tx.Debit(key, amount); err != nil {
			return err
		}

		// 3. 构造交易, 校验请求 ID (不一致时扣款随事务回滚)
		p, err := s.prepare(in.RequestID, sender, derivation.RootPath, evmtx.Transfer{
			Operation: evmtx.OperationWithdraw,
			Asset:     in.Asset,
			Recipient: in.Recipient,
			Amount:    in.Amount,
		}, in.Tx)
		if err != nil {
			return err
		}

		// 4. 登记
		if err := tx.InsertWithdrawal(&model.PendingWithdrawal{
			RequestID: in.RequestID.Hex(),
			Requester: in.Requester.String(),
			Asset:     in.Asset.Hex(),
			Amount:    ledger.ToDecimal(amount),
			Recipient: in.Recipient.Hex(),
			Path:      p.signing.Path,
		}); err != nil {
			return err
		}

		ev = s.signRespondEvent(evmtx.OperationWithdraw, in.RequestID, p)
		return tx.Emit(s.cfg.SignRespondTopic, in.RequestID.Hex(), ev)
	})
	if err != nil {
		return nil, err
	}

	monitor.AddPending(kindWithdraw, 1)
	s.log.Info("withdrawal initiated",
		zap.String("request_id", in.RequestID.Hex()),
		zap.String("requester", in.Requester.String()),
		zap.String("asset", in.Asset.Hex()),
		zap.String("amount", amount.Dec()),
		zap.String("recipient", in.Recipient.Hex()),
	)
	return &ev, nil
}

// withdrawOutcome 解析提现结果; 错误前缀的响应一律视为失败
func withdrawOutcome(payload []byte) (success bool, errorResponse bool, err error) {
	if bytes.HasPrefix(payload, ErrorResponsePrefix) {
		return false, true, nil
	}
	success, err = decodeSuccess(payload)
	return success, false, err
}

// CompleteWithdraw 校验签名服务的执行结果; 失败则退回已扣金额
func (s *BridgeService) CompleteWithdraw(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.WithdrawalCompleted, error) {
	completed, err := s.completeWithdraw(ctx, id, payload, sig)
	s.observe(flowCompleteWithdraw, err)
	return completed, err
}

func (s *BridgeService) completeWithdraw(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.WithdrawalCompleted, error) {
	var (
		completed     *event.WithdrawalCompleted
		errorResponse bool
	)

	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		// 1. 条目必须存在
		w, err := tx.GetWithdrawal(id)
		if err != nil {
			return err
		}

		// 2. 校验签名
		if err := s.verify(flowCompleteWithdraw, id, payload, sig); err != nil {
			return err
		}

		// 3. 解析结果
		success, isError, err := withdrawOutcome(payload)
		if err != nil {
			return err
		}
		errorResponse = isError

		amount, err := ledger.FromDecimal(w.Amount)
		if err != nil {
			return err
		}
		key := ledger.Key{Owner: w.Requester, Asset: w.Asset}

		// 4. 失败时退款
		var balance *uint256.Int
		if success {
			balance, err = tx.Balance(key)
		} else {
			balance, err = tx.Credit(key, amount)
		}
		if err != nil {
			return err
		}

		// 5. 消费条目
		if _, err := tx.TakeWithdrawal(id); err != nil {
			return err
		}

		completed = &event.WithdrawalCompleted{
			RequestID:   w.RequestID,
			Requester:   w.Requester,
			Asset:       w.Asset,
			Amount:      amount.Dec(),
			Recipient:   w.Recipient,
			Success:     success,
			Refunded:    !success,
			Balance:     balance.Dec(),
			CompletedAt: s.cfg.Clock(),
		}
		return tx.Emit(s.cfg.NotificationTopic, w.Requester, completed)
	})
	if err != nil {
		return nil, err
	}

	monitor.AddPending(kindWithdraw, -1)
	if completed.Refunded {
		reason := "transfer_false"
		if errorResponse {
			reason = "error_response"
		}
		monitor.ObserveRefund(reason)
	}
	s.log.Info("withdrawal completed",
		zap.String("request_id", completed.RequestID),
		zap.Bool("success", completed.Success),
		zap.Bool("refunded", completed.Refunded),
		zap.String("balance", completed.Balance),
	)
	return completed, nil
}

// ReclaimExpired 关闭超过 PendingTTL 仍未完成的请求: 提现退款, 充值直接关闭
// 每个请求一个工作单元, 单个失败不影响其余
func (s *BridgeService) ReclaimExpired(ctx context.Context, now time.Time) (ReclaimReport, error) {
	var report ReclaimReport
	if s.cfg.PendingTTL <= 0 {
		return report, nil
	}
	cutoff := now.Add(-s.cfg.PendingTTL)

	var withdrawals, deposits []requestid.ID
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		if withdrawals, err = tx.ExpiredWithdrawals(cutoff, reclaimBatchSize); err != nil {
			return err
		}
		deposits, err = tx.ExpiredDeposits(cutoff, reclaimBatchSize)
		return err
	})
	if err != nil {
		return report, err
	}

	var errs []error
	for _, id := range withdrawals {
		if err := s.expireWithdrawal(ctx, id, now); err != nil {
			errs = append(errs, err)
			continue
		}
		report.Withdrawals++
	}
	for _, id := range deposits {
		if err := s.expireDeposit(ctx, id, now); err != nil {
			errs = append(errs, err)
			continue
		}
		report.Deposits++
	}

	monitor.ObserveExpired(kindWithdraw, report.Withdrawals)
	monitor.ObserveExpired(kindDeposit, report.Deposits)
	monitor.AddPending(kindWithdraw, -float64(report.Withdrawals))
	monitor.AddPending(kindDeposit, -float64(report.Deposits))
	if report.Withdrawals+report.Deposits > 0 {
		s.log.Info("reclaimed expired requests",
			zap.Int("withdrawals", report.Withdrawals),
			zap.Int("deposits", report.Deposits),
		)
	}
	return report, errors.Join(errs...)
}

func (s *BridgeService) expireWithdrawal(ctx context.Context, id requestid.ID, now time.Time) error {
	return s.store.Atomic(ctx, func(tx store.Tx) error {
		w, err := tx.TakeWithdrawal(id)
		if err != nil {
			return err
		}
		amount, err := ledger.FromDecimal(w.Amount)
		if err != nil {
			return err
		}
		balance, err := tx.Credit(ledger.Key{Owner: w.Requester, Asset: w.Asset}, amount)
		if err != nil {
			return err
		}
		monitor.ObserveRefund("expired")
		return tx.Emit(s.cfg.NotificationTopic, w.Requester, event.WithdrawalExpired{
			RequestID: w.RequestID,
			Requester: w.Requester,
			Asset:     w.Asset,
			Amount:    amount.Dec(),
			Balance:   balance.Dec(),
			ExpiredAt: now,
		})
	})
}

func (s *BridgeService) expireDeposit(ctx context.Context, id requestid.ID, now time.Time) error {
	return s.store.Atomic(ctx, func(tx store.Tx) error {
		d, err := tx.TakeDeposit(id)
		if err != nil {
			return err
		}
		return tx.Emit(s.cfg.NotificationTopic, d.Requester, event.DepositExpired{
			RequestID: d.RequestID,
			Requester: d.Requester,
			Asset:     d.Asset,
			Amount:    d.Amount.String(),
			ExpiredAt: now,
		})
	})
}

// Balance 查询余额
func (s *BridgeService) Balance(ctx context.Context, owner authority.PublicKey, asset common.Address) (*uint256.Int, error) {
	var balance *uint256.Int
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		balance, err = tx.Balance(balanceKey(owner.String(), asset))
		return err
	})
	return balance, err
}

func (s *BridgeService) PendingDeposit(ctx context.Context, id requestid.ID) (*model.PendingDeposit, error) {
	var d *model.PendingDeposit
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		d, err = tx.GetDeposit(id)
		return err
	})
	return d, err
}

func (s *BridgeService) PendingWithdrawal(ctx context.Context, id requestid.ID) (*model.PendingWithdrawal, error) {
	var w *model.PendingWithdrawal
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		w, err = tx.GetWithdrawal(id)
		return err
	})
	return w, err
}

func (s *BridgeService) observe(flow string, err error) {
	result := "ok"
	if err != nil {
		result = errno.KindOf(err).String()
	}
	monitor.ObserveRequest(flow, result)
}
