package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"go.uber.org/zap"

	"vault-bridge/internal/event"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/address"
	"vault-bridge/pkg/bip32"
	"vault-bridge/pkg/bip39"
	"vault-bridge/pkg/borsh"
	"vault-bridge/pkg/crypto_util"
	"vault-bridge/pkg/derivation"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

// LoadDevSignerKey 从助记词与 BIP-32 路径得到开发签名者根私钥
func LoadDevSignerKey(mnemonic, path string) (*btcec.PrivateKey, error) {
	seed, err := bip39.Seed(mnemonic, "")
	if err != nil {
		return nil, err
	}
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}
	return w.PrivateKey(path)
}

// DevSignerTopics 开发签名者的输入输出主题
type DevSignerTopics struct {
	SignRespond  string
	Signature    string
	ReadResponse string
}

// DevSigner 本地开发用的 MPC 替身
// 用 epsilon 派生的子私钥签交易, 用根私钥签执行结果
type DevSigner struct {
	root     *btcec.PrivateKey
	producer mq.Producer
	topics   DevSignerTopics
	outcome  func(ev *event.SignRespondRequested) bool
}

func NewDevSigner(root *btcec.PrivateKey, producer mq.Producer, topics DevSignerTopics) *DevSigner {
	return &DevSigner{
		root:     root,
		producer: producer,
		topics:   topics,
		outcome:  func(*event.SignRespondRequested) bool { return true },
	}
}

// WithOutcome 指定回报的转账结果
func (s *DevSigner) WithOutcome(outcome func(ev *event.SignRespondRequested) bool) *DevSigner {
	s.outcome = outcome
	return s
}

// Address 根公钥地址, 即协议应配置的受信任签名者
func (s *DevSigner) Address() string {
	addr, _ := address.PubKeyToChecksumAddress(s.root.PubKey().SerializeUncompressed())
	return addr
}

// Run 阻塞消费签名请求直到 ctx 结束
func (s *DevSigner) Run(ctx context.Context, consumer mq.Consumer) error {
	logger.Info("dev signer started", zap.String("address", s.Address()), zap.String("topic", s.topics.SignRespond))
	return consumer.Subscribe(ctx, s.topics.SignRespond, func(msg *mq.Message) error {
		return s.HandleSignRespond(ctx, msg)
	})
}

func signCompact(key *btcec.PrivateKey, hash []byte) sigverify.Signature {
	compact := ecdsa.SignCompact(key, hash, false)
	var sig sigverify.Signature
	sig.RecoveryID = compact[0] - 27
	copy(sig.BigRX[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig
}

// HandleSignRespond 签交易并回报执行结果
func (s *DevSigner) HandleSignRespond(ctx context.Context, msg *mq.Message) error {
	var ev event.SignRespondRequested
	if err := msg.Decode(&ev); err != nil {
		logger.Warn("dev signer: drop malformed request", zap.Error(err))
		return nil
	}
	id, err := requestid.ParseID(ev.RequestID)
	if err != nil {
		logger.Warn("dev signer: drop request with invalid id", zap.String("request_id", ev.RequestID))
		return nil
	}

	// 请求 ID 必须与交易字节一致
	computed := requestid.Derive(ev.Sender, ev.SerializedTx, ev.SLIP44ChainID, ev.KeyVersion, ev.Path, ev.Algo, ev.Dest, ev.Params)
	if computed != id {
		logger.Warn("dev signer: request id does not match payload", zap.String("request_id", id.Hex()), zap.String("computed", computed.Hex()))
		return nil
	}
	hash := crypto_util.Keccak256(ev.SerializedTx)
	if want, err := hex.DecodeString(strings.TrimPrefix(ev.PayloadHash, "0x")); err != nil || !bytes.Equal(want, hash[:]) {
		logger.Warn("dev signer: payload hash mismatch", zap.String("request_id", id.Hex()))
		return nil
	}

	child, err := derivation.DeriveChildPrivateKey(s.root, ev.Sender, ev.Path)
	if err != nil {
		return fmt.Errorf("derive child key: %w", err)
	}
	txSig := signCompact(child, hash[:])
	if err := s.publish(ctx, s.topics.Signature, id, event.SignatureResponded{
		RequestID: id.Hex(),
		Signature: event.NewRecoverableSignature(txSig),
	}); err != nil {
		return err
	}

	output := borsh.EncodeBool(s.outcome(&ev))
	msgHash := sigverify.MessageHash(id, output)
	if err := s.publish(ctx, s.topics.ReadResponse, id, event.ReadResponded{
		RequestID:        id.Hex(),
		SerializedOutput: output,
		Signature:        event.NewRecoverableSignature(signCompact(s.root, msgHash[:])),
	}); err != nil {
		return err
	}

	logger.Info("dev signer responded", zap.String("request_id", id.Hex()), zap.String("operation", ev.Operation))
	return nil
}

func (s *DevSigner) publish(ctx context.Context, topic string, id requestid.ID, v interface{}) error {
	return mq.PublishJSON(ctx, s.producer, topic, id.Hex(), v)
}
