// Package requestid 计算签名请求 ID。
//
// ID = keccak256(sender || tx || be32(slip44) || be32(keyVersion) || path || algo || dest || params)，
// 采用紧凑编码 (无长度前缀)，与签名服务一侧的计算逐位一致。
package requestid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// 以太坊目标链的固定取值
const (
	SLIP44Ethereum    uint32 = 60
	DefaultKeyVersion uint32 = 0
	AlgoECDSA                = "ECDSA"
	DestEthereum             = "ethereum"
	NoParams                 = ""
)

// ID 32 字节请求 ID
type ID [32]byte

func (id ID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id ID) String() string {
	return id.Hex()
}

func (id ID) Bytes() []byte {
	return id[:]
}

// ParseID 解析 32 字节的 hex 字符串, 可带 0x 前缀
func ParseID(s string) (ID, error) {
	var id ID
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid request id: %w", err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid request id: expected 32 bytes, got %d", len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Request 请求 ID 的全部输入
type Request struct {
	Sender     string // 请求方身份的规范文本形式
	Tx         []byte // 规范交易字节
	SLIP44     uint32
	KeyVersion uint32
	Path       string
	Algo       string
	Dest       string
	Params     string
}

// Ethereum 返回目标链为以太坊时的标准请求
func Ethereum(sender string, tx []byte, path string) Request {
	return Request{
		Sender:     sender,
		Tx:         tx,
		SLIP44:     SLIP44Ethereum,
		KeyVersion: DefaultKeyVersion,
		Path:       path,
		Algo:       AlgoECDSA,
		Dest:       DestEthereum,
		Params:     NoParams,
	}
}

// Packed 返回参与哈希的紧凑编码
func (r Request) Packed() []byte {
	buf := make([]byte, 0, len(r.Sender)+len(r.Tx)+8+len(r.Path)+len(r.Algo)+len(r.Dest)+len(r.Params))
	buf = append(buf, r.Sender...)
	buf = append(buf, r.Tx...)
	buf = binary.BigEndian.AppendUint32(buf, r.SLIP44)
	buf = binary.BigEndian.AppendUint32(buf, r.KeyVersion)
	buf = append(buf, r.Path...)
	buf = append(buf, r.Algo...)
	buf = append(buf, r.Dest...)
	buf = append(buf, r.Params...)
	return buf
}

// ID 计算请求 ID
func (r Request) ID() ID {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(r.Packed())
	var id ID
	copy(id[:], hash.Sum(nil))
	return id
}

// Derive 函数形式的请求 ID 计算
func Derive(sender string, tx []byte, slip44, keyVersion uint32, path, algo, dest, params string) ID {
	return Request{
		Sender:     sender,
		Tx:         tx,
		SLIP44:     slip44,
		KeyVersion: keyVersion,
		Path:       path,
		Algo:       algo,
		Dest:       dest,
		Params:     params,
	}.ID()
}
