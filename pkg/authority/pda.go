package authority

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

// 命名空间种子
const (
	SeedVaultAuthority       = "vault_authority"
	SeedGlobalVaultAuthority = "global_vault_authority"
	SeedPendingDeposit       = "pending_erc20_deposit"
	SeedPendingWithdrawal    = "pending_erc20_withdrawal"
	SeedUserBalance          = "user_erc20_balance"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidSeeds          = errors.New("provided seeds do not result in a valid address")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

// CreateProgramAddress 计算 sha256(seeds || program || marker)，结果必须不在 ed25519 曲线上
func CreateProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return PublicKey{}, ErrMaxSeedLengthExceeded
	}
	h := sha256.New()
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return PublicKey{}, ErrMaxSeedLengthExceeded
		}
		h.Write(s)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var pk PublicKey
	copy(pk[:], h.Sum(nil))
	if IsOnCurve(pk[:]) {
		return PublicKey{}, ErrInvalidSeeds
	}
	return pk, nil
}

// FindProgramAddress 从 bump=255 向下搜索第一个有效的程序地址
func FindProgramAddress(seeds [][]byte, program PublicKey) (PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		pk, err := CreateProgramAddress(withBump, program)
		if err == nil {
			return pk, uint8(bump), nil
		}
		if errors.Is(err, ErrMaxSeedLengthExceeded) {
			return PublicKey{}, 0, err
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}

// IsOnCurve 判断 32 字节是否为合法的 ed25519 压缩点
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// Deriver 绑定某个程序 ID 的 PDA 派生器
type Deriver struct {
	program PublicKey
}

func NewDeriver(program PublicKey) *Deriver {
	return &Deriver{program: program}
}

func (d *Deriver) Program() PublicKey {
	return d.program
}

func (d *Deriver) find(seeds ...[]byte) (PublicKey, error) {
	pk, _, err := FindProgramAddress(seeds, d.program)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive program address: %w", err)
	}
	return pk, nil
}

// VaultAuthority 用户专属的签名身份 ["vault_authority", user]
func (d *Deriver) VaultAuthority(user PublicKey) (PublicKey, error) {
	return d.find([]byte(SeedVaultAuthority), user[:])
}

// GlobalVaultAuthority 提现共用的签名身份 ["global_vault_authority"]
func (d *Deriver) GlobalVaultAuthority() (PublicKey, error) {
	return d.find([]byte(SeedGlobalVaultAuthority))
}

func (d *Deriver) PendingDeposit(requestID [32]byte) (PublicKey, error) {
	return d.find([]byte(SeedPendingDeposit), requestID[:])
}

func (d *Deriver) PendingWithdrawal(requestID [32]byte) (PublicKey, error) {
	return d.find([]byte(SeedPendingWithdrawal), requestID[:])
}

func (d *Deriver) UserBalance(user PublicKey, asset [20]byte) (PublicKey, error) {
	return d.find([]byte(SeedUserBalance), user[:], asset[:])
}
