package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"vault-bridge/pkg/errno"
)

// Key 余额记录的键 (owner, asset)
type Key struct {
	Owner string // base58 公钥
	Asset string // EIP-55 合约地址
}

func (k Key) String() string {
	return k.Owner + "/" + k.Asset
}

// Book 内存余额账本, 每条记录的读写在同一把锁下串行
type Book struct {
	mu       sync.RWMutex
	balances map[Key]*uint256.Int
}

func NewBook() *Book {
	return &Book{balances: make(map[Key]*uint256.Int)}
}

// Balance 返回余额副本, 不存在的记录为 0
func (b *Book) Balance(k Key) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.get(k)
}

func (b *Book) get(k Key) *uint256.Int {
	if v, ok := b.balances[k]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// Credit 入账, 返回新余额
func (b *Book) Credit(k Key, amount *uint256.Int) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := CheckedAdd(b.get(k), amount)
	if err != nil {
		return nil, err
	}
	b.balances[k] = next
	return new(uint256.Int).Set(next), nil
}

// Debit 扣款: 先检查余额充足, 再做检查减法
func (b *Book) Debit(k Key, amount *uint256.Int) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.get(k)
	if cur.Lt(amount) {
		return nil, fmt.Errorf("%w: %s has %s, need %s", errno.ErrInsufficientFunds, k, cur.Dec(), amount.Dec())
	}
	next, err := CheckedSub(cur, amount)
	if err != nil {
		return nil, err
	}
	b.balances[k] = next
	return new(uint256.Int).Set(next), nil
}

// Set 直接写入余额 (回滚用)
func (b *Book) Set(k Key, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[k] = new(uint256.Int).Set(amount)
}

// Entries 返回所有非零记录, 按 key 排序
func (b *Book) Entries() []Key {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]Key, 0, len(b.balances))
	for k, v := range b.balances {
		if !v.IsZero() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
