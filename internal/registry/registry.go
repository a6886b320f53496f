// Package registry 在途请求登记表: 以 32 字节请求 ID 为键, 每个条目只能被消费一次。
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/requestid"
)

// Entry 登记表条目
type Entry[T any] struct {
	Value     T
	CreatedAt time.Time
}

// Registry 一次性消费的键值表, 并发安全
// 被 Take 过的 ID 记入 closed, 不可再次登记; closed 只增不减, 随进程生命周期增长,
// 仅适用于单节点/开发环境, 持久且可多实例共享的关闭集合由 postgres 的 closed_requests 表承担
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[requestid.ID]Entry[T]
	closed  map[requestid.ID]time.Time
	now     func() time.Time
}

func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[requestid.ID]Entry[T]),
		closed:  make(map[requestid.ID]time.Time),
		now:     time.Now,
	}
}

// WithClock 替换时钟 (测试用)
func (r *Registry[T]) WithClock(now func() time.Time) *Registry[T] {
	r.now = now
	return r
}

// Insert 登记新请求, ID 在途返回 ErrRequestExists, 已关闭返回 ErrRequestClosed
func (r *Registry[T]) Insert(id requestid.ID, v T) (Entry[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.closed[id]; ok {
		return Entry[T]{}, fmt.Errorf("%w: %s", errno.ErrRequestClosed, id)
	}
	if _, ok := r.entries[id]; ok {
		return Entry[T]{}, fmt.Errorf("%w: %s", errno.ErrRequestExists, id)
	}
	e := Entry[T]{Value: v, CreatedAt: r.now()}
	r.entries[id] = e
	return e, nil
}

// Get 读取条目但不消费
func (r *Registry[T]) Get(id requestid.ID) (Entry[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry[T]{}, fmt.Errorf("%w: %s", errno.ErrRequestNotFound, id)
	}
	return e, nil
}

// Take 读取并删除条目, 之后同一 ID 再也取不到
func (r *Registry[T]) Take(id requestid.ID) (Entry[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Entry[T]{}, fmt.Errorf("%w: %s", errno.ErrRequestNotFound, id)
	}
	delete(r.entries, id)
	r.closed[id] = r.now()
	return e, nil
}

// Restore 回滚时放回被取走的条目 (保留原 CreatedAt)
func (r *Registry[T]) Restore(id requestid.ID, e Entry[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.closed, id)
	r.entries[id] = e
}

// Remove 回滚 Insert
func (r *Registry[T]) Remove(id requestid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Closed 判断 ID 是否已被消费
func (r *Registry[T]) Closed(id requestid.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.closed[id]
	return ok
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// OlderThan 返回创建时间早于 cutoff 的条目 ID, 按创建时间升序, limit <= 0 表示不限
func (r *Registry[T]) OlderThan(cutoff time.Time, limit int) []requestid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	type aged struct {
		id requestid.ID
		at time.Time
	}
	var found []aged
	for id, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			found = append(found, aged{id: id, at: e.CreatedAt})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].at.Equal(found[j].at) {
			return found[i].id.Hex() < found[j].id.Hex()
		}
		return found[i].at.Before(found[j].at)
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	ids := make([]requestid.ID, len(found))
	for i, a := range found {
		ids[i] = a.id
	}
	return ids
}
