package registry

import (
	"errors"
	"fmt"
)

// ID 网络对象 id，线上占一个字节。
type ID uint8

const MaxObjects = 255

var (
	ErrPoolExhausted = errors.New("registry: no free object id")
	ErrIDInUse       = errors.New("registry: object id in use")
	ErrIDOutOfRange  = errors.New("registry: object id out of range")
)

// Object 能放进注册表的对象。
type Object interface {
	SetObjectID(id ID)
	MarkDeleted()
	IsDeleted() bool
}

// Registry 定长 id 池 + 查找表。只在 tick 协程上使用，不加锁。
type Registry[T Object] struct {
	slots    []T
	used     []bool
	order    []ID
	cursor   int
	onDelete func(T)
}

// New size<=0 或超过 MaxObjects 时按 MaxObjects。onDelete 在对象被擦除前调用。
func New[T Object](size int, onDelete func(T)) *Registry[T] {
	if size <= 0 || size > MaxObjects {
		size = MaxObjects
	}
	return &Registry[T]{
		slots:    make([]T, size),
		used:     make([]bool, size),
		onDelete: onDelete,
	}
}

func (r *Registry[T]) Size() int { return len(r.slots) }

func (r *Registry[T]) Len() int { return len(r.order) }

func (r *Registry[T]) Register(obj T) (ID, error) {
	n := len(r.slots)
	for i := 0; i < n; i++ {
		idx := (r.cursor + i) % n
		if !r.used[idx] {
			r.cursor = idx
			r.put(ID(idx), obj)
			return ID(idx), nil
		}
	}
	return 0, ErrPoolExhausted
}

func (r *Registry[T]) RegisterWithID(obj T, id ID) error {
	if int(id) >= len(r.slots) {
		return fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	if r.used[id] {
		return fmt.Errorf("%w: %d", ErrIDInUse, id)
	}
	r.put(id, obj)
	return nil
}

func (r *Registry[T]) put(id ID, obj T) {
	r.slots[id] = obj
	r.used[id] = true
	r.order = append(r.order, id)
	obj.SetObjectID(id)
}

// Unregister 直接释放，不触发 onDelete。
func (r *Registry[T]) Unregister(id ID) {
	if int(id) >= len(r.slots) || !r.used[id] {
		return
	}
	var zero T
	r.slots[id] = zero
	r.used[id] = false
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry[T]) Lookup(id ID) (T, bool) {
	if int(id) >= len(r.slots) || !r.used[id] {
		var zero T
		return zero, false
	}
	return r.slots[id], true
}

// Delete 打删除标记，下一次 Update 擦除。
func (r *Registry[T]) Delete(id ID) {
	if obj, ok := r.Lookup(id); ok {
		obj.MarkDeleted()
	}
}

// Update 擦除所有带删除标记的对象。
func (r *Registry[T]) Update() {
	var doomed []ID
	for _, id := range r.order {
		if r.slots[id].IsDeleted() {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		if r.onDelete != nil {
			r.onDelete(r.slots[id])
		}
		r.Unregister(id)
	}
}

// Each 按注册顺序遍历，fn 返回 false 提前结束。
func (r *Registry[T]) Each(fn func(ID, T) bool) {
	ids := append([]ID(nil), r.order...)
	for _, id := range ids {
		if !r.used[id] {
			continue
		}
		if !fn(id, r.slots[id]) {
			return
		}
	}
}
