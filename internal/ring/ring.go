/*
 * Copyright 2025 The prodcons-examples Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ring provides the fixed-capacity circular buffer shared by every
// synchronization strategy.
package ring

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// Next advances a ring index by one slot, wrapping at n.
func Next[I constraints.Integer](i, n I) I {
	i++
	if i == n {
		return 0
	}
	return i
}

// Buffer is a single-producer/single-consumer circular buffer with a fixed
// capacity. It is a pure data structure: Push and Pop never block and never
// check for full or empty. The caller's guard must have established that the
// operation is legal.
//
// head is written only by the producer and tail only by the consumer. Both
// are published atomically so the opposite side may observe them. Slots are
// stored atomically too: a strategy that lets both sides reach the same slot
// reads a stale item, never a torn one.
type Buffer[T any] struct {
	slots []atomic.Pointer[T]
	head  atomic.Int64 // next write index
	tail  atomic.Int64 // next read index
}

// New returns an empty Buffer holding capacity slots. It panics if capacity
// is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be > 0")
	}
	return &Buffer[T]{slots: make([]atomic.Pointer[T], capacity)}
}

// Capacity returns the number of slots.
func (b *Buffer[T]) Capacity() int {
	return len(b.slots)
}

// Head returns the next write index.
func (b *Buffer[T]) Head() int {
	return int(b.head.Load())
}

// Tail returns the next read index.
func (b *Buffer[T]) Tail() int {
	return int(b.tail.Load())
}

// Push writes item at head, advances head and returns the slot written.
func (b *Buffer[T]) Push(item T) int {
	h := b.head.Load()
	b.slots[h].Store(&item)
	b.head.Store(Next(h, int64(len(b.slots))))
	return int(h)
}

// Pop reads the item at tail, advances tail and returns the item together
// with the slot it was read from.
func (b *Buffer[T]) Pop() (T, int) {
	t := b.tail.Load()
	var item T
	if p := b.slots[t].Load(); p != nil {
		item = *p
	}
	b.tail.Store(Next(t, int64(len(b.slots))))
	return item, int(t)
}

// IndexFull reports fullness for the one-slot-always-empty discipline:
// (head+1) mod C == tail. Usable capacity under that discipline is C-1.
func (b *Buffer[T]) IndexFull() bool {
	return Next(b.head.Load(), int64(len(b.slots))) == b.tail.Load()
}

// IndexEmpty reports emptiness for the one-slot-always-empty discipline.
func (b *Buffer[T]) IndexEmpty() bool {
	return b.head.Load() == b.tail.Load()
}
