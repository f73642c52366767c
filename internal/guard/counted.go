/*
 *
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
 *
 */

package guard

import (
	"sync"
)

// section serializes the count update of a counting strategy.
type section interface {
	enter(Side)
	exit(Side)
}

type openSection struct{}

func (openSection) enter(Side) {}
func (openSection) exit(Side)  {}

type petersonSection struct {
	p Peterson
}

func (s *petersonSection) enter(side Side) { s.p.Enter(side) }
func (s *petersonSection) exit(side Side)  { s.p.Exit(side) }

type mutexSection struct {
	mu sync.Mutex
}

func (s *mutexSection) enter(Side) { s.mu.Lock() }
func (s *mutexSection) exit(Side)  { s.mu.Unlock() }

// counted is the shared state of the strategies that track occupancy with an
// explicit count. Full iff count == capacity, empty iff count == 0.
//
// The availability checks read count outside the section. Only the count
// update itself is guarded.
type counted[T any] struct {
	slots    Slots[T]
	count    Counter
	capacity int64
	cs       section
	o        *options
}

func newCounted[T any](slots Slots[T], count Counter, cs section, opts []Option) Pair[T] {
	c := &counted[T]{
		slots:    slots,
		count:    count,
		capacity: int64(slots.Capacity()),
		cs:       cs,
		o:        newOptions(opts),
	}
	return Pair[T]{
		Producer:  countedProducer[T]{c},
		Consumer:  countedConsumer[T]{c},
		Occupancy: count.Load,
	}
}

// update applies delta to count inside the section and returns the value
// read and the value written.
func (c *counted[T]) update(side Side, delta int64) (before, after int64) {
	c.cs.enter(side)
	before = c.count.Load()
	c.o.emit(Event{Side: side, Kind: EventCountLoaded, Count: before})
	after = before + delta
	c.count.Store(after)
	c.cs.exit(side)
	return before, after
}

type countedProducer[T any] struct {
	*counted[T]
}

func (p countedProducer[T]) Produce(item T) (Receipt, error) {
	spins := p.o.spinWhile(ProducerSide, func() bool {
		return p.count.Load() == p.capacity
	})
	slot := p.slots.Push(item)
	before, after := p.update(ProducerSide, +1)
	return Receipt{Slot: slot, Spins: spins, Counted: true, Before: before, After: after}, nil
}

type countedConsumer[T any] struct {
	*counted[T]
}

func (c countedConsumer[T]) Consume() (T, Receipt, error) {
	spins := c.o.spinWhile(ConsumerSide, func() bool {
		return c.count.Load() == 0
	})
	item, slot := c.slots.Pop()
	before, after := c.update(ConsumerSide, -1)
	return item, Receipt{Slot: slot, Spins: spins, Counted: true, Before: before, After: after}, nil
}

// NewUnsynchronized returns the unguarded baseline. The count update is a
// plain load followed by a store, so a produce and a consume that overlap
// can lose one of the two updates. This is the behavior the other strategies
// exist to prevent.
func NewUnsynchronized[T any](slots Slots[T], count Counter, opts ...Option) Pair[T] {
	return newCounted(slots, count, openSection{}, opts)
}

// NewBusyWait guards the count update with Peterson's algorithm.
func NewBusyWait[T any](slots Slots[T], count Counter, opts ...Option) Pair[T] {
	return newCounted(slots, count, &petersonSection{}, opts)
}

// NewLocked guards the count update with a sync.Mutex. The availability
// check still spins on count without holding the lock, so check and update
// are not one atomic step.
func NewLocked[T any](slots Slots[T], count Counter, opts ...Option) Pair[T] {
	return newCounted(slots, count, &mutexSection{}, opts)
}

// NewOneSlotEmpty keeps no count. The producer waits while
// (head+1) mod C == tail and the consumer while head == tail, so one slot is
// never used.
func NewOneSlotEmpty[T any](slots IndexSlots[T], opts ...Option) Pair[T] {
	s := &oneSlotEmpty[T]{slots: slots, o: newOptions(opts)}
	return Pair[T]{
		Producer: oneSlotProducer[T]{s},
		Consumer: oneSlotConsumer[T]{s},
		Occupancy: func() int64 {
			c := slots.Capacity()
			return int64((slots.Head() - slots.Tail() + c) % c)
		},
	}
}

type oneSlotEmpty[T any] struct {
	slots IndexSlots[T]
	o     *options
}

type oneSlotProducer[T any] struct {
	*oneSlotEmpty[T]
}

func (p oneSlotProducer[T]) Produce(item T) (Receipt, error) {
	spins := p.o.spinWhile(ProducerSide, p.slots.IndexFull)
	return Receipt{Slot: p.slots.Push(item), Spins: spins}, nil
}

type oneSlotConsumer[T any] struct {
	*oneSlotEmpty[T]
}

func (c oneSlotConsumer[T]) Consume() (T, Receipt, error) {
	spins := c.o.spinWhile(ConsumerSide, c.slots.IndexEmpty)
	item, slot := c.slots.Pop()
	return item, Receipt{Slot: slot, Spins: spins}, nil
}
