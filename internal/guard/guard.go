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

// Package guard implements the synchronization strategies that serialize a
// single producer and a single consumer over a bounded circular buffer.
//
// Every constructor returns a Pair: one Producer endpoint and one Consumer
// endpoint sharing the guarded state. The strategies are
//
//   - Unsynchronized: no guard; the shared count is updated with a separate
//     load and store, so concurrent updates can be lost.
//   - BusyWait: Peterson's two-party algorithm around the count update.
//   - Locked: a sync.Mutex around the count update.
//   - OneSlotEmpty: no count at all; fullness is derived from the indices.
//   - SemaphorePair: empty/full counting semaphores plus a binary mutex.
//
// All but SemaphorePair wait for space or items by spinning.
package guard

import (
	"runtime"
)

// Side identifies one of the two participants.
type Side int

const (
	ProducerSide Side = 0
	ConsumerSide Side = 1
)

// Other returns the opposite participant.
func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	switch s {
	case ProducerSide:
		return "P"
	case ConsumerSide:
		return "C"
	}
	return "?"
}

// Slots is the storage a strategy guards. *ring.Buffer and *shm.Ring
// implement it.
type Slots[T any] interface {
	Push(item T) int
	Pop() (T, int)
	Capacity() int
}

// IndexSlots is Slots that can derive full/empty from its own indices.
type IndexSlots[T any] interface {
	Slots[T]
	Head() int
	Tail() int
	IndexFull() bool
	IndexEmpty() bool
}

// Counter holds the shared occupancy count. *atomic.Int64 implements it, as
// does the counter word of a shared-memory segment.
type Counter interface {
	Load() int64
	Store(int64)
}

// Receipt describes one completed produce or consume.
type Receipt struct {
	Slot int // slot written or read

	// Spins is the number of availability checks that failed before the
	// operation could proceed. Always 0 for SemaphorePair.
	Spins int64
	// Blocked is set when the operation had to wait on a semaphore.
	Blocked bool

	// Counted is set by strategies that keep an occupancy count; Before and
	// After are the values this side read and wrote.
	Counted       bool
	Before, After int64
}

// Waited reports whether the operation had to wait for space or an item.
func (r Receipt) Waited() bool {
	return r.Spins > 0 || r.Blocked
}

// Producer is the producing endpoint of a strategy.
type Producer[T any] interface {
	Produce(item T) (Receipt, error)
}

// Consumer is the consuming endpoint of a strategy.
type Consumer[T any] interface {
	Consume() (T, Receipt, error)
}

// TryProducer is implemented by endpoints that can refuse instead of waiting.
type TryProducer[T any] interface {
	Producer[T]
	TryProduce(item T) (r Receipt, accepted bool, err error)
}

// TryConsumer is implemented by endpoints that can refuse instead of waiting.
type TryConsumer[T any] interface {
	Consumer[T]
	TryConsume() (item T, r Receipt, accepted bool, err error)
}

// Pair is the two endpoints of one strategy instance.
type Pair[T any] struct {
	Producer Producer[T]
	Consumer Consumer[T]

	// Occupancy reports the strategy's own view of how many items are
	// buffered: the shared count, the index distance, or the full-slots
	// semaphore value.
	Occupancy func() int64
}

// EventKind enumerates trace points.
type EventKind int

const (
	// EventWaiting fires once when an availability check first fails.
	EventWaiting EventKind = iota
	// EventCountLoaded fires in the counting strategies after the count has
	// been read and before the updated value is stored. For every strategy
	// but Unsynchronized this happens inside the guarded section.
	EventCountLoaded
)

// Event is delivered to a Trace hook.
type Event struct {
	Side  Side
	Kind  EventKind
	Count int64
}

// Trace observes strategy events. It runs on the participant's goroutine
// and may block to force an interleaving.
type Trace func(Event)

type options struct {
	trace Trace
}

// Option configures a strategy.
type Option func(*options)

// WithTrace installs a trace hook.
func WithTrace(t Trace) Option {
	return func(o *options) {
		o.trace = t
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) emit(e Event) {
	if o.trace != nil {
		o.trace(e)
	}
}

const yieldEvery = 64 // spins between runtime.Gosched calls

// spinWhile busy-waits while blocked() holds and returns the number of failed
// checks. The yield keeps a single-P runtime from livelocking; it is not a
// blocking wait.
func (o *options) spinWhile(side Side, blocked func() bool) int64 {
	var spins int64
	for blocked() {
		if spins == 0 {
			o.emit(Event{Side: side, Kind: EventWaiting})
		}
		spins++
		if spins%yieldEvery == 0 {
			runtime.Gosched()
		}
	}
	return spins
}
