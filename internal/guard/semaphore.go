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
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
)

// Semaphore is a counting semaphore. Wait decrements, blocking the caller
// while the value is zero. Signal increments and wakes one waiter.
type Semaphore interface {
	Wait() error
	TryWait() (bool, error)
	Signal() error
	Value() (int, error)
}

// Semaphores is the set used by the bounded-buffer protocol. Empty starts at
// the buffer capacity, Full at 0 and Mutex at 1.
type Semaphores struct {
	Empty Semaphore
	Full  Semaphore
	Mutex Semaphore
}

// NewSemaphorePair returns the classic bounded-buffer solution:
//
//	producer: wait(empty) wait(mutex) push signal(mutex) signal(full)
//	consumer: wait(full)  wait(mutex) pop  signal(mutex) signal(empty)
//
// Nothing spins. Empty and Full bound the occupancy on their own; Mutex only
// serializes the index updates. The endpoints also implement TryProducer and
// TryConsumer.
func NewSemaphorePair[T any](slots Slots[T], sems Semaphores, opts ...Option) Pair[T] {
	s := &semPair[T]{slots: slots, sems: sems, o: newOptions(opts)}
	return Pair[T]{
		Producer: &SemProducer[T]{s},
		Consumer: &SemConsumer[T]{s},
		Occupancy: func() int64 {
			v, err := sems.Full.Value()
			if err != nil {
				return -1
			}
			return int64(v)
		},
	}
}

type semPair[T any] struct {
	slots Slots[T]
	sems  Semaphores
	o     *options
}

// SemProducer is the producing endpoint of NewSemaphorePair.
type SemProducer[T any] struct {
	*semPair[T]
}

// Produce blocks on the empty-slots semaphore until there is room.
func (p *SemProducer[T]) Produce(item T) (Receipt, error) {
	ok, err := p.sems.Empty.TryWait()
	if err != nil {
		return Receipt{}, fmt.Errorf("wait(empty): %w", err)
	}
	if !ok {
		p.o.emit(Event{Side: ProducerSide, Kind: EventWaiting})
		if err := p.sems.Empty.Wait(); err != nil {
			return Receipt{}, fmt.Errorf("wait(empty): %w", err)
		}
	}
	r, err := p.put(item)
	r.Blocked = !ok
	return r, err
}

// TryProduce returns accepted=false without waiting when the buffer is full.
func (p *SemProducer[T]) TryProduce(item T) (Receipt, bool, error) {
	ok, err := p.sems.Empty.TryWait()
	if err != nil {
		return Receipt{}, false, fmt.Errorf("wait(empty): %w", err)
	}
	if !ok {
		return Receipt{}, false, nil
	}
	r, err := p.put(item)
	return r, err == nil, err
}

func (p *SemProducer[T]) put(item T) (Receipt, error) {
	if err := p.sems.Mutex.Wait(); err != nil {
		return Receipt{}, fmt.Errorf("wait(mutex): %w", err)
	}
	slot := p.slots.Push(item)
	if err := p.sems.Mutex.Signal(); err != nil {
		return Receipt{Slot: slot}, fmt.Errorf("signal(mutex): %w", err)
	}
	if err := p.sems.Full.Signal(); err != nil {
		return Receipt{Slot: slot}, fmt.Errorf("signal(full): %w", err)
	}
	return Receipt{Slot: slot}, nil
}

// SemConsumer is the consuming endpoint of NewSemaphorePair.
type SemConsumer[T any] struct {
	*semPair[T]
}

// Consume blocks on the full-slots semaphore until an item is available.
func (c *SemConsumer[T]) Consume() (T, Receipt, error) {
	var zero T
	ok, err := c.sems.Full.TryWait()
	if err != nil {
		return zero, Receipt{}, fmt.Errorf("wait(full): %w", err)
	}
	if !ok {
		c.o.emit(Event{Side: ConsumerSide, Kind: EventWaiting})
		if err := c.sems.Full.Wait(); err != nil {
			return zero, Receipt{}, fmt.Errorf("wait(full): %w", err)
		}
	}
	item, r, err := c.take()
	r.Blocked = !ok
	return item, r, err
}

// TryConsume returns accepted=false without waiting when the buffer is empty.
func (c *SemConsumer[T]) TryConsume() (T, Receipt, bool, error) {
	var zero T
	ok, err := c.sems.Full.TryWait()
	if err != nil {
		return zero, Receipt{}, false, fmt.Errorf("wait(full): %w", err)
	}
	if !ok {
		return zero, Receipt{}, false, nil
	}
	item, r, err := c.take()
	return item, r, err == nil, err
}

func (c *SemConsumer[T]) take() (T, Receipt, error) {
	var zero T
	if err := c.sems.Mutex.Wait(); err != nil {
		return zero, Receipt{}, fmt.Errorf("wait(mutex): %w", err)
	}
	item, slot := c.slots.Pop()
	if err := c.sems.Mutex.Signal(); err != nil {
		return item, Receipt{Slot: slot}, fmt.Errorf("signal(mutex): %w", err)
	}
	if err := c.sems.Empty.Signal(); err != nil {
		return item, Receipt{Slot: slot}, fmt.Errorf("signal(empty): %w", err)
	}
	return item, Receipt{Slot: slot}, nil
}

// Counting is an in-process counting semaphore with an upper bound, built on
// semaphore.Weighted. Permits that are not currently available are held by
// the Counting itself; Wait takes a permit and Signal gives one back.
type Counting struct {
	w     *semaphore.Weighted
	limit int64
	held  atomic.Int64 // permits taken from w
}

// NewCounting returns a semaphore that starts at initial and never exceeds
// limit. It panics unless 0 <= initial <= limit and limit > 0.
func NewCounting(limit, initial int) *Counting {
	if limit <= 0 || initial < 0 || initial > limit {
		panic(fmt.Sprintf("guard: invalid semaphore bounds limit=%d initial=%d", limit, initial))
	}
	c := &Counting{
		w:     semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
	if unavailable := int64(limit - initial); unavailable > 0 {
		if !c.w.TryAcquire(unavailable) {
			panic("unreached")
		}
		c.held.Store(unavailable)
	}
	return c
}

// Wait blocks until the value is positive, then decrements it.
func (c *Counting) Wait() error {
	if err := c.w.Acquire(context.Background(), 1); err != nil {
		return errcode.Wrap(errcode.SemFailed, "wait", err)
	}
	c.held.Add(1)
	return nil
}

// TryWait decrements the value if it is positive and reports whether it did.
func (c *Counting) TryWait() (bool, error) {
	if !c.w.TryAcquire(1) {
		return false, nil
	}
	c.held.Add(1)
	return true, nil
}

// Signal increments the value, waking one waiter. Signalling a semaphore
// that is already at its limit returns errcode.SemOverflow and changes
// nothing.
func (c *Counting) Signal() error {
	for {
		h := c.held.Load()
		if h == 0 {
			return errcode.New(errcode.SemOverflow, "signal")
		}
		if c.held.CompareAndSwap(h, h-1) {
			break
		}
	}
	c.w.Release(1)
	return nil
}

// Value returns a snapshot of the current value.
func (c *Counting) Value() (int, error) {
	return int(c.limit - c.held.Load()), nil
}
