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
	"sync/atomic"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/ring"
)

// Kind names a strategy on the command line.
type Kind string

const (
	KindUnsynchronized Kind = "unsync"
	KindBusyWait       Kind = "busywait"
	KindLocked         Kind = "mutex"
	KindOneSlotEmpty   Kind = "oneempty"
	KindSemaphore      Kind = "semaphore"
)

// Kinds lists every strategy in the order they are usually taught.
func Kinds() []Kind {
	return []Kind{KindUnsynchronized, KindOneSlotEmpty, KindBusyWait, KindLocked, KindSemaphore}
}

// Correct reports whether the strategy guarantees that no update is lost.
func (k Kind) Correct() bool {
	return k != KindUnsynchronized
}

// NewInProcess builds a strategy of kind k over a fresh ring.Buffer of the
// given capacity, with its count and semaphores held in ordinary memory.
func NewInProcess[T any](k Kind, capacity int, opts ...Option) (Pair[T], error) {
	buf := ring.New[T](capacity)
	switch k {
	case KindUnsynchronized:
		return NewUnsynchronized[T](buf, new(atomic.Int64), opts...), nil
	case KindBusyWait:
		return NewBusyWait[T](buf, new(atomic.Int64), opts...), nil
	case KindLocked:
		return NewLocked[T](buf, new(atomic.Int64), opts...), nil
	case KindOneSlotEmpty:
		return NewOneSlotEmpty[T](buf, opts...), nil
	case KindSemaphore:
		return NewSemaphorePair[T](buf, Semaphores{
			Empty: NewCounting(capacity, capacity),
			Full:  NewCounting(capacity, 0),
			Mutex: NewCounting(1, 1),
		}, opts...), nil
	}
	return Pair[T]{}, errcode.New(errcode.Unsupported, "strategy "+string(k))
}
