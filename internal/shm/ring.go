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

package shm

import (
	"fmt"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/ring"
)

// RingState is a snapshot of a shared buffer for diagnostics.
type RingState struct {
	In       int32             // next slot the producer writes
	Out      int32             // next slot the consumer reads
	Slots    [BufferSize]int32 // raw slot contents, including stale values
	Counter  int32             // counter word, valid if HasCount
	HasCount bool
}

// Used returns the index distance between In and Out. It is 0 for both a
// full and an empty counted buffer; only the counter or the semaphores can
// tell those apart.
func (s RingState) Used() int {
	return int((s.In - s.Out + BufferSize) % BufferSize)
}

func (s RingState) String() string {
	str := fmt.Sprintf("in=%d out=%d slots=%v", s.In, s.Out, s.Slots)
	if s.HasCount {
		str += fmt.Sprintf(" counter=%d", s.Counter)
	}
	return str
}

// Ring is the circular buffer stored in a Segment. Push and Pop neither
// block nor check bounds; a guard strategy decides when they are safe.
//
// Ring is safe for one producer and one consumer, possibly in different
// processes.
type Ring struct {
	seg *Segment
}

// NewRing returns the buffer view of seg.
func NewRing(seg *Segment) *Ring {
	return &Ring{seg: seg}
}

// Capacity returns BufferSize.
func (r *Ring) Capacity() int {
	return BufferSize
}

// Head returns the producer index.
func (r *Ring) Head() int {
	return int(r.seg.In())
}

// Tail returns the consumer index.
func (r *Ring) Tail() int {
	return int(r.seg.Out())
}

// Push stores item at in and advances in. It returns the slot written.
func (r *Ring) Push(item int32) int {
	in := r.seg.In()
	r.seg.SetSlot(int(in), item)
	r.seg.SetIn(ring.Next(in, BufferSize))
	return int(in)
}

// Pop reads the item at out and advances out. It returns the item and the
// slot it was read from.
func (r *Ring) Pop() (int32, int) {
	out := r.seg.Out()
	item := r.seg.Slot(int(out))
	r.seg.SetOut(ring.Next(out, BufferSize))
	return item, int(out)
}

// IndexFull reports (in+1) mod C == out.
func (r *Ring) IndexFull() bool {
	return ring.Next(r.seg.In(), BufferSize) == r.seg.Out()
}

// IndexEmpty reports in == out.
func (r *Ring) IndexEmpty() bool {
	return r.seg.In() == r.seg.Out()
}

// DebugState returns a snapshot of the buffer. Each word is read atomically,
// but the snapshot as a whole is not.
func (r *Ring) DebugState() RingState {
	st := RingState{
		In:  r.seg.In(),
		Out: r.seg.Out(),
	}
	for i := range st.Slots {
		st.Slots[i] = r.seg.Slot(i)
	}
	if r.seg.HasCounter() {
		st.HasCount = true
		st.Counter = int32(r.seg.Counter().Load())
	}
	return st
}
