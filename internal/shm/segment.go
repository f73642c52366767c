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
	"sync/atomic"
	"unsafe"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
)

// Memory layout constants
const (
	// BufferSize is the number of slots in a shared buffer.
	BufferSize = 5

	wordSize = 4 // sizeof(int)

	offIn      = BufferSize * wordSize // 0x14: int in
	offOut     = offIn + wordSize      // 0x18: int out
	offCounter = offOut + wordSize     // 0x1C: int counter (counter layout only)

	// BufferLayoutSize is sizeof(shared_data) without a counter.
	BufferLayoutSize = offCounter
	// CounterLayoutSize is sizeof(shared_data) with the trailing counter.
	CounterLayoutSize = offCounter + wordSize
)

// privateKey is IPC_PRIVATE: a fresh segment reachable only by its ID.
const privateKey = 0

// Segment is an attached System V shared memory segment holding a buffer.
// All accessors go through sync/atomic so the other process sees whole words.
type Segment struct {
	ID  int    // shmid
	Key int    // IPC key, 0 for a private segment
	mem []byte // attached region
}

// CreateSegment creates and attaches a new segment of size bytes under key.
// It fails if a segment with that key already exists. The buffer starts
// zeroed, with in = out = 0.
func CreateSegment(key, size int) (*Segment, error) {
	if size < BufferLayoutSize {
		return nil, errcode.Wrap(errcode.AllocFailed, "shmget",
			fmt.Errorf("segment size %d is below minimum %d", size, BufferLayoutSize))
	}
	id, err := shmGet(key, size, true)
	if err != nil {
		return nil, errcode.Wrap(errcode.AllocFailed, fmt.Sprintf("shmget key=%d", key), err)
	}
	seg, err := attachID(id, key)
	if err != nil {
		// Don't leak a segment nobody can reach through us.
		shmRemove(id)
		return nil, err
	}
	seg.SetIn(0)
	seg.SetOut(0)
	if seg.HasCounter() {
		seg.counter().Store(0)
	}
	return seg, nil
}

// CreatePrivateSegment creates an IPC_PRIVATE segment. Other processes can
// only reach it through AttachSegmentID.
func CreatePrivateSegment(size int) (*Segment, error) {
	return CreateSegment(privateKey, size)
}

// AttachSegment attaches the existing segment under key. It never creates.
func AttachSegment(key int) (*Segment, error) {
	id, err := shmGet(key, 0, false)
	if err != nil {
		return nil, errcode.Wrap(errcode.AttachFailed, fmt.Sprintf("shmget key=%d", key), err)
	}
	return attachID(id, key)
}

// AttachSegmentID attaches a segment by shmid, as a child handed a private
// segment does.
func AttachSegmentID(id int) (*Segment, error) {
	return attachID(id, privateKey)
}

func attachID(id, key int) (*Segment, error) {
	mem, err := shmAttach(id)
	if err != nil {
		return nil, errcode.Wrap(errcode.AttachFailed, fmt.Sprintf("shmat id=%d", id), err)
	}
	if len(mem) < BufferLayoutSize {
		shmDetach(mem)
		return nil, errcode.Wrap(errcode.AttachFailed, fmt.Sprintf("shmat id=%d", id),
			fmt.Errorf("segment too small: %d bytes", len(mem)))
	}
	return &Segment{ID: id, Key: key, mem: mem}, nil
}

// Detach unmaps the segment from this process. The segment itself survives
// until Destroy. Detaching twice is a no-op.
func (s *Segment) Detach() error {
	if s.mem == nil {
		return nil
	}
	err := shmDetach(s.mem)
	s.mem = nil
	return errcode.Wrap(errcode.ReleaseFailed, "shmdt", err)
}

// Destroy marks the segment for removal. The kernel frees it once every
// process has detached.
func (s *Segment) Destroy() error {
	return errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("shmctl(IPC_RMID) id=%d", s.ID), shmRemove(s.ID))
}

// Attached reports whether the segment is still mapped.
func (s *Segment) Attached() bool {
	return s.mem != nil
}

// Size returns the mapped size in bytes.
func (s *Segment) Size() int {
	return len(s.mem)
}

// HasCounter reports whether the segment is large enough for the counter word.
func (s *Segment) HasCounter() bool {
	return len(s.mem) >= CounterLayoutSize
}

func (s *Segment) word(off int) *int32 {
	return (*int32)(unsafe.Pointer(&s.mem[off]))
}

// In returns the next slot the producer writes.
func (s *Segment) In() int32 {
	return atomic.LoadInt32(s.word(offIn))
}

// SetIn sets the producer index.
func (s *Segment) SetIn(v int32) {
	atomic.StoreInt32(s.word(offIn), v)
}

// Out returns the next slot the consumer reads.
func (s *Segment) Out() int32 {
	return atomic.LoadInt32(s.word(offOut))
}

// SetOut sets the consumer index.
func (s *Segment) SetOut(v int32) {
	atomic.StoreInt32(s.word(offOut), v)
}

// Slot returns buffer[i].
func (s *Segment) Slot(i int) int32 {
	return atomic.LoadInt32(s.word(i * wordSize))
}

// SetSlot stores v in buffer[i].
func (s *Segment) SetSlot(i int, v int32) {
	atomic.StoreInt32(s.word(i*wordSize), v)
}

// Counter returns the shared counter word as a guard.Counter. It panics if
// the segment was created with the buffer-only layout.
func (s *Segment) Counter() *Counter {
	if !s.HasCounter() {
		panic(fmt.Sprintf("shm: segment %d has no counter (%d bytes)", s.ID, len(s.mem)))
	}
	return s.counter()
}

func (s *Segment) counter() *Counter {
	return &Counter{p: s.word(offCounter)}
}

// Counter is the int counter word of the counter layout. Load and Store are
// separate atomic operations; there is no read-modify-write.
type Counter struct {
	p *int32
}

// Load reads the counter.
func (c *Counter) Load() int64 {
	return int64(atomic.LoadInt32(c.p))
}

// Store writes the counter.
func (c *Counter) Store(v int64) {
	atomic.StoreInt32(c.p, int32(v))
}
