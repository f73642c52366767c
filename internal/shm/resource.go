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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
)

// State is the lifecycle position of a Resource.
type State int

const (
	Unallocated State = iota
	Allocated         // created by this process, which owns it
	Attached          // created elsewhere
	Released
)

func (s State) String() string {
	switch s {
	case Unallocated:
		return "unallocated"
	case Allocated:
		return "allocated"
	case Attached:
		return "attached"
	case Released:
		return "released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Resource is one shared buffer: the segment and its three semaphores.
//
// The owner calls Create and later Release. Everyone else calls Attach and
// later Detach. Calling an operation from the wrong state returns
// errcode.InvalidState. Ring, Semaphores and Pair have no error return and
// panic unless the resource is Allocated or Attached.
type Resource struct {
	keys Keys

	mu    sync.Mutex
	state State
	seg   *Segment
	full  *Semaphore
	empty *Semaphore
	mutex *Semaphore
}

// NewResource returns an Unallocated resource for keys.
func NewResource(keys Keys) *Resource {
	return &Resource{keys: keys}
}

// Keys returns the keys the resource was built with.
func (r *Resource) Keys() Keys {
	return r.keys
}

// State returns the current state.
func (r *Resource) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Resource) invalid(op string) error {
	return errcode.New(errcode.InvalidState, fmt.Sprintf("%s from %s", op, r.state))
}

// live reports whether the segment is mapped and the semaphores are open.
// r.mu must be held.
func (r *Resource) live() bool {
	return r.state == Allocated || r.state == Attached
}

func (r *Resource) mustBeLive(op string) {
	if !r.live() {
		panic(fmt.Sprintf("shm: %s on %s resource", op, r.state))
	}
}

// Create allocates the segment and the semaphores, all exclusively, and sets
// full=0, empty=BufferSize, mutex=1. On failure everything created so far is
// removed again and the joined errors are returned.
func (r *Resource) Create() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Unallocated {
		return r.invalid("create")
	}

	var undo []func() error
	fail := func(err error) error {
		errs := []error{err}
		for i := len(undo) - 1; i >= 0; i-- {
			errs = append(errs, undo[i]())
		}
		return errors.Join(errs...)
	}

	seg, err := CreateSegment(r.keys.Segment, BufferLayoutSize)
	if err != nil {
		return fail(err)
	}
	undo = append(undo, seg.Destroy, seg.Detach)

	full, err := CreateSemaphore("fullslots", r.keys.Full, 0)
	if err != nil {
		return fail(err)
	}
	undo = append(undo, full.Destroy)

	empty, err := CreateSemaphore("emptyslots", r.keys.Empty, BufferSize)
	if err != nil {
		return fail(err)
	}
	undo = append(undo, empty.Destroy)

	mutex, err := CreateSemaphore("mutex", r.keys.Mutex, 1)
	if err != nil {
		return fail(err)
	}

	r.seg, r.full, r.empty, r.mutex = seg, full, empty, mutex
	r.state = Allocated
	return nil
}

// Attach finds the objects another process created. It never creates.
func (r *Resource) Attach() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Unallocated {
		return r.invalid("attach")
	}

	seg, err := AttachSegment(r.keys.Segment)
	if err != nil {
		return err
	}
	var sems [3]*Semaphore
	for i, s := range []struct {
		name string
		key  int
	}{
		{"fullslots", r.keys.Full},
		{"emptyslots", r.keys.Empty},
		{"mutex", r.keys.Mutex},
	} {
		if sems[i], err = OpenSemaphore(s.name, s.key); err != nil {
			return errors.Join(err, seg.Detach())
		}
	}

	r.seg, r.full, r.empty, r.mutex = seg, sems[0], sems[1], sems[2]
	r.state = Attached
	return nil
}

// Detach unmaps an attached segment. The objects stay for the owner to
// remove.
func (r *Resource) Detach() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Attached {
		return r.invalid("detach")
	}
	r.state = Released
	return r.seg.Detach()
}

// Release detaches and removes the segment and removes all three
// semaphores. Every step is attempted even if an earlier one fails.
func (r *Resource) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Allocated {
		return r.invalid("release")
	}
	r.state = Released
	return errors.Join(
		r.seg.Detach(),
		r.seg.Destroy(),
		r.empty.Destroy(),
		r.full.Destroy(),
		r.mutex.Destroy(),
	)
}

// ServeUntilSignal blocks until SIGINT or SIGTERM arrives or ctx is done,
// then releases the resource. It returns the signal, or nil if ctx ended
// the wait, and the Release error.
//
// SIGKILL cannot be caught; a killed owner leaves its objects behind for
// Reclaim.
func (r *Resource) ServeUntilSignal(ctx context.Context) (os.Signal, error) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var sig os.Signal
	select {
	case sig = <-sigs:
	case <-ctx.Done():
	}
	return sig, r.Release()
}

// Ring returns the buffer view of the segment. It panics unless the
// resource is Allocated or Attached.
func (r *Resource) Ring() *Ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeLive("ring")
	return NewRing(r.seg)
}

// Semaphores returns the three semaphores for guard.NewSemaphorePair. It
// panics unless the resource is Allocated or Attached.
func (r *Resource) Semaphores() guard.Semaphores {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustBeLive("semaphores")
	return guard.Semaphores{Empty: r.empty, Full: r.full, Mutex: r.mutex}
}

// Pair returns the semaphore strategy over this buffer. A producer process
// uses Pair().Producer and a consumer process Pair().Consumer. Like Ring, it
// panics unless the resource is Allocated or Attached.
func (r *Resource) Pair(opts ...guard.Option) guard.Pair[int32] {
	return guard.NewSemaphorePair[int32](r.Ring(), r.Semaphores(), opts...)
}

// Snapshot is the observable state of a shared buffer.
type Snapshot struct {
	SegmentID int
	Size      int
	Ring      RingState
	Full      int
	Empty     int
	Mutex     int
}

// Snapshot reads the buffer and the semaphore values. It returns
// errcode.InvalidState unless the resource is Allocated or Attached.
func (r *Resource) Snapshot() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live() {
		return Snapshot{}, r.invalid("snapshot")
	}
	snap := Snapshot{
		SegmentID: r.seg.ID,
		Size:      r.seg.Size(),
		Ring:      NewRing(r.seg).DebugState(),
	}
	var errs []error
	for _, s := range []struct {
		sem *Semaphore
		dst *int
	}{
		{r.full, &snap.Full},
		{r.empty, &snap.Empty},
		{r.mutex, &snap.Mutex},
	} {
		v, err := s.sem.Value()
		errs = append(errs, err)
		*s.dst = v
	}
	return snap, errors.Join(errs...)
}

// Reclaim removes whatever objects exist under keys, as ipcrm would. It is
// meant for cleaning up after an owner that was killed without releasing.
// It returns how many objects it removed.
func Reclaim(keys Keys) (int, error) {
	removed := 0
	var errs []error

	if id, err := shmGet(keys.Segment, 0, false); err == nil {
		if err := shmRemove(id); err != nil {
			errs = append(errs, errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("shmctl(IPC_RMID) key=%d", keys.Segment), err))
		} else {
			removed++
		}
	} else if !notExist(err) {
		errs = append(errs, errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("shmget key=%d", keys.Segment), err))
	}

	for _, key := range []int{keys.Full, keys.Empty, keys.Mutex} {
		id, err := semGet(key, false)
		if err != nil {
			if !notExist(err) {
				errs = append(errs, errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("semget key=%d", key), err))
			}
			continue
		}
		if err := semRemove(id); err != nil {
			errs = append(errs, errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("semctl(IPC_RMID) key=%d", key), err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
