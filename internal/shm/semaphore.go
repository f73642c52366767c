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

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
)

// Semaphore is a System V semaphore set holding a single semaphore. It
// implements guard.Semaphore across processes.
type Semaphore struct {
	ID   int // semid
	Key  int
	Name string // for error messages, e.g. "fullslots"
}

// CreateSemaphore creates the semaphore under key and sets it to initial.
// It fails if the key is taken. If setting the value fails the new set is
// removed again.
func CreateSemaphore(name string, key, initial int) (*Semaphore, error) {
	id, err := semGet(key, true)
	if err != nil {
		return nil, errcode.Wrap(errcode.AllocFailed, fmt.Sprintf("semget (%s) key=%d", name, key), err)
	}
	s := &Semaphore{ID: id, Key: key, Name: name}
	if err := semSet(id, initial); err != nil {
		semRemove(id)
		return nil, errcode.Wrap(errcode.AllocFailed, fmt.Sprintf("semctl(SETVAL) (%s)", name), err)
	}
	return s, nil
}

// OpenSemaphore looks up an existing semaphore. It never creates.
func OpenSemaphore(name string, key int) (*Semaphore, error) {
	id, err := semGet(key, false)
	if err != nil {
		return nil, errcode.Wrap(errcode.AttachFailed, fmt.Sprintf("semget (%s) key=%d", name, key), err)
	}
	return &Semaphore{ID: id, Key: key, Name: name}, nil
}

// Wait decrements the semaphore, blocking while it is zero. If the owner
// removes the semaphore while a process waits, Wait returns an error.
func (s *Semaphore) Wait() error {
	return s.op("wait", -1, false)
}

// TryWait decrements the semaphore if that would not block and reports
// whether it did.
func (s *Semaphore) TryWait() (bool, error) {
	err := semOp(s.ID, -1, true)
	if err == nil {
		return true, nil
	}
	if wouldBlock(err) {
		return false, nil
	}
	return false, errcode.Wrap(errcode.SemFailed, fmt.Sprintf("semop (trywait %s)", s.Name), err)
}

// Signal increments the semaphore.
func (s *Semaphore) Signal() error {
	return s.op("signal", 1, false)
}

func (s *Semaphore) op(what string, delta int16, nowait bool) error {
	if err := semOp(s.ID, delta, nowait); err != nil {
		return errcode.Wrap(errcode.SemFailed, fmt.Sprintf("semop (%s %s)", what, s.Name), err)
	}
	return nil
}

// Value returns the current value (semctl GETVAL).
func (s *Semaphore) Value() (int, error) {
	v, err := semGetValue(s.ID)
	if err != nil {
		return 0, errcode.Wrap(errcode.SemFailed, fmt.Sprintf("semctl(GETVAL) (%s)", s.Name), err)
	}
	return v, nil
}

// Destroy removes the semaphore set. Processes blocked in Wait are woken
// with an error.
func (s *Semaphore) Destroy() error {
	return errcode.Wrap(errcode.ReleaseFailed, fmt.Sprintf("semctl(IPC_RMID) (%s)", s.Name), semRemove(s.ID))
}
