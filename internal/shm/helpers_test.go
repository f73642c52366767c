//go:build linux && (amd64 || arm64)

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

package shm

import (
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"golang.org/x/sys/unix"
)

var keySeq atomic.Int32

// testKeys returns keys no other test or test binary is using, and removes
// anything left under them when the test ends.
func testKeys(t *testing.T) Keys {
	t.Helper()

	n := int(keySeq.Add(1)) & 0x3f
	base := 0x50000000 | (os.Getpid()&0xffff)<<8 | n<<2
	keys := KeysFromBase(base)

	// Leftovers from a crashed earlier run with the same pid.
	Reclaim(keys)

	t.Cleanup(func() {
		Reclaim(keys)
	})
	return keys
}

// skipIfNoIPC skips the test when the kernel or sandbox refuses System V IPC.
func skipIfNoIPC(t *testing.T, err error) {
	t.Helper()
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		t.Skipf("System V IPC unavailable: %v", err)
	}
}

// createTestResource creates an owned resource under fresh keys and releases
// it at the end of the test if the test did not.
func createTestResource(t *testing.T) *Resource {
	t.Helper()

	res := NewResource(testKeys(t))
	if err := res.Create(); err != nil {
		skipIfNoIPC(t, err)
		t.Fatalf("Failed to create resource %v: %v", res.Keys(), err)
	}
	t.Cleanup(func() {
		if res.State() == Allocated {
			res.Release()
		}
	})
	return res
}
