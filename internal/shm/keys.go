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
	"os"
	"strconv"
)

// Keys names the four IPC objects of one shared buffer.
type Keys struct {
	Segment int
	Full    int
	Empty   int
	Mutex   int
}

// EnvKeyBase overrides the default keys when set: the segment gets the base
// and the full, empty and mutex semaphores get base+1, base+2 and base+3.
const EnvKeyBase = "PRODCONS_KEY_BASE"

// DefaultKeys returns the keys compiled into the C buffer.h, so a Go
// producer can share a buffer with a C consumer.
func DefaultKeys() Keys {
	return Keys{Segment: 93, Full: 2065, Empty: 2066, Mutex: 2067}
}

// KeysFromBase returns four consecutive keys starting at base.
func KeysFromBase(base int) Keys {
	return Keys{Segment: base, Full: base + 1, Empty: base + 2, Mutex: base + 3}
}

// LookupKeys resolves the keys for a process: a non-zero base wins, then
// $PRODCONS_KEY_BASE, then DefaultKeys.
func LookupKeys(base int) (Keys, error) {
	if base != 0 {
		return KeysFromBase(base), nil
	}
	if v, ok := os.LookupEnv(EnvKeyBase); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Keys{}, fmt.Errorf("invalid %s=%q", EnvKeyBase, v)
		}
		return KeysFromBase(n), nil
	}
	return DefaultKeys(), nil
}

func (k Keys) String() string {
	return fmt.Sprintf("segment=%d full=%d empty=%d mutex=%d", k.Segment, k.Full, k.Empty, k.Mutex)
}
