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
	"runtime"
	"sync/atomic"
)

// Peterson is Peterson's software mutual exclusion for exactly two parties,
// ProducerSide and ConsumerSide. It cannot be extended to more participants.
//
// The algorithm needs sequentially consistent loads and stores, which
// sync/atomic provides.
type Peterson struct {
	flag [2]atomic.Bool
	turn atomic.Int32
}

// Enter spins until side holds the section and returns the number of spins.
func (p *Peterson) Enter(side Side) int64 {
	if side != ProducerSide && side != ConsumerSide {
		panic("guard: Peterson supports exactly two sides")
	}
	other := side.Other()
	p.flag[side].Store(true)
	p.turn.Store(int32(other))

	var spins int64
	for p.flag[other].Load() && p.turn.Load() == int32(other) {
		spins++
		if spins%yieldEvery == 0 {
			runtime.Gosched()
		}
	}
	return spins
}

// Exit leaves the section.
func (p *Peterson) Exit(side Side) {
	p.flag[side].Store(false)
}
