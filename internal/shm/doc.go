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

// Package shm shares a bounded buffer between processes using System V IPC.
//
// A buffer is one shared memory segment laid out exactly like the C struct
//
//	typedef struct {
//	  int buffer[5];
//	  int in;
//	  int out;
//	  int counter; /* counter layout only */
//	} shared_data;
//
// plus three single-element semaphore sets for full slots, empty slots and
// the index mutex. Every object is named by an integer IPC key, so unrelated
// processes that agree on the keys find the same buffer.
//
// One process, the owner, creates the objects with Resource.Create and
// removes them with Resource.Release, typically from ServeUntilSignal when
// SIGINT or SIGTERM arrives. Producers and consumers only Attach and Detach.
// Objects left behind by an owner that died without cleaning up can be
// removed with Reclaim.
package shm
