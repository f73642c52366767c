//go:build !linux || !(amd64 || arm64)

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
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/errcode"
)

var errUnsupported = errcode.New(errcode.Unsupported, "System V IPC on this platform")

func shmGet(key, size int, create bool) (int, error) { return -1, errUnsupported }
func shmAttach(id int) ([]byte, error)                { return nil, errUnsupported }
func shmDetach(mem []byte) error                      { return errUnsupported }
func shmRemove(id int) error                          { return errUnsupported }
func semGet(key int, create bool) (int, error)        { return -1, errUnsupported }
func semOp(id int, delta int16, nowait bool) error    { return errUnsupported }
func semSet(id, val int) error                        { return errUnsupported }
func semGetValue(id int) (int, error)                 { return 0, errUnsupported }
func semRemove(id int) error                          { return errUnsupported }
func wouldBlock(err error) bool                       { return false }
func notExist(err error) bool                         { return false }
