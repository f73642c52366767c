//go:build linux && (amd64 || arm64)

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
	"unsafe"

	"golang.org/x/sys/unix"
)

// semctl commands and semop flags from <linux/sem.h> and <linux/ipc.h>.
const (
	semGetVal = 12
	semSetVal = 16
	ipcNoWait = 0x800
)

const perm = 0o600

// sembuf mirrors struct sembuf.
type sembuf struct {
	num uint16
	op  int16
	flg int16
}

func shmGet(key, size int, create bool) (int, error) {
	flag := perm
	if create {
		flag |= unix.IPC_CREAT | unix.IPC_EXCL
	}
	return unix.SysvShmGet(key, size, flag)
}

func shmAttach(id int) ([]byte, error) {
	return unix.SysvShmAttach(id, 0, 0)
}

func shmDetach(mem []byte) error {
	return unix.SysvShmDetach(mem)
}

func shmRemove(id int) error {
	_, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil)
	return err
}

func semGet(key int, create bool) (int, error) {
	flag := perm
	if create {
		flag |= unix.IPC_CREAT | unix.IPC_EXCL
	}
	r, _, errno := unix.Syscall(unix.SYS_SEMGET, uintptr(key), 1, uintptr(flag))
	if errno != 0 {
		return -1, errno
	}
	return int(r), nil
}

// semOp applies delta to the single semaphore in set id. The Go runtime
// preempts with signals, so an interrupted wait is restarted.
func semOp(id int, delta int16, nowait bool) error {
	b := sembuf{op: delta}
	if nowait {
		b.flg = ipcNoWait
	}
	for {
		_, _, errno := unix.Syscall(unix.SYS_SEMOP, uintptr(id), uintptr(unsafe.Pointer(&b)), 1)
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		}
		return errno
	}
}

func semSet(id, val int) error {
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, semSetVal, uintptr(val), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func semGetValue(id int) (int, error) {
	r, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, semGetVal, 0, 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

func semRemove(id int) error {
	_, _, errno := unix.Syscall6(unix.SYS_SEMCTL, uintptr(id), 0, unix.IPC_RMID, 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// wouldBlock reports whether err is semop's answer to IPC_NOWAIT on a zero
// semaphore.
func wouldBlock(err error) bool {
	return err == unix.EAGAIN
}

// notExist reports whether err means no object has the requested key.
func notExist(err error) bool {
	return err == unix.ENOENT
}
