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
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
)

func TestMain(m *testing.M) {
	if len(os.Args) >= 4 && strings.HasPrefix(os.Args[1], "-test.run=Helper") {
		helper := strings.TrimPrefix(os.Args[1], "-test.run=")
		args := os.Args[3:] // skip "--"
		os.Exit(runHelper(helper, args))
	}
	os.Exit(m.Run())
}

func runHelper(name string, args []string) int {
	ints := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: bad argument %q\n", name, a)
			return 2
		}
		ints[i] = n
	}

	switch name {
	case "HelperOwner":
		return runHelperOwner(KeysFromBase(ints[0]))
	case "HelperConsumer":
		return runHelperConsumer(KeysFromBase(ints[0]), ints[1])
	case "HelperIndexConsumer":
		return runHelperIndexConsumer(ints[0], ints[1])
	}
	fmt.Fprintf(os.Stderr, "unknown helper %s\n", name)
	return 2
}

// runHelperOwner plays cmd/buffer: create, report ready, clean up on signal.
func runHelperOwner(keys Keys) int {
	// Catch signals before announcing readiness; the parent signals as soon
	// as it reads "ready".
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := NewResource(keys)
	if err := res.Create(); err != nil {
		fmt.Fprintf(os.Stderr, "create: %v\n", err)
		return 1
	}
	fmt.Println("ready")

	sig, err := res.ServeUntilSignal(ctx)
	fmt.Printf("got signal %v\n", sig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "release: %v\n", err)
		return 1
	}
	return 0
}

// runHelperConsumer plays cmd/consumer: attach, consume n, print each value.
func runHelperConsumer(keys Keys, n int) int {
	res := NewResource(keys)
	if err := res.Attach(); err != nil {
		fmt.Fprintf(os.Stderr, "attach: %v\n", err)
		return 1
	}
	defer res.Detach()

	c := res.Pair().Consumer
	for i := 0; i < n; i++ {
		v, _, err := c.Consume()
		if err != nil {
			fmt.Fprintf(os.Stderr, "consume %d: %v\n", i, err)
			return 1
		}
		fmt.Println(v)
	}
	return 0
}

// runHelperIndexConsumer consumes n values from a private segment using the
// one-slot-empty discipline, which keeps all of its state in the segment.
func runHelperIndexConsumer(id, n int) int {
	seg, err := AttachSegmentID(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "attach: %v\n", err)
		return 1
	}
	defer seg.Detach()

	c := guard.NewOneSlotEmpty[int32](NewRing(seg)).Consumer
	for i := 0; i < n; i++ {
		v, _, _ := c.Consume()
		fmt.Println(v)
	}
	return 0
}

func helperCommand(name string, args ...int) *exec.Cmd {
	argv := []string{"-test.run=" + name, "--"}
	for _, a := range args {
		argv = append(argv, strconv.Itoa(a))
	}
	return exec.Command(os.Args[0], argv...)
}

func parseValues(t *testing.T, out []byte) []int {
	t.Helper()
	var vals []int
	for _, line := range strings.Fields(string(out)) {
		v, err := strconv.Atoi(line)
		if err != nil {
			t.Fatalf("unexpected helper output %q", line)
		}
		vals = append(vals, v)
	}
	return vals
}

func TestCrossProcessSemaphoreFIFO(t *testing.T) {
	const n = 30
	res := createTestResource(t)

	cmd := helperCommand("HelperConsumer", res.Keys().Segment, n)
	cmd.Stderr = os.Stderr
	out := make(chan []byte, 1)
	go func() {
		b, err := cmd.Output()
		if err != nil {
			t.Errorf("consumer process: %v", err)
		}
		out <- b
	}()

	p := res.Pair().Producer
	for i := 0; i < n; i++ {
		if _, err := p.Produce(int32(i)); err != nil {
			t.Fatalf("produce %d: %v", i, err)
		}
	}

	var vals []int
	select {
	case b := <-out:
		vals = parseValues(t, b)
	case <-time.After(30 * time.Second):
		cmd.Process.Kill()
		t.Fatalf("consumer process did not finish")
	}

	if len(vals) != n {
		t.Fatalf("expected %d values, got %d", n, len(vals))
	}
	for i, v := range vals {
		if v != i {
			t.Fatalf("expected %d at position %d, got %d", i, i, v)
		}
	}
	snap, err := res.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Full != 0 || snap.Empty != BufferSize || snap.Mutex != 1 {
		t.Fatalf("expected drained buffer, got full=%d empty=%d mutex=%d", snap.Full, snap.Empty, snap.Mutex)
	}
}

func TestCrossProcessOneSlotEmpty(t *testing.T) {
	const n = 30
	seg := createTestSegment(t, BufferLayoutSize)

	cmd := helperCommand("HelperIndexConsumer", seg.ID, n)
	cmd.Stderr = os.Stderr
	out := make(chan []byte, 1)
	go func() {
		b, err := cmd.Output()
		if err != nil {
			t.Errorf("consumer process: %v", err)
		}
		out <- b
	}()

	p := guard.NewOneSlotEmpty[int32](NewRing(seg)).Producer
	for i := 0; i < n; i++ {
		p.Produce(int32(i))
	}

	select {
	case b := <-out:
		vals := parseValues(t, b)
		if len(vals) != n {
			t.Fatalf("expected %d values, got %d", n, len(vals))
		}
		for i, v := range vals {
			if v != i {
				t.Fatalf("expected %d at position %d, got %d", i, i, v)
			}
		}
	case <-time.After(30 * time.Second):
		cmd.Process.Kill()
		t.Fatalf("consumer process did not finish")
	}
}

// startOwner runs HelperOwner and waits until it has created the resource.
func startOwner(t *testing.T, keys Keys) *exec.Cmd {
	t.Helper()

	// Create once in this process so a sandbox without IPC skips instead of failing in the child.
	scratch := NewResource(keys)
	if err := scratch.Create(); err != nil {
		skipIfNoIPC(t, err)
		t.Fatal(err)
	}
	if err := scratch.Release(); err != nil {
		t.Fatal(err)
	}

	cmd := helperCommand("HelperOwner", keys.Segment)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start owner: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})

	ready := make(chan bool, 1)
	go func() {
		sc := bufio.NewScanner(stdout)
		ready <- sc.Scan() && sc.Text() == "ready"
		for sc.Scan() {
		}
	}()
	select {
	case ok := <-ready:
		if !ok {
			t.Fatalf("owner did not report ready")
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("owner did not start")
	}
	return cmd
}

func TestOwnerReleasesOnSignal(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGTERM, syscall.SIGINT} {
		t.Run(sig.String(), func(t *testing.T) {
			keys := testKeys(t)
			owner := startOwner(t, keys)

			// While the owner lives the keys are taken.
			if err := NewResource(keys).Create(); !errors.Is(err, unix.EEXIST) {
				t.Fatalf("expected EEXIST while owner runs, got %v", err)
			}

			if err := owner.Process.Signal(sig); err != nil {
				t.Fatal(err)
			}
			if err := owner.Wait(); err != nil {
				t.Fatalf("owner exited with %v", err)
			}

			res := NewResource(keys)
			if err := res.Create(); err != nil {
				t.Fatalf("Create after owner cleanup: %v", err)
			}
			if err := res.Release(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestKilledOwnerLeaksUntilReclaim(t *testing.T) {
	keys := testKeys(t)
	owner := startOwner(t, keys)

	if err := owner.Process.Kill(); err != nil {
		t.Fatal(err)
	}
	owner.Wait()

	if err := NewResource(keys).Create(); !errors.Is(err, unix.EEXIST) {
		t.Fatalf("expected leaked objects after SIGKILL, got %v", err)
	}
	n, err := Reclaim(keys)
	if err != nil || n != 4 {
		t.Fatalf("expected Reclaim to remove 4 objects, removed %d (%v)", n, err)
	}
	res := NewResource(keys)
	if err := res.Create(); err != nil {
		t.Fatalf("Create after Reclaim: %v", err)
	}
	res.Release()
}
