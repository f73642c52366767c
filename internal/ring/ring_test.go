package ring

import (
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 5, 1},
		{3, 5, 4},
		{4, 5, 0},
		{0, 1, 0},
	}
	for _, tc := range tests {
		if got := Next(tc.i, tc.n); got != tc.want {
			t.Errorf("Next(%d, %d): expected %d, got %d", tc.i, tc.n, tc.want, got)
		}
	}
	if got := Next[uint8](254, 255); got != 0 {
		t.Errorf("Next[uint8](254, 255): expected 0, got %d", got)
	}
}

func TestNewPanicsOnBadCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for capacity %d", c)
				}
			}()
			New[int](c)
		}()
	}
}

// Sequential push/pop across several wrap cycles keeps FIFO order and slot
// positions.
func TestBufferWraparound(t *testing.T) {
	const capacity = 5
	b := New[int](capacity)

	next := 0
	for round := 0; round < 7; round++ {
		// Fill a varying number of slots so head/tail wrap at different points.
		n := round%capacity + 1
		for i := 0; i < n; i++ {
			wantSlot := b.Head()
			if slot := b.Push(next + i); slot != wantSlot {
				t.Fatalf("push: expected slot %d, got %d", wantSlot, slot)
			}
		}
		for i := 0; i < n; i++ {
			wantSlot := b.Tail()
			v, slot := b.Pop()
			if v != next+i {
				t.Fatalf("expected %d, got %d (FIFO violated)", next+i, v)
			}
			if slot != wantSlot {
				t.Fatalf("pop: expected slot %d, got %d", wantSlot, slot)
			}
		}
		next += n
	}
	if b.Head() < 0 || b.Head() >= capacity || b.Tail() < 0 || b.Tail() >= capacity {
		t.Fatalf("indices out of range: head=%d tail=%d", b.Head(), b.Tail())
	}
}

func TestIndexFullLeavesOneSlot(t *testing.T) {
	const capacity = 5
	b := New[string](capacity)

	if !b.IndexEmpty() {
		t.Fatalf("expected new buffer to be empty")
	}
	pushed := 0
	for !b.IndexFull() {
		b.Push("x")
		pushed++
		if pushed > capacity {
			t.Fatalf("IndexFull never reported full")
		}
	}
	if pushed != capacity-1 {
		t.Fatalf("expected %d usable slots, got %d", capacity-1, pushed)
	}
	if b.IndexEmpty() {
		t.Fatalf("expected full buffer to be non-empty")
	}
	b.Pop()
	if b.IndexFull() {
		t.Fatalf("expected buffer to have space after pop")
	}
}
