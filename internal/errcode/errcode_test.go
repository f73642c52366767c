package errcode

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestWrapMatchesCodeAndCause(t *testing.T) {
	err := Wrap(AllocFailed, "shmget", syscall.ENOSPC)

	if !errors.Is(err, AllocFailed) {
		t.Fatalf("expected errors.Is(err, AllocFailed), got %v", err)
	}
	if !errors.Is(err, syscall.ENOSPC) {
		t.Fatalf("expected errors.Is(err, ENOSPC), got %v", err)
	}
	if got, want := err.Error(), "alloc_failed (shmget): no space left on device"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(SemFailed, "semop", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"bare code", InvalidState, InvalidState},
		{"wrapped", Wrap(ReleaseFailed, "shmctl", syscall.EINVAL), ReleaseFailed},
		{"fmt wrapped", fmt.Errorf("buffer: %w", New(Unsupported, "semget")), Unsupported},
		{"joined", errors.Join(errors.New("plain"), Wrap(SemFailed, "semctl", syscall.EIDRM)), SemFailed},
		{"plain", errors.New("plain"), ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Of(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
