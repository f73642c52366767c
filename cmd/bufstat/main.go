// Command bufstat prints the state of a shared buffer: the segment indices
// and slots, and the three semaphore values. It only attaches, so it is safe
// to run while producers and consumers are active.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/shm"
)

func main() {
	keyBase := flag.Int("key-base", 0, "use keys base..base+3 instead of the defaults (also $"+shm.EnvKeyBase+")")
	watch := flag.Duration("watch", 0, "print again at this interval until interrupted")
	flag.Parse()

	keys, err := shm.LookupKeys(*keyBase)
	if err != nil {
		log.Fatalf("%v", err)
	}
	res := shm.NewResource(keys)
	if err := res.Attach(); err != nil {
		log.Fatalf("Failed to attach: %v", err)
	}
	defer res.Detach()

	fmt.Printf("=== Shared Buffer ===\n")
	fmt.Printf("Keys: %v\n", keys)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		snap, err := res.Snapshot()
		if err != nil {
			// The owner removed the buffer underneath us.
			fmt.Printf("Snapshot failed: %v\n", err)
			return
		}
		fmt.Printf("\nSegment id %d, %d bytes\n", snap.SegmentID, snap.Size)
		fmt.Printf("  %v (index distance %d)\n", snap.Ring, snap.Ring.Used())
		fmt.Printf("  semaphores: full=%d empty=%d mutex=%d\n", snap.Full, snap.Empty, snap.Mutex)

		if *watch <= 0 {
			return
		}
		select {
		case <-time.After(*watch):
		case <-ctx.Done():
			return
		}
	}
}
