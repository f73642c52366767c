// Command shmem-counter shares a counted buffer between two processes through
// a private System V segment. The parent produces and a re-executed child
// consumes. With the default unsync strategy both processes update the
// shared counter with a plain load and store, so updates can be lost.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/driver"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/shm"
)

func main() {
	strategy := flag.String("strategy", string(guard.KindUnsynchronized), "unsync or oneempty; the others keep state outside the segment")
	items := flag.Int("items", 30, "number of items to produce and consume")
	unit := flag.Duration("delay-unit", time.Second, "unit of the simulated work delays (0 disables them)")
	child := flag.Int("consume-segment", -1, "internal: run as the consumer of this shmid")
	flag.Parse()

	kind := guard.Kind(*strategy)
	if kind != guard.KindUnsynchronized && kind != guard.KindOneSlotEmpty {
		log.Fatalf("Error: strategy %q cannot be shared between processes", kind)
	}

	logger := log.New(os.Stdout, "", 0)
	cfg := driver.Config{
		Items:        *items,
		ProduceDelay: driver.Uniform(*unit, driver.ProduceMin, driver.ProduceMax),
		ConsumeDelay: driver.Uniform(*unit, driver.ConsumeMin, driver.ConsumeMax),
		Log:          logger,
	}

	if *child >= 0 {
		os.Exit(runConsumer(*child, kind, cfg))
	}
	os.Exit(runProducer(kind, cfg, *unit))
}

func pairOver(seg *shm.Segment, kind guard.Kind, l *log.Logger) guard.Pair[int32] {
	trace := guard.WithTrace(driver.Tracer(l))
	if kind == guard.KindOneSlotEmpty {
		return guard.NewOneSlotEmpty[int32](shm.NewRing(seg), trace)
	}
	return guard.NewUnsynchronized[int32](shm.NewRing(seg), seg.Counter(), trace)
}

func runProducer(kind guard.Kind, cfg driver.Config, unit time.Duration) int {
	seg, err := shm.CreatePrivateSegment(shm.CounterLayoutSize)
	if err != nil {
		log.Printf("Failed to create segment: %v", err)
		return 1
	}
	defer func() {
		if err := seg.Detach(); err != nil {
			log.Printf("%v", err)
		}
		if err := seg.Destroy(); err != nil {
			log.Printf("%v", err)
		}
	}()

	cmd := exec.Command(os.Args[0],
		"-consume-segment", strconv.Itoa(seg.ID),
		"-strategy", string(kind),
		"-items", strconv.Itoa(cfg.Items),
		"-delay-unit", unit.String())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to start consumer: %v", err)
		return 1
	}

	pair := pairOver(seg, kind, cfg.Log)
	if err := driver.RunProducer(context.Background(), cfg, pair.Producer); err != nil {
		log.Printf("Producer failed: %v", err)
		cmd.Process.Kill()
	}

	status := 0
	if err := cmd.Wait(); err != nil {
		log.Printf("Consumer failed: %v", err)
		status = 1
	}
	fmt.Printf("Final counter is %d\n", pair.Occupancy())
	return status
}

func runConsumer(id int, kind guard.Kind, cfg driver.Config) int {
	seg, err := shm.AttachSegmentID(id)
	if err != nil {
		log.Printf("Failed to attach segment %d: %v", id, err)
		return 1
	}
	defer seg.Detach()

	if _, err := driver.RunConsumer(context.Background(), cfg, pairOver(seg, kind, cfg.Log).Consumer); err != nil {
		log.Printf("Consumer failed: %v", err)
		return 1
	}
	return 0
}
