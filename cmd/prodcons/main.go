// Command prodcons runs one producer goroutine and one consumer goroutine
// over a bounded buffer of ints, using the chosen synchronization strategy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/driver"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
)

func main() {
	var names []string
	for _, k := range guard.Kinds() {
		names = append(names, string(k))
	}
	strategy := flag.String("strategy", string(guard.KindBusyWait), "synchronization strategy: "+strings.Join(names, ", "))
	items := flag.Int("items", 30, "number of items to produce and consume")
	capacity := flag.Int("capacity", 5, "buffer slots")
	unit := flag.Duration("delay-unit", time.Second, "unit of the simulated work delays (0 disables them)")
	flag.Parse()

	if *capacity <= 0 {
		log.Fatalf("Error: capacity must be positive, got %d", *capacity)
	}
	if *items < 0 {
		log.Fatalf("Error: items must not be negative, got %d", *items)
	}

	logger := log.New(os.Stdout, "", 0)
	kind := guard.Kind(*strategy)
	pair, err := guard.NewInProcess[int](kind, *capacity, guard.WithTrace(driver.Tracer(logger)))
	if err != nil {
		log.Fatalf("Failed to set up buffer: %v", err)
	}
	if !kind.Correct() {
		logger.Printf("strategy %s does not synchronize the counter; updates may be lost and the run may hang", kind)
	}

	cfg := driver.Config{
		Items:        *items,
		ProduceDelay: driver.Uniform(*unit, driver.ProduceMin, driver.ProduceMax),
		ConsumeDelay: driver.Uniform(*unit, driver.ConsumeMin, driver.ConsumeMax),
		Log:          logger,
	}
	got, err := driver.Run(context.Background(), cfg, pair)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	fmt.Printf("Final counter is %d\n", pair.Occupancy())
	for i, v := range got {
		if v != i {
			fmt.Printf("Item %d arrived at position %d\n", v, i)
		}
	}
}
