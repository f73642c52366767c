// Command producer attaches to the buffer created by the buffer command and
// produces items into it.
//
// Usage: producer [flags] [items] [first-id]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/driver"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/shm"
)

func main() {
	keyBase := flag.Int("key-base", 0, "use keys base..base+3 instead of the defaults (also $"+shm.EnvKeyBase+")")
	unit := flag.Duration("delay-unit", time.Second, "unit of the simulated work delays (0 disables them)")
	flag.Parse()

	items, first := 10, 1
	if flag.NArg() > 0 {
		items = atoi(flag.Arg(0), "items")
	}
	if flag.NArg() > 1 {
		first = atoi(flag.Arg(1), "first-id")
	}

	logger := log.New(os.Stdout, fmt.Sprintf("%s [%d]: ", filepath.Base(os.Args[0]), os.Getpid()), 0)

	keys, err := shm.LookupKeys(*keyBase)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	res := shm.NewResource(keys)
	if err := res.Attach(); err != nil {
		logger.Fatalf("%v (is the buffer process running?)", err)
	}

	cfg := driver.Config{
		Items:        items,
		FirstItem:    first,
		ProduceDelay: driver.Uniform(*unit, driver.ProduceMin, driver.ProduceMax),
		Log:          logger,
	}
	pair := res.Pair(guard.WithTrace(driver.Tracer(logger)))
	runErr := driver.RunProducer(context.Background(), cfg, pair.Producer)

	if err := res.Detach(); err != nil {
		logger.Printf("%v", err)
	}
	if runErr != nil {
		logger.Fatalf("%v", runErr)
	}
}

func atoi(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [items] [first-id]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		log.Fatalf("Error: invalid %s %q", what, s)
	}
	return n
}
