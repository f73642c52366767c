// Command consumer attaches to the buffer created by the buffer command and
// consumes items from it.
//
// Usage: consumer [flags] [items]
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

	items := 10
	if flag.NArg() > 0 {
		n, err := strconv.Atoi(flag.Arg(0))
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "Usage: %s [flags] [items]\n", filepath.Base(os.Args[0]))
			flag.PrintDefaults()
			os.Exit(1)
		}
		items = n
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
		ConsumeDelay: driver.Uniform(*unit, driver.ConsumeMin, driver.ConsumeMax),
		Log:          logger,
	}
	pair := res.Pair(guard.WithTrace(driver.Tracer(logger)))
	_, runErr := driver.RunConsumer(context.Background(), cfg, pair.Consumer)

	if err := res.Detach(); err != nil {
		logger.Printf("%v", err)
	}
	if runErr != nil {
		logger.Fatalf("%v", runErr)
	}
}
