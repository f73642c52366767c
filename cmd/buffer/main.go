// Command buffer owns a shared bounded buffer: it creates the System V
// segment and semaphores, then sleeps until SIGINT or SIGTERM and removes
// them again. Run producer and consumer processes against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/shm"
)

func main() {
	keyBase := flag.Int("key-base", 0, "use keys base..base+3 instead of the defaults (also $"+shm.EnvKeyBase+")")
	reclaim := flag.Bool("reclaim", false, "remove objects left behind by a killed buffer process, then exit")
	flag.Parse()

	logger := log.New(os.Stdout, fmt.Sprintf("buffer [%d]: ", os.Getpid()), 0)

	keys, err := shm.LookupKeys(*keyBase)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	if *reclaim {
		n, err := shm.Reclaim(keys)
		logger.Printf("removed %d objects (%v)", n, keys)
		if err != nil {
			logger.Fatalf("reclaim: %v", err)
		}
		return
	}

	// Trap signals before creating anything so an early SIGTERM still
	// cleans up.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := shm.NewResource(keys)
	if err := res.Create(); err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Printf("created shared buffer (%v); waiting for a signal", keys)

	sig, err := res.ServeUntilSignal(ctx)
	if sig != nil {
		logger.Printf("got signal %v, cleaning up and exiting", sig)
	} else {
		logger.Printf("got signal, cleaning up and exiting")
	}
	if err != nil {
		logger.Printf("cleanup: %v", err)
		os.Exit(1)
	}
}
