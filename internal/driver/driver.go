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

// Package driver runs the producer and consumer loops of the demos on top of
// any guard strategy, simulating work with random delays and narrating each
// step to a logger.
package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/valyala/fastrand"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"

	"github.com/SienaCSISOperatingSystems/prodcons-examples/internal/guard"
)

// Delay returns how long to pause before the next item. A nil Delay never
// pauses.
type Delay func() time.Duration

// Uniform returns a Delay drawn uniformly from lo..hi whole units. It returns
// nil when unit is not positive, so tests can run without sleeping.
func Uniform(unit time.Duration, lo, hi int) Delay {
	if unit <= 0 {
		return nil
	}
	if hi < lo {
		panic(fmt.Sprintf("driver: empty delay range %d..%d", lo, hi))
	}
	span := uint32(hi - lo + 1)
	return func() time.Duration {
		return time.Duration(lo+int(fastrand.Uint32n(span))) * unit
	}
}

// Default delay ranges, in units, for simulated work.
const (
	ProduceMin, ProduceMax = 1, 4
	ConsumeMin, ConsumeMax = 1, 5
)

// Config controls one run.
type Config struct {
	Items     int // items each side handles
	FirstItem int // value of the first item produced

	ProduceDelay Delay // before each produce
	ConsumeDelay Delay // after each consume

	Log *log.Logger // nil discards the narration
}

func (c *Config) logf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Printf(format, args...)
	}
}

// Tracer returns a guard.Trace that logs when a side starts waiting. Pass it
// with guard.WithTrace so the wait is reported as it begins rather than after.
func Tracer(l *log.Logger) guard.Trace {
	return func(e guard.Event) {
		if e.Kind != guard.EventWaiting || l == nil {
			return
		}
		switch e.Side {
		case guard.ProducerSide:
			l.Printf("P: waiting for open slot")
		case guard.ConsumerSide:
			l.Printf("C: waiting for item")
		}
	}
}

func pause(ctx context.Context, d Delay) error {
	if d == nil {
		return ctx.Err()
	}
	t := time.NewTimer(d())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Config) logWait(side string, r guard.Receipt) {
	switch {
	case r.Spins > 0:
		c.logf("%s: done waiting (cycled %d times)", side, r.Spins)
	case r.Blocked:
		c.logf("%s: done waiting", side)
	}
}

// RunProducer produces cfg.Items consecutive values starting at
// cfg.FirstItem. Cancellation is checked between items; a Produce already
// waiting for space is not interrupted.
func RunProducer[T constraints.Integer](ctx context.Context, cfg Config, p guard.Producer[T]) error {
	for i := 0; i < cfg.Items; i++ {
		if err := pause(ctx, cfg.ProduceDelay); err != nil {
			return err
		}
		item := T(cfg.FirstItem + i)
		cfg.logf("P: produced %d", item)

		r, err := p.Produce(item)
		if err != nil {
			return fmt.Errorf("produce %d: %w", item, err)
		}
		cfg.logWait("P", r)
		if r.Counted {
			cfg.logf("P: adding item %d at slot %d (counter=%d->%d)", item, r.Slot, r.Before, r.After)
		} else {
			cfg.logf("P: adding item %d at slot %d", item, r.Slot)
		}
	}
	return nil
}

// RunConsumer consumes cfg.Items values and returns them in the order they
// were taken.
func RunConsumer[T constraints.Integer](ctx context.Context, cfg Config, c guard.Consumer[T]) ([]T, error) {
	got := make([]T, 0, cfg.Items)
	for i := 0; i < cfg.Items; i++ {
		if err := ctx.Err(); err != nil {
			return got, err
		}
		item, r, err := c.Consume()
		if err != nil {
			return got, fmt.Errorf("consume #%d: %w", i, err)
		}
		got = append(got, item)
		cfg.logWait("C", r)
		if r.Counted {
			cfg.logf("C: consuming value %d from slot %d (counter=%d->%d)", item, r.Slot, r.Before, r.After)
		} else {
			cfg.logf("C: consuming value %d from slot %d", item, r.Slot)
		}

		if err := pause(ctx, cfg.ConsumeDelay); err != nil {
			return got, err
		}
	}
	return got, nil
}

// Run drives both ends of pair concurrently and returns what the consumer
// received. The first error cancels the other loop at its next item
// boundary.
func Run[T constraints.Integer](ctx context.Context, cfg Config, pair guard.Pair[T]) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)

	var got []T
	g.Go(func() error {
		return RunProducer(ctx, cfg, pair.Producer)
	})
	g.Go(func() error {
		var err error
		got, err = RunConsumer(ctx, cfg, pair.Consumer)
		return err
	})
	err := g.Wait()
	return got, err
}
