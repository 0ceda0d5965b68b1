// Package controller runs the periodic loops that sample sensors and drive
// outputs.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/datadog"
	"github.com/thatsimonsguy/brew-controller/internal/notifications"
)

// TickFunc does one iteration of a loop.
type TickFunc func(ctx context.Context) error

var notify = notifications.Notify

// Loop calls Tick every Period until its context is cancelled. A failing or
// panicking tick is logged and the loop carries on. After MaxFailures
// consecutive failures an alert is sent once; it re-arms on the next success.
type Loop struct {
	Name        string
	Period      time.Duration
	Tick        TickFunc
	MaxFailures int

	failures atomic.Int64
	alerted  bool
}

func NewLoop(name string, period time.Duration, tick TickFunc) *Loop {
	return &Loop{Name: name, Period: period, Tick: tick}
}

// Run blocks until ctx is done. The first tick runs immediately.
func (l *Loop) Run(ctx context.Context) {
	log.Info().Str("loop", l.Name).Dur("period", l.Period).Msg("Starting loop")
	ticker := time.NewTicker(l.Period)
	defer ticker.Stop()

	for {
		l.step(ctx)

		select {
		case <-ctx.Done():
			log.Info().Str("loop", l.Name).Msg("Loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) step(ctx context.Context) {
	if err := l.safeTick(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		failures := int(l.failures.Add(1))
		log.Error().Err(err).Str("loop", l.Name).Int("consecutive_failures", failures).Msg("Loop iteration failed")
		datadog.Count("loop.failures", 1, "loop:"+l.Name)

		if l.MaxFailures > 0 && failures >= l.MaxFailures && !l.alerted {
			l.alerted = true
			notify("Brewery Loop Failing", fmt.Sprintf("%s failed %d times in a row: %v", l.Name, failures, err))
		}
		return
	}

	if l.alerted {
		log.Info().Str("loop", l.Name).Msg("Loop recovered")
		notify("Brewery Loop Recovered", l.Name+" is running again")
	}
	l.failures.Store(0)
	l.alerted = false
}

func (l *Loop) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.Tick(ctx)
}

// Failures is the current run of consecutive failed ticks. It is safe to
// call while Run is active.
func (l *Loop) Failures() int {
	return int(l.failures.Load())
}

// Group runs loops on their own goroutines and waits for all of them.
type Group struct {
	wg sync.WaitGroup
}

func (g *Group) Go(ctx context.Context, l *Loop) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		l.Run(ctx)
	}()
}

// Wait blocks until every loop has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
