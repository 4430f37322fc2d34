// Package background runs best-effort tasks detached from the request
// that spawned them, so secondary work (deleting a replaced banner
// object) never blocks or fails the primary mutation.
package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

// Go runs fn on its own goroutine. Errors and panics are logged and
// absorbed; the task has no way to fail its caller.
func (b *Background) Go(name string, fn func() error) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				b.log.WithFields(logrus.Fields{
					"task":    name,
					"message": fmt.Sprintf("PANIC [%v]", rec),
				}).Error("background task panicked")
			}
		}()

		if err := fn(); err != nil {
			b.log.WithFields(logrus.Fields{
				"task":    name,
				"message": err,
			}).Error("background task failed")
		}
	}()
}

// Shutdown waits for in-flight tasks, giving up when ctx expires.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}
