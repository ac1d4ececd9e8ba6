package engine

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animcompose/internal/composable"
)

// Task is a composite running on its own worker goroutine.
type Task struct {
	done   chan struct{}
	result Result
	err    error
}

// Start runs the composite in the background. Canceling ctx aborts it between elements or
// frames.
func (c *Compositor) Start(ctx context.Context, descriptors []composable.Composable, sink io.Writer) *Task {
	g, gctx := errgroup.WithContext(ctx)
	t := &Task{done: make(chan struct{})}
	g.Go(func() error {
		res, err := c.Run(gctx, descriptors, sink)
		t.result = res
		return err
	})
	go func() {
		t.err = g.Wait()
		close(t.done)
	}()
	return t
}

func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the composite finishes.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}
