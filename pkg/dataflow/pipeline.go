package dataflow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Stream is a read-only channel of messages.
type Stream[T any] <-chan T

// From creates a stream from a slice of data.
func From[T any](ctx context.Context, items ...T) Stream[T] {
	out := make(chan T, len(items))
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
	}()
	return out
}

// Map transforms the stream using the provided function.
// Items whose error survives the retries are dropped after being passed to the
// error handler. Supports parallelism via WithWorkers; output order is not kept
// with more than one worker.
func Map[In, Out any](ctx context.Context, input Stream[In], fn func(context.Context, In) (Out, error), opts ...Option) Stream[Out] {
	cfg := newConfig(opts)
	out := make(chan Out, cfg.bufferSize)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					return
				}
				var res Out
				err := cfg.attempt(ctx, func() error {
					var err error
					res, err = fn(ctx, msg)
					return err
				})
				if err != nil {
					cfg.handled(err)
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- res:
				}
			}
		}
	}

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go worker()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Batch groups consecutive items into slices of at most size items.
func Batch[T any](ctx context.Context, input Stream[T], size int) Stream[[]T] {
	if size < 1 {
		size = 1
	}
	out := make(chan []T)
	go func() {
		defer close(out)
		batch := make([]T, 0, size)
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case out <- batch:
				batch = make([]T, 0, size)
				return true
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-input:
				if !ok {
					flush()
					return
				}
				batch = append(batch, msg)
				if len(batch) == size && !flush() {
					return
				}
			}
		}
	}()
	return out
}

// ForEach executes an action for every item in the stream.
// It blocks until the stream is exhausted, the context is cancelled or an
// unhandled error occurs. The first unhandled error stops the other workers and
// is returned once the rest of the stream is drained, so upstream stages can
// finish.
func ForEach[T any](ctx context.Context, input Stream[T], fn func(context.Context, T) error, opts ...Option) error {
	cfg := newConfig(opts)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg, ok := <-input:
					if !ok {
						return nil
					}
					err := cfg.attempt(gctx, func() error { return fn(gctx, msg) })
					if err != nil && !cfg.handled(err) {
						return err
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		drain(ctx, input)
		return err
	}
	return ctx.Err()
}

// drain discards the remaining messages until the stream closes or ctx is done.
func drain[T any](ctx context.Context, input Stream[T]) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-input:
			if !ok {
				return
			}
		}
	}
}
