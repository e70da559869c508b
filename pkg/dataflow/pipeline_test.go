package dataflow_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/locvowork/excelmerge/pkg/dataflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID   string
	Name string
}

func TestPipeline_MapWithRetry(t *testing.T) {
	ctx := context.Background()

	source := dataflow.From(ctx, "1,Alice", "2,Bob", "retry,Charlie", "broken")

	var dropped int32
	parsed := dataflow.Map(ctx, source, func(_ context.Context, s string) (row, error) {
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return row{}, fmt.Errorf("invalid format: %q", s)
		}
		return row{ID: parts[0], Name: parts[1]}, nil
	}, dataflow.WithWorkers(2), dataflow.WithErrorHandler(func(error) bool {
		atomic.AddInt32(&dropped, 1)
		return true
	}))

	var attempts int32
	saved := dataflow.Map(ctx, parsed, func(_ context.Context, r row) (row, error) {
		if r.ID == "retry" && atomic.AddInt32(&attempts, 1) < 3 {
			return row{}, errors.New("transient error")
		}
		return r, nil
	}, dataflow.WithRetry(3, func(int) time.Duration { return time.Millisecond }))

	var (
		mu    sync.Mutex
		names []string
	)
	err := dataflow.ForEach(ctx, saved, func(_ context.Context, r row) error {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, r.Name)
		return nil
	})
	require.NoError(t, err)

	sort.Strings(names)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, names)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, int32(1), atomic.LoadInt32(&dropped))
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	batches := dataflow.Batch(ctx, dataflow.From(ctx, 1, 2, 3, 4, 5), 2)

	var got [][]int
	err := dataflow.ForEach(ctx, batches, func(_ context.Context, b []int) error {
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, got)
}

func TestForEach_StopsOnFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var processed int32
	err := dataflow.ForEach(ctx, dataflow.From(ctx, items...), func(_ context.Context, i int) error {
		atomic.AddInt32(&processed, 1)
		if i == 3 {
			return boom
		}
		return nil
	}, dataflow.WithWorkers(4))

	assert.ErrorIs(t, err, boom)
	assert.Less(t, atomic.LoadInt32(&processed), int32(100))
}

func TestForEach_ErrorReleasesUpstreamStages(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	before := runtime.NumGoroutine()
	batches := dataflow.Batch(ctx, dataflow.From(ctx, items...), 5)
	err := dataflow.ForEach(ctx, batches, func(context.Context, []int) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}

func TestForEach_HandledErrorsContinue(t *testing.T) {
	ctx := context.Background()

	var processed int32
	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3), func(_ context.Context, i int) error {
		atomic.AddInt32(&processed, 1)
		return errors.New("ignored")
	}, dataflow.WithErrorHandler(func(error) bool { return true }))

	require.NoError(t, err)
	assert.Equal(t, int32(3), processed)
}

func TestForEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	never := make(chan int)
	err := dataflow.ForEach(ctx, dataflow.Stream[int](never), func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
