package appstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoadsOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (any, error) {
		calls++
		return "loaded", nil
	}

	v, err := s.Get(ctx, "key", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)

	v, err = s.Get(ctx, "key", load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, 1, calls, "loader must not run for a warm key")
}

func TestGetLoaderError(t *testing.T) {
	s := New()
	ctx := context.Background()

	boom := errors.New("db down")
	_, err := s.Get(ctx, "key", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// A failed load caches nothing; the next Get retries.
	v, err := s.Get(ctx, "key", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestInvalidate(t *testing.T) {
	s := New()
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	v, err := s.Get(ctx, "key", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	s.Invalidate("key")

	v, err = s.Get(ctx, "key", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "Get after Invalidate must reload")
}

func TestReset(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		_, err := s.Get(ctx, key, func(ctx context.Context) (any, error) { return key, nil })
		require.NoError(t, err)
	}

	s.Reset()

	calls := 0
	_, err := s.Get(ctx, "a", func(ctx context.Context) (any, error) {
		calls++
		return "a", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Get(ctx, "key", func(ctx context.Context) (any, error) {
				return "snapshot", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "snapshot", v)
		}()
	}
	wg.Wait()
}

func TestContextRoundTrip(t *testing.T) {
	s := New()
	ctx := WithState(context.Background(), s)

	assert.Same(t, s, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
