package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestLoadCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())

	var calls int
	fetch := func(context.Context) ([]widget, error) {
		calls++
		return []widget{{ID: calls, Name: "bolt"}}, nil
	}

	first, fp1, err := Load(ctx, c, "items", fetch)
	require.NoError(t, err)
	second, fp2, err := Load(ctx, c, "items", fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, fp1, fp2)

	require.NoError(t, c.Invalidate(ctx, "items"))
	third, fp3, err := Load(ctx, c, "items", fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, third[0].ID)
	assert.NotEqual(t, fp1, fp3)
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())
	boom := errors.New("backend down")

	_, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := c.Get(ctx, "items")
	assert.False(t, ok)

	values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		return []widget{{ID: 1}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestLoadEmptyCollection(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())

	values, _, err := Load(ctx, c, "users", func(context.Context) ([]widget, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, values)
	assert.Empty(t, values)

	_, ok := c.Get(ctx, "users")
	assert.True(t, ok, "empty collections are cached")
}

// countingBackend reports every lookup on gets.
type countingBackend struct {
	*Memory
	gets chan string
}

func (b countingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := b.Memory.Get(ctx, key)
	b.gets <- key
	return data, ok, err
}

func TestLoadSharesConcurrentFetch(t *testing.T) {
	ctx := context.Background()
	backend := countingBackend{Memory: NewMemory(), gets: make(chan string, 10)}
	c := New(backend)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]widget, error) {
		calls.Add(1)
		<-release
		return []widget{{ID: 1, Name: "shared"}}, nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([][]widget, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, _, err := Load(ctx, c, "items", fetch)
			assert.NoError(t, err)
			results[i] = values
		}()
	}

	// Every caller has missed before the fetch is released.
	for range n {
		<-backend.gets
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []widget{{ID: 1, Name: "shared"}}, r)
	}
}

func TestInvalidateDiscardsFillInFlight(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())

	var mu sync.Mutex
	backendState := []widget{{ID: 1, Name: "old"}}
	snapshot := func() []widget {
		mu.Lock()
		defer mu.Unlock()
		return append([]widget(nil), backendState...)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan []widget)
	go func() {
		values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
			values := snapshot()
			close(started)
			<-release
			return values, nil
		})
		assert.NoError(t, err)
		done <- values
	}()

	<-started
	mu.Lock()
	backendState = []widget{{ID: 1, Name: "new"}}
	mu.Unlock()
	require.NoError(t, c.Invalidate(ctx, "items"))
	close(release)

	// The caller that started before the mutation still gets its snapshot.
	assert.Equal(t, "old", (<-done)[0].Name)

	var refetched int
	values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		refetched++
		return snapshot(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, refetched)
	assert.Equal(t, "new", values[0].Name)
}

func TestInvalidateDoesNotJoinFillInFlight(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
			close(started)
			<-release
			return []widget{{Name: "old"}}, nil
		})
		assert.NoError(t, err)
	}()

	<-started
	require.NoError(t, c.Invalidate(ctx, "items"))

	values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		return []widget{{Name: "new"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", values[0].Name)

	close(release)
	<-done

	cached, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		t.Fatal("fetch must not run on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", cached[0].Name)
}

func TestKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())

	c.Set(ctx, "items", []byte(`[1]`))
	c.Set(ctx, "logs", []byte(`[2]`))
	c.Set(ctx, "users", []byte(`[3]`))

	require.NoError(t, c.Invalidate(ctx, "items", "logs"))

	_, ok := c.Get(ctx, "items")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "logs")
	assert.False(t, ok)
	entry, ok := c.Get(ctx, "users")
	require.True(t, ok)
	assert.Equal(t, []byte(`[3]`), entry.Data)
}

func TestFingerprintFollowsPayload(t *testing.T) {
	a := newEntry([]byte(`[{"id":1}]`))
	b := newEntry([]byte(`[{"id":1}]`))
	c := newEntry([]byte(`[{"id":2}]`))

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestCorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemory())
	c.Set(ctx, "items", []byte(`not json`))

	_, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		t.Fatal("fetch must not run on a hit")
		return nil, nil
	})
	require.Error(t, err)

	_, ok := c.Get(ctx, "items")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "items", []byte("x"), 30*time.Second))

	_, ok, err := m.Get(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(30 * time.Second)
	_, ok, err = m.Get(ctx, "items")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(NewMemory()).TTL())
	assert.Equal(t, time.Minute, New(NewMemory(), WithTTL(time.Minute)).TTL())
	assert.Equal(t, DefaultTTL, New(NewMemory(), WithTTL(0)).TTL())
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}

func (failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("unreachable")
}

func (failingBackend) Delete(context.Context, ...string) error {
	return errors.New("unreachable")
}

// corruptBackend always returns an undecodable entry and cannot delete it.
type corruptBackend struct{ failingBackend }

func (corruptBackend) Get(context.Context, string) ([]byte, bool, error) {
	return []byte("not json"), true, nil
}

func TestCorruptEntryDeleteFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	c := New(corruptBackend{})
	_, _, err := Load(context.Background(), c, "items", func(context.Context) ([]widget, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "failed to drop corrupt cache entry")
	assert.Contains(t, buf.String(), "key=items")
}

func TestBackendFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	c := New(failingBackend{})

	values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		return []widget{{ID: 7}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, values[0].ID)

	assert.Error(t, c.Invalidate(ctx, "items"))
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	prefix := "inventrack-test:" + time.Now().Format("150405.000000") + ":"
	r := NewRedis(client, prefix)
	t.Cleanup(func() { r.Delete(ctx, "items") })

	_, ok, err := r.Get(ctx, "items")
	require.NoError(t, err)
	assert.False(t, ok)

	c := New(r)
	values, _, err := Load(ctx, c, "items", func(context.Context) ([]widget, error) {
		return []widget{{ID: 1, Name: "shared"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, values, 1)

	data, ok, err := r.Get(ctx, "items")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":1,"name":"shared"}]`, string(data))

	require.NoError(t, c.Invalidate(ctx, "items"))
	_, ok, err = r.Get(ctx, "items")
	require.NoError(t, err)
	assert.False(t, ok)
}
