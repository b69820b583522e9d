package shared

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLocker(t *testing.T, locker Locker) {
	t.Helper()
	ctx := context.Background()
	key := InvoiceLockKey("inv-1")

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxSeen)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	exerciseLocker(t, NewKeyedMutex())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()
	releaseA, err := locker.Lock(ctx, "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	locker := NewKeyedMutex()
	release, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	require.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestRedisLockerSerializesSameKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	locker := NewRedisLocker(client, time.Second)
	locker.retry = time.Millisecond
	exerciseLocker(t, locker)
	require.False(t, mr.Exists(InvoiceLockKey("inv-1")))
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	locker := NewRedisLocker(client, time.Second)
	release, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, mr.Set("k", "someone-else"))
	release()

	value, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestRedisLockerTimesOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	locker := NewRedisLocker(client, time.Minute)
	locker.retry = time.Millisecond
	release, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	require.ErrorIs(t, err, ErrLockNotAcquired)
}
