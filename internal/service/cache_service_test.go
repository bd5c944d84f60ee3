package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kukkee/internal/domain"
	"kukkee/internal/repository"
	"kukkee/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *CacheService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewCacheService(client, time.Minute, zap.NewNop()), client
}

func TestCacheService_ReadThrough(t *testing.T) {
	mr, cache, client := setupCache(t)
	ctx := context.Background()
	poll := seededPoll(domain.PollTypePublic)

	var calls int32
	fallback := func(ctx context.Context, id string) (*domain.Poll, error) {
		atomic.AddInt32(&calls, 1)
		p := poll.Clone()
		return &p, nil
	}

	got, err := cache.GetPollWithCache(ctx, "p1", fallback)
	require.NoError(t, err)
	assert.Equal(t, poll.Title, got.Title)

	key := client.KeyBuilder.KeyPoll("p1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	raw, err := mr.Get(key)
	require.NoError(t, err)
	var cached domain.Poll
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "owner", cached.Owner)

	got, err = cache.GetPollWithCache(ctx, "p1", fallback)
	require.NoError(t, err)
	assert.Equal(t, poll.ID, got.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second read is a cache hit")

	cache.InvalidatePoll(ctx, "p1")
	assert.False(t, mr.Exists(key))
}

func TestCacheService_CorruptEntryFallsBack(t *testing.T) {
	mr, cache, client := setupCache(t)
	require.NoError(t, mr.Set(client.KeyBuilder.KeyPoll("p1"), "{not json"))

	poll := seededPoll(domain.PollTypePublic)
	got, err := cache.GetPollWithCache(context.Background(), "p1", func(context.Context, string) (*domain.Poll, error) {
		return &poll, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
}

func TestCacheService_FallbackErrorNotCached(t *testing.T) {
	mr, cache, client := setupCache(t)

	_, err := cache.GetPollWithCache(context.Background(), "gone", func(context.Context, string) (*domain.Poll, error) {
		return nil, domain.ErrPollNotFound
	})
	assert.True(t, errors.Is(err, domain.ErrPollNotFound))
	assert.False(t, mr.Exists(client.KeyBuilder.KeyPoll("gone")))
}

func TestCacheService_RedisDownFallsBack(t *testing.T) {
	mr, cache, _ := setupCache(t)
	mr.SetError("LOADING")

	poll := seededPoll(domain.PollTypePublic)
	got, err := cache.GetPollWithCache(context.Background(), "p1", func(context.Context, string) (*domain.Poll, error) {
		return &poll, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Error(t, cache.HealthCheck(context.Background()))
}

func TestCacheService_ConcurrentMissesReturnIndependentCopies(t *testing.T) {
	_, cache, _ := setupCache(t)
	poll := seededPoll(domain.PollTypePublic)

	release := make(chan struct{})
	fallback := func(context.Context, string) (*domain.Poll, error) {
		<-release
		p := poll.Clone()
		return &p, nil
	}

	const readers = 5
	results := make([]*domain.Poll, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := cache.GetPollWithCache(context.Background(), "p1", fallback)
			if err == nil {
				results[i] = p
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range results {
		require.NotNil(t, results[i])
		results[i].Title = "mutated"
	}
	for i := range results {
		for j := range results {
			if i != j {
				assert.NotSame(t, results[i], results[j])
			}
		}
	}
}

func TestCacheService_CanceledCallerDoesNotFailSharedMiss(t *testing.T) {
	_, cache, _ := setupCache(t)
	poll := seededPoll(domain.PollTypePublic)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fallback := func(ctx context.Context, _ string) (*domain.Poll, error) {
		once.Do(func() { close(entered) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := poll.Clone()
		return &p, nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	var firstErr, secondErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = cache.GetPollWithCache(firstCtx, "p1", fallback)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, secondErr = cache.GetPollWithCache(context.Background(), "p1", fallback)
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	close(release)
	wg.Wait()

	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr, "a waiter is not failed by another caller's cancellation")
}

func TestCacheService_Disabled(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.HealthCheck(context.Background()))
	nilCache.InvalidatePoll(context.Background(), "p1")

	cache := NewCacheService(nil, 0, nil)
	assert.False(t, cache.Enabled())

	repo := repository.NewMemoryPollRepository(seededPoll(domain.PollTypePublic))
	got, err := cache.GetPollWithCache(context.Background(), "p1", repo.FindByID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestPollService_WritesInvalidateCache(t *testing.T) {
	mr, cache, client := setupCache(t)
	repo := repository.NewMemoryPollRepository(seededPoll(domain.PollTypePublic))
	svc := NewPollService(repo, cache, zap.NewNop())
	ctx := context.Background()

	_, err := svc.GetPoll(ctx, "p1")
	require.NoError(t, err)
	key := client.KeyBuilder.KeyPoll("p1")
	require.True(t, mr.Exists(key))

	_, err = svc.SubmitVote(ctx, "p1", domain.Vote{Username: "zoe", Times: []domain.TimeSlot{slotA}}, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "vote drops the cached document")

	got, err := svc.GetPoll(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, got.Votes, 1)
}
