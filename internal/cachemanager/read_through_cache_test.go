package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCacheManager struct {
	mock.Mock
}

var _ CacheManager[itemID, decision] = (*mockCacheManager)(nil)

func (m *mockCacheManager) Get(ctx context.Context, key itemID) (decision, bool) {
	args := m.Called(ctx, key)
	return args.Get(0).(decision), args.Bool(1)
}

func (m *mockCacheManager) GetMultiple(ctx context.Context, keys []itemID) (map[itemID]decision, bool) {
	args := m.Called(ctx, keys)
	values, _ := args.Get(0).(map[itemID]decision)
	return values, args.Bool(1)
}

func (m *mockCacheManager) GetWithRefresh(ctx context.Context, key itemID, ttl time.Duration) (decision, bool) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(decision), args.Bool(1)
}

func (m *mockCacheManager) Set(ctx context.Context, key itemID, value decision, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCacheManager) Delete(ctx context.Context, keys ...itemID) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *mockCacheManager) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newMockCacheManager(t *testing.T) *mockCacheManager {
	m := &mockCacheManager{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func permitStone(_ context.Context, id itemID) (decision, error) {
	return decision{Allowed: id == "minecraft:stone", Reason: "computed"}, nil
}

func failing(context.Context, itemID) (decision, error) {
	return decision{}, errors.New("tag not resolved")
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	managerMock := newMockCacheManager(t)
	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, true)

	got, err := rtc.Get(context.Background(), "minecraft:stone", "minecraft:stone", time.Minute)
	require.NoError(t, err)
	require.True(t, got.Allowed)

	got, err = rtc.GetWithRefresh(context.Background(), "minecraft:dirt", "minecraft:dirt", time.Minute)
	require.NoError(t, err)
	require.False(t, got.Allowed)

	managerMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_Get_Hit(t *testing.T) {
	managerMock := newMockCacheManager(t)
	cached := decision{Allowed: true, Reason: "cached"}
	managerMock.On("Get", mock.Anything, itemID("minecraft:stone")).Return(cached, true)

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, false)

	got, err := rtc.Get(context.Background(), "minecraft:stone", "minecraft:stone", time.Minute)
	require.NoError(t, err)
	require.Equal(t, cached, got)
}

func TestReadThroughCache_Get_MissStores(t *testing.T) {
	managerMock := newMockCacheManager(t)
	want := decision{Allowed: true, Reason: "computed"}
	managerMock.On("Get", mock.Anything, itemID("minecraft:stone")).Return(decision{}, false)
	managerMock.On("Set", mock.Anything, itemID("minecraft:stone"), want, time.Minute).Return()

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, false)

	got, err := rtc.Get(context.Background(), "minecraft:stone", "minecraft:stone", time.Minute)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadThroughCache_Get_ErrorNotCached(t *testing.T) {
	managerMock := newMockCacheManager(t)
	managerMock.On("Get", mock.Anything, itemID("minecraft:stone")).Return(decision{}, false)

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, failing, false)

	_, err := rtc.Get(context.Background(), "minecraft:stone", "minecraft:stone", time.Minute)
	require.Error(t, err)
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_GetWithRefresh_Hit(t *testing.T) {
	managerMock := newMockCacheManager(t)
	cached := decision{Allowed: false, Reason: "cached"}
	managerMock.On("GetWithRefresh", mock.Anything, itemID("minecraft:dirt"), time.Minute).Return(cached, true)

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, false)

	got, err := rtc.GetWithRefresh(context.Background(), "minecraft:dirt", "minecraft:dirt", time.Minute)
	require.NoError(t, err)
	require.Equal(t, cached, got)
}

func TestReadThroughCache_GetWithRefresh_MissStores(t *testing.T) {
	managerMock := newMockCacheManager(t)
	want := decision{Allowed: false, Reason: "computed"}
	managerMock.On("GetWithRefresh", mock.Anything, itemID("minecraft:dirt"), time.Minute).Return(decision{}, false)
	managerMock.On("Set", mock.Anything, itemID("minecraft:dirt"), want, time.Minute).Return()

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, false)

	got, err := rtc.GetWithRefresh(context.Background(), "minecraft:dirt", "minecraft:dirt", time.Minute)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadThroughCache_GetWithRefresh_ErrorNotCached(t *testing.T) {
	managerMock := newMockCacheManager(t)
	managerMock.On("GetWithRefresh", mock.Anything, itemID("minecraft:dirt"), time.Minute).Return(decision{}, false)

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, failing, false)

	_, err := rtc.GetWithRefresh(context.Background(), "minecraft:dirt", "minecraft:dirt", time.Minute)
	require.Error(t, err)
}

func TestReadThroughCache_InvalidateFlushes(t *testing.T) {
	managerMock := newMockCacheManager(t)
	managerMock.On("Flush", mock.Anything).Return(nil)

	rtc := NewReadThroughCache[itemID, decision, itemID](managerMock, permitStone, false)
	require.NoError(t, rtc.Invalidate(context.Background()))
}

func TestReadThroughCache_WithInMemoryManager(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, id itemID) (decision, error) {
		calls++
		return permitStone(ctx, id)
	}
	rtc := NewReadThroughCache[itemID, decision, itemID](newDecisionCache(), fn, false)
	ctx := context.Background()

	for range 3 {
		got, err := rtc.Get(ctx, "minecraft:stone", "minecraft:stone", time.Minute)
		require.NoError(t, err)
		require.True(t, got.Allowed)
	}
	require.Equal(t, 1, calls)

	require.NoError(t, rtc.Invalidate(ctx))
	_, err := rtc.Get(ctx, "minecraft:stone", "minecraft:stone", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
