package store

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://"+mr.Addr()+"/0", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url://", zap.NewNop())
	assert.Error(t, err)
}

func TestRedisStoreUsers(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	err := s.CreateUser(ctx, ledger.UserRecord{Email: "a@example.com"})
	assert.ErrorIs(t, err, ledger.ErrDuplicateUser)

	u, err := s.GetUser(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Test", u.Name)
	assert.Equal(t, "digest", u.PasswordDigest)

	_, err = s.GetUser(ctx, "b@example.com")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestRedisStoreIncrement(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	r := ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "05:00", Value: 3}
	require.NoError(t, s.Increment(ctx, r))
	r.Value = 2
	require.NoError(t, s.Increment(ctx, r))

	rec, err := s.LedgerForDate(ctx, ledger.KindConsumption, "a@example.com", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, ledger.HourRecord{"05:00": 5}, rec)

	members, err := mr.SMembers("ledger:a@example.com:consumption:dates")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01"}, members)
}

func TestRedisStoreUnknownUserLeavesStoreUnchanged(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	err := s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "ghost@example.com", Date: "2024-05-01", Hour: "01:00", Value: 1})
	assert.ErrorIs(t, err, ledger.ErrUnknownUser)
	assert.Empty(t, mr.Keys())
}

func TestRedisStoreConcurrentIncrements(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "a@example.com", Date: "2024-05-01", Hour: "12:00", Value: 0.5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.LedgerForDate(ctx, ledger.KindProduction, "a@example.com", "2024-05-01")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, rec["12:00"], 1e-9)
}

func TestRedisStoreRejectsOverflowingSum(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	r := ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "05:00", Value: 1e308}
	require.NoError(t, s.Increment(ctx, r))

	err := s.Increment(ctx, r)
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	rec, err := s.LedgerForDate(ctx, ledger.KindConsumption, "a@example.com", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, rec, 1)
	assert.InEpsilon(t, 1e308, rec["05:00"], 1e-9)

	// Negative overflow is rejected the same way.
	r.Kind = ledger.KindProduction
	r.Value = -1e308
	require.NoError(t, s.Increment(ctx, r))
	assert.ErrorIs(t, s.Increment(ctx, r), ledger.ErrInvalidValue)

	doc, err := s.Export(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, doc.Consumption, 1)
	assert.Len(t, doc.Production, 1)

	members, err := mr.SMembers("ledger:a@example.com:consumption:dates")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-01"}, members)
}

func TestRedisStoreExport(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	require.NoError(t, s.Increment(ctx, ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "00:00", Value: 1.5}))
	require.NoError(t, s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "a@example.com", Date: "2024-05-02", Hour: "13:00", Value: 4}))

	doc, err := s.Export(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]ledger.HourRecord{"2024-05-01": {"00:00": 1.5}}, doc.Consumption)
	assert.Equal(t, map[string]ledger.HourRecord{"2024-05-02": {"13:00": 4}}, doc.Production)
}

func TestRedisStoreDecodeError(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.HSet("ledger:a@example.com:production:2024-05-01", "01:00", "abc")

	_, err := s.LedgerForDate(context.Background(), ledger.KindProduction, "a@example.com", "2024-05-01")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, "", zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open("etcd", "", zap.NewNop())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	s, err = Open(BackendRedis, "redis://"+mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

var _ ledger.Store = (*RedisStore)(nil)
