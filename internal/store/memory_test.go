package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
)

func seedUser(t *testing.T, s ledger.Store, email string) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), ledger.UserRecord{
		Name:           "Test",
		Email:          email,
		PasswordDigest: "digest",
	}))
}

func TestMemoryStoreDuplicateUser(t *testing.T) {
	s := NewMemoryStore()
	seedUser(t, s, "a@example.com")

	err := s.CreateUser(context.Background(), ledger.UserRecord{Email: "a@example.com"})
	assert.True(t, errors.Is(err, ledger.ErrDuplicateUser))
}

func TestMemoryStoreGetUserNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetUser(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestMemoryStoreIncrementAccumulates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	r := ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "05:00", Value: 3}
	require.NoError(t, s.Increment(ctx, r))
	r.Value = 2
	require.NoError(t, s.Increment(ctx, r))

	rec, err := s.LedgerForDate(ctx, ledger.KindConsumption, "a@example.com", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, ledger.HourRecord{"05:00": 5}, rec)

	prod, err := s.LedgerForDate(ctx, ledger.KindProduction, "a@example.com", "2024-05-01")
	require.NoError(t, err)
	assert.Empty(t, prod)
}

func TestMemoryStoreUnknownUserLeavesStoreUnchanged(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "ghost@example.com", Date: "2024-05-01", Hour: "01:00", Value: 1})
	assert.ErrorIs(t, err, ledger.ErrUnknownUser)

	_, err = s.Export(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the writers hit the same cell, the rest spread across hours.
			hour := "12:00"
			if i%2 == 1 {
				hour = ledger.HourLabel(i % ledger.HoursPerDay)
			}
			err := s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "a@example.com", Date: "2024-05-01", Hour: hour, Value: 1})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, err := s.LedgerForDate(ctx, ledger.KindProduction, "a@example.com", "2024-05-01")
	require.NoError(t, err)

	want := ledger.HourRecord{"12:00": writers / 2}
	for i := 1; i < writers; i += 2 {
		want[ledger.HourLabel(i%ledger.HoursPerDay)]++
	}
	assert.Equal(t, want, rec)
	assert.Equal(t, float64(25), rec["12:00"])
}

func TestMemoryStoreRejectsOverflowingSum(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	r := ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "05:00", Value: 1e308}
	require.NoError(t, s.Increment(ctx, r))

	err := s.Increment(ctx, r)
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	r.Kind = ledger.KindProduction
	r.Value = -1e308
	require.NoError(t, s.Increment(ctx, r))
	assert.ErrorIs(t, s.Increment(ctx, r), ledger.ErrInvalidValue)

	doc, err := s.Export(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, ledger.HourRecord{"05:00": 1e308}, doc.Consumption["2024-05-01"])
	assert.Equal(t, ledger.HourRecord{"05:00": -1e308}, doc.Production["2024-05-01"])
}

func TestMemoryStoreExport(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, s, "a@example.com")

	require.NoError(t, s.Increment(ctx, ledger.Reading{Kind: ledger.KindConsumption, Email: "a@example.com", Date: "2024-05-01", Hour: "00:00", Value: 1.5}))
	require.NoError(t, s.Increment(ctx, ledger.Reading{Kind: ledger.KindProduction, Email: "a@example.com", Date: "2024-05-02", Hour: "13:00", Value: 4}))

	doc, err := s.Export(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", doc.Email)
	assert.Equal(t, map[string]ledger.HourRecord{"2024-05-01": {"00:00": 1.5}}, doc.Consumption)
	assert.Equal(t, map[string]ledger.HourRecord{"2024-05-02": {"13:00": 4}}, doc.Production)
}
