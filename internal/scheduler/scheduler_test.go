package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRefresher struct {
	mu    sync.Mutex
	seen  []string
	fail  string
	calls chan struct{}
}

func (r *recordingRefresher) Refresh(_ context.Context, country string) error {
	r.mu.Lock()
	r.seen = append(r.seen, country)
	r.mu.Unlock()
	if r.calls != nil {
		select {
		case r.calls <- struct{}{}:
		default:
		}
	}
	if country == r.fail {
		return errors.New("upstream down")
	}
	return nil
}

func TestRunOnceRefreshesAllCountries(t *testing.T) {
	r := &recordingRefresher{fail: "Portugal"}
	s := New([]string{"Spain", "Portugal", "France"}, time.Hour, r, zap.NewNop())

	s.RunOnce()

	sort.Strings(r.seen)
	assert.Equal(t, []string{"France", "Portugal", "Spain"}, r.seen)
}

func TestStartWithoutCountries(t *testing.T) {
	s := New(nil, time.Hour, &recordingRefresher{}, zap.NewNop())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStartRunsImmediately(t *testing.T) {
	r := &recordingRefresher{calls: make(chan struct{}, 1)}
	s := New([]string{"Spain"}, time.Hour, r, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh job did not run")
	}
}

func TestStartHonoursSubMinuteInterval(t *testing.T) {
	r := &recordingRefresher{calls: make(chan struct{}, 8)}
	s := New([]string{"Spain"}, 100*time.Millisecond, r, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	deadline := time.After(3 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-r.calls:
		case <-deadline:
			t.Fatalf("refresh ran %d times, want at least 3", i)
		}
	}
}

func TestStartRejectsNonPositiveInterval(t *testing.T) {
	s := New([]string{"Spain"}, 0, &recordingRefresher{}, zap.NewNop())
	assert.Error(t, s.Start())
}
