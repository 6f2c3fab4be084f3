package counter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tckz/tempo-downloads/internal/store"
	"github.com/tckz/tempo-downloads/internal/synth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)

type brokenStore struct {
	err   error
	calls int
}

func (c *brokenStore) Get(context.Context, string) (int64, error) {
	c.calls++
	return 0, c.err
}

func (c *brokenStore) Set(context.Context, string, int64) error {
	c.calls++
	return c.err
}

func (c *brokenStore) Incr(context.Context, string) (int64, error) {
	c.calls++
	return 0, c.err
}

func (c *brokenStore) Close() error { return nil }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestDisplayCountAtLaunch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, DefaultKey, 42))

	svc := New(st, t0, WithClock(fixedClock(t0)))
	assert.Equal(t, int64(42), svc.RealCount(ctx))
	assert.Equal(t, svc.RealCount(ctx), svc.DisplayCount(ctx))
}

func TestDisplayCountTwoHours(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, DefaultKey, 10))

	svc := New(st, t0, WithClock(fixedClock(t0.Add(2*time.Hour))))
	want := 10 + synth.HourlyIncrement(0) + synth.HourlyIncrement(1)
	assert.Equal(t, want, svc.DisplayCount(ctx))

	b := svc.Breakdown(ctx)
	assert.Equal(t, int64(10), b.Real)
	assert.Equal(t, want-10, b.Fake)
	assert.Equal(t, want, b.Display)
	assert.Equal(t, t0.Add(2*time.Hour), b.At)
}

func TestDisplayCountComposition(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, DefaultKey, 7))

	for _, d := range []time.Duration{-time.Hour, 0, 90 * time.Minute, 1000*time.Hour + 59*time.Minute} {
		now := t0.Add(d)
		svc := New(st, t0, WithClock(fixedClock(now)))
		assert.Equal(t, svc.RealCount(ctx)+synth.FakeCount(now, t0), svc.DisplayCount(ctx), "offset=%s", d)

		b := svc.Breakdown(ctx)
		assert.Equal(t, b.Display-b.Real, b.Fake, "offset=%s", d)
	}
}

func TestIncrementReal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := New(st, t0, WithClock(fixedClock(t0.Add(5*time.Hour+10*time.Minute))))

	before := svc.Breakdown(ctx)
	assert.Zero(t, before.Real)

	svc.IncrementReal(ctx)
	after := svc.Breakdown(ctx)
	assert.Equal(t, before.Real+1, after.Real)
	assert.Equal(t, before.Fake, after.Fake)
	assert.Equal(t, before.Display+1, after.Display)
}

func TestSetReal(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := New(st, t0)

	ok, err := svc.SetReal(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, svc.RealCount(ctx))

	ok, err = svc.SetReal(ctx, 123)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(123), svc.RealCount(ctx))
}

func TestSetRealRejectsNegative(t *testing.T) {
	st := &brokenStore{}
	svc := New(st, t0)

	ok, err := svc.SetReal(context.Background(), -1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Zero(t, st.calls)
}

func TestFailSoft(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog bool
	}{
		{"not configured", store.ErrNotConfigured, false},
		{"transport", errors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			core, logs := observer.New(zapcore.ErrorLevel)
			now := t0.Add(3*time.Hour + 30*time.Minute)
			svc := New(&brokenStore{err: tt.err}, t0,
				WithClock(fixedClock(now)),
				WithLogger(zap.New(core).Sugar()))

			assert.Zero(t, svc.RealCount(ctx))
			assert.Equal(t, synth.FakeCount(now, t0), svc.DisplayCount(ctx))

			svc.IncrementReal(ctx)

			ok, err := svc.SetReal(ctx, 5)
			assert.NoError(t, err)
			assert.False(t, ok)

			if tt.wantLog {
				assert.Equal(t, 4, logs.Len())
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestRealCountAbsent(t *testing.T) {
	svc := New(store.NewMemory(), t0)
	assert.Zero(t, svc.RealCount(context.Background()))
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := New(st, t0, WithKey("other"))

	svc.IncrementReal(ctx)
	v, err := st.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = st.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
