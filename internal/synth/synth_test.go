package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var launch = time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)

func TestGenerateRange(t *testing.T) {
	for seed := int64(-2000); seed <= 200000; seed += 7 {
		r := Generate(seed)
		if r < 0 || r >= 1 {
			t.Fatalf("Generate(%d) = %v, want [0,1)", seed, r)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	for _, seed := range []int64{0, 1, 12345, 12346, 1234500, 1234506, -42} {
		assert.Equal(t, Generate(seed), Generate(seed), "seed=%d", seed)
	}
	assert.Equal(t, 0.0, Generate(0))
}

func TestHourlyIncrementRange(t *testing.T) {
	for h := int64(0); h < 50000; h++ {
		n := HourlyIncrement(h)
		if n < MinPerHour || n > MinPerHour+SpreadPerHour-1 {
			t.Fatalf("HourlyIncrement(%d) = %d, want [3,7]", h, n)
		}
	}
}

func TestHourlyIncrementUsesHourSeed(t *testing.T) {
	for h := int64(0); h < 100; h++ {
		want := int64(Generate(h+12345)*5) + 3
		assert.Equal(t, want, HourlyIncrement(h), "hour=%d", h)
	}
}

func TestFakeCountBeforeLaunch(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Millisecond, -time.Hour, -24 * 365 * time.Hour} {
		assert.Zero(t, FakeCount(launch.Add(d), launch), "offset=%s", d)
	}
	// sub-millisecond progress is below the clock resolution
	assert.Zero(t, FakeCount(launch.Add(time.Microsecond), launch))
}

func TestFakeCountHourBoundary(t *testing.T) {
	var want int64
	for h := int64(0); h <= 72; h++ {
		at := launch.Add(time.Duration(h) * time.Hour)
		require.Equal(t, want, FakeCount(at, launch), "hour=%d", h)
		require.Equal(t, want, CompletedCount(h), "hour=%d", h)

		// the partial hour converges to exactly the completed-hour term
		assert.Equal(t, HourlyIncrement(h), PartialIncrement(h, 1), "hour=%d", h)
		assert.Zero(t, PartialIncrement(h, 0), "hour=%d", h)

		if h > 0 {
			before := FakeCount(at.Add(-time.Millisecond), launch)
			assert.LessOrEqual(t, before, want, "hour=%d", h)
			assert.GreaterOrEqual(t, before, want-HourlyIncrement(h-1), "hour=%d", h)
		}
		want += HourlyIncrement(h)
	}
}

func TestFakeCountMonotonic(t *testing.T) {
	prev := int64(0)
	for at := launch.Add(-time.Hour); at.Before(launch.Add(60 * time.Hour)); at = at.Add(37 * time.Second) {
		got := FakeCount(at, launch)
		if got < prev {
			t.Fatalf("FakeCount(%s) = %d, want >= %d", at.Format(time.RFC3339), got, prev)
		}
		prev = got
	}
}

func TestPartialIncrementMonotonic(t *testing.T) {
	for h := int64(0); h < 200; h++ {
		prev := int64(0)
		for i := 0; i <= 1000; i++ {
			got := PartialIncrement(h, float64(i)/1000)
			if got < prev {
				t.Fatalf("PartialIncrement(%d, %v) = %d, want >= %d", h, float64(i)/1000, got, prev)
			}
			prev = got
		}
	}
}

func TestFakeCountDeterministic(t *testing.T) {
	at := launch.Add(1234*time.Hour + 17*time.Minute + 3*time.Second)
	assert.Equal(t, FakeCount(at, launch), FakeCount(at, launch))
	// only the offset from launch matters
	other := launch.Add(-48 * time.Hour)
	assert.Equal(t, FakeCount(at, launch), FakeCount(at.Add(-48*time.Hour), other))
}

func TestFakeCountTwoHours(t *testing.T) {
	got := FakeCount(launch.Add(2*time.Hour), launch)
	assert.Equal(t, HourlyIncrement(0)+HourlyIncrement(1), got)
}
