// Package synth computes the synthetic part of the public download count.
//
// Everything here is a pure function of its arguments, so the same launch
// instant and the same clock always produce the same trajectory, across
// restarts and across processes.
package synth

import (
	"math"
	"time"

	"github.com/samber/lo"
)

const (
	// SeedOffset is added to an hour index to derive that hour's seed.
	// Completed hours and the current hour must share it.
	SeedOffset = 12345

	// ArrivalStride spreads the per-arrival seeds of one hour apart from the
	// hour seeds themselves.
	ArrivalStride = 100

	MinPerHour    = 3
	SpreadPerHour = 5

	hourMillis = int64(time.Hour / time.Millisecond)
)

// Generate maps seed to a reproducible value in [0,1).
func Generate(seed int64) float64 {
	x := math.Sin(float64(seed)*9999) * 10000
	return x - math.Floor(x)
}

// HourlyIncrement is the number of synthetic downloads attributed to the
// hour with index hour. Always within [3,7].
func HourlyIncrement(hour int64) int64 {
	return int64(math.Floor(Generate(hour+SeedOffset)*SpreadPerHour)) + MinPerHour
}

// PartialIncrement counts the synthetic downloads of hour that have arrived
// once progress (in [0,1]) of the hour has elapsed. At progress 1 it equals
// HourlyIncrement(hour).
func PartialIncrement(hour int64, progress float64) int64 {
	seed := hour + SeedOffset
	n := HourlyIncrement(hour)
	return int64(lo.CountBy(lo.Range(int(n)), func(i int) bool {
		return Generate(seed*ArrivalStride+int64(i)) < progress
	}))
}

// FakeCount returns the synthetic download count at now for a launch at
// launch. It is zero up to and including the launch instant and never
// decreases as now advances.
func FakeCount(now, launch time.Time) int64 {
	elapsed := now.UnixMilli() - launch.UnixMilli()
	if elapsed <= 0 {
		return 0
	}

	hours := elapsed / hourMillis
	total := CompletedCount(hours)

	progress := float64(elapsed%hourMillis) / float64(hourMillis)
	return total + PartialIncrement(hours, progress)
}

// CompletedCount sums HourlyIncrement over the first hours hours.
func CompletedCount(hours int64) int64 {
	if hours <= 0 {
		return 0
	}
	return lo.Sum(lo.Times(int(hours), func(h int) int64 {
		return HourlyIncrement(int64(h))
	}))
}
