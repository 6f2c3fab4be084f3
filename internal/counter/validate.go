package counter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCount = errors.New("invalid count")

func invalidCount(v any) error {
	return fmt.Errorf("%w: %v", ErrInvalidCount, v)
}

// ParseCount accepts a decoded JSON value as an admin supplied count. Only
// non-negative whole numbers pass; 10.0 is read as 10, 3.5 is rejected.
func ParseCount(v any) (int64, error) {
	var n int64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
			break
		}
		f, err := t.Float64()
		if err != nil {
			return 0, invalidCount(t)
		}
		i, ok := wholeNumber(f)
		if !ok {
			return 0, invalidCount(t)
		}
		n = i
	case float64:
		i, ok := wholeNumber(t)
		if !ok {
			return 0, invalidCount(t)
		}
		n = i
	case int:
		n = int64(t)
	case int64:
		n = t
	default:
		return 0, invalidCount(v)
	}

	if n < 0 {
		return 0, invalidCount(n)
	}
	return n, nil
}

func wholeNumber(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
