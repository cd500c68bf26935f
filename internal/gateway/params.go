// Package gateway validates and normalizes externally supplied parameters
// before they reach the stores: numeric and temporal coercion for payload
// fields and filters, and resolution of the acting user's identity.
package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"procodus.dev/smarthome/internal/store"
)

// timeLayouts are tried in order when coercing a string timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold splits numeric timestamps into seconds vs.
// milliseconds: anything this large is treated as milliseconds.
const epochMillisThreshold = 1e12

// Number coerces a decoded JSON value into a float64. Numeric-looking
// strings are accepted; anything else fails with a validation error rather
// than a silent zero.
func Number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: invalid number %q", store.ErrValidation, n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid number %q", store.ErrValidation, n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: number is required", store.ErrValidation)
	default:
		return 0, fmt.Errorf("%w: invalid number value of type %T", store.ErrValidation, v)
	}
}

// Instant coerces a decoded JSON value into a UTC instant. Strings are
// parsed against the accepted layouts; numbers are unix epoch seconds or
// milliseconds.
func Instant(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return time.Time{}, fmt.Errorf("%w: timestamp is required", store.ErrValidation)
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), nil
			}
		}
		// Bare epoch sent as a string.
		if epoch, err := strconv.ParseFloat(t, 64); err == nil {
			return epochToTime(epoch), nil
		}
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", store.ErrValidation, t)
	case float64:
		return epochToTime(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", store.ErrValidation, t.String())
		}
		return epochToTime(f), nil
	case time.Time:
		return t.UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("%w: timestamp is required", store.ErrValidation)
	default:
		return time.Time{}, fmt.Errorf("%w: invalid timestamp value of type %T", store.ErrValidation, v)
	}
}

// InstantBound coerces an optional query-parameter time bound. An empty
// string means the bound is absent and returns nil.
func InstantBound(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := Instant(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func epochToTime(epoch float64) time.Time {
	if epoch >= epochMillisThreshold {
		return time.UnixMilli(int64(epoch)).UTC()
	}
	return time.Unix(int64(epoch), 0).UTC()
}
