// Package timestamp normalises the timestamp shapes found in stored documents and
// request parameters into time.Time.
//
// Parse accepts a closed set of representations. Anything else fails with
// ErrUnrecognized instead of being guessed at.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnrecognized = errors.New("unrecognized timestamp representation")

// Kind identifies which representation a value was parsed from.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindTime
	KindDateTime
	KindBSONTimestamp
	KindSecondsNanos
	KindEpochSeconds
	KindEpochMillis
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindDateTime:
		return "bson_datetime"
	case KindBSONTimestamp:
		return "bson_timestamp"
	case KindSecondsNanos:
		return "seconds_nanos"
	case KindEpochSeconds:
		return "epoch_seconds"
	case KindEpochMillis:
		return "epoch_millis"
	case KindString:
		return "string"
	default:
		return "unrecognized"
	}
}

// Epoch numbers at or above this magnitude are read as milliseconds. It corresponds to
// roughly the year 5138 in seconds and early 1970 in milliseconds.
const millisThreshold = 100_000_000_000

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Parse converts v into a UTC time.
func Parse(v any) (time.Time, error) {
	t, _, err := ParseKind(v)
	return t, err
}

// ParseKind is Parse that also reports which representation matched.
func ParseKind(v any) (time.Time, Kind, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), KindTime, nil
	case *time.Time:
		if x == nil {
			return unrecognized(v)
		}
		return x.UTC(), KindTime, nil
	case primitive.DateTime:
		return x.Time().UTC(), KindDateTime, nil
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC(), KindBSONTimestamp, nil
	case map[string]any:
		return fromMap(v, x)
	case bson.M:
		return fromMap(v, x)
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = e.Value
		}
		return fromMap(v, m)
	case int:
		return fromEpoch(int64(x))
	case int32:
		return fromEpoch(int64(x))
	case int64:
		return fromEpoch(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return unrecognized(v)
		}
		return fromEpochFloat(x)
	case string:
		t, err := ParseString(x)
		if err != nil {
			return time.Time{}, KindUnrecognized, err
		}
		return t, KindString, nil
	default:
		return unrecognized(v)
	}
}

// ParseString accepts RFC 3339 (with or without fractional seconds), naive
// date-times interpreted as UTC, plain dates and decimal epoch numbers.
func ParseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnrecognized)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		t, _, err := fromEpoch(n)
		return t, err
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
}

// fromMap handles {seconds, nanoseconds} and {_seconds, _nanoseconds} objects.
func fromMap(orig any, m map[string]any) (time.Time, Kind, error) {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return unrecognized(orig)
	}

	sec, ok := toInt64(secRaw)
	if !ok {
		return unrecognized(orig)
	}

	var nanos int64
	nanoRaw, ok := m["nanoseconds"]
	if !ok {
		nanoRaw, ok = m["_nanoseconds"]
	}
	if ok {
		n, valid := toInt64(nanoRaw)
		if !valid || n < 0 || n >= int64(time.Second) {
			return unrecognized(orig)
		}
		nanos = n
	}

	return time.Unix(sec, nanos).UTC(), KindSecondsNanos, nil
}

func fromEpoch(n int64) (time.Time, Kind, error) {
	if n >= millisThreshold || n <= -millisThreshold {
		return time.UnixMilli(n).UTC(), KindEpochMillis, nil
	}
	return time.Unix(n, 0).UTC(), KindEpochSeconds, nil
}

func fromEpochFloat(f float64) (time.Time, Kind, error) {
	if !fitsInt64(f) {
		return unrecognized(f)
	}
	if math.Abs(f) >= millisThreshold {
		return time.UnixMilli(int64(f)).UTC(), KindEpochMillis, nil
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), KindEpochSeconds, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || !fitsInt64(x) {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// fitsInt64 reports whether f converts to int64 without overflow. float64(math.MaxInt64)
// rounds up to 2^63, so that bound itself is out of range.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func unrecognized(v any) (time.Time, Kind, error) {
	return time.Time{}, KindUnrecognized, fmt.Errorf("%w: %T", ErrUnrecognized, v)
}
