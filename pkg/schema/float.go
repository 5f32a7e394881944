// Package schema holds the data types shared across the activity
// analytics engine: samples, sample tables, athlete/activity records,
// best-power curves, personal records and cache index rows.
package schema

import (
	"math"
	"strconv"
)

// Float is a float64 that marshals NaN and +/-Inf as JSON null instead
// of failing to encode. Sensor dropouts and divide-by-zero guards in
// the analytics layer produce NaN routinely; every stream column and
// every metric value that can be "missing" uses this type rather than
// plain float64.
type Float float64

func (f Float) IsNaN() bool {
	return math.IsNaN(float64(f))
}

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*f = Float(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// NaN returns a Float representing a missing value.
func NaN() Float {
	return Float(math.NaN())
}
