package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
)

// Stat is a summary statistic. An undefined statistic (the mean of nothing)
// is NaN; it encodes as JSON null and prints as "nan".
type Stat float64

// NaN reports whether the statistic is undefined
func (s Stat) NaN() bool { return math.IsNaN(float64(s)) }

// String formats with two decimals
func (s Stat) String() string {
	f := float64(s)
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.2f", f)
}

// MarshalJSON writes null for NaN and infinities
func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON reads null back as NaN
func (s *Stat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}
