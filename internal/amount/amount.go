// Package amount validates requested charge amounts against the storefront's
// preset and free-entry rules. All values are in minor currency units.
package amount

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Bounds for free-entry amounts.
const (
	Min = 3000
	Max = 60000
)

var (
	// ErrInvalidAmount means the value is not an integer at all.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidPreset means preset mode was requested with a value outside
	// the fixed preset set.
	ErrInvalidPreset = errors.New("invalid preset amount")
	// ErrOutOfRange means a free-entry value fell outside [Min, Max].
	ErrOutOfRange = errors.New("amount out of range")
)

// presets are the fixed amounts the storefront offers as buttons.
var presets = map[int64]struct{}{
	5000:  {},
	10000: {},
	15000: {},
	20000: {},
	30000: {},
	40000: {},
	50000: {},
	60000: {},
}

// Parse converts a raw JSON amount to minor units. Strings, fractions,
// absent values, and anything else that is not an integer JSON number fail
// with ErrInvalidAmount before either branch rule runs.
func Parse(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Validate checks amt against the preset set when preset is true, or the
// inclusive [Min, Max] range otherwise. No side effects.
func Validate(amt int64, preset bool) error {
	if preset {
		if _, ok := presets[amt]; !ok {
			return ErrInvalidPreset
		}
		return nil
	}
	if amt < Min || amt > Max {
		return ErrOutOfRange
	}
	return nil
}
