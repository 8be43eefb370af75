package dashboard

import (
	"math"
	"strconv"
	"strings"

	"launchdash/domain/launch"
	"launchdash/internal/errors"
)

// ParsePayloadRange reads the min/max query values. A blank value falls back to
// the matching bound of defaults. Bounds are not reordered.
func ParsePayloadRange(minValue, maxValue string, defaults launch.PayloadRange) (launch.PayloadRange, error) {
	pr := defaults

	var err error
	if pr.Min, err = parseBound("min", minValue, defaults.Min); err != nil {
		return launch.PayloadRange{}, err
	}
	if pr.Max, err = parseBound("max", maxValue, defaults.Max); err != nil {
		return launch.PayloadRange{}, err
	}
	return pr, nil
}

// ValidatePayloadRange rejects non-finite bounds, which cannot be encoded in chart payloads
func ValidatePayloadRange(pr launch.PayloadRange) error {
	if !finite(pr.Min) || !finite(pr.Max) {
		return errors.InvalidInput("payload range bounds must be finite numbers")
	}
	return nil
}

func parseBound(name, value string, fallback float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !finite(v) {
		return 0, errors.InvalidInput(name + " must be a finite number, got " + strconv.Quote(value))
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
