package jsonlogic

import (
	"encoding/json"
	"math"
)

// Round(value, precision?) arredonda half away from zero.
func Round(args ...any) any {
	if len(args) == 0 {
		return 0.0
	}
	v, _ := toFloat64(args[0])
	precision := 0.0
	if len(args) > 1 {
		precision, _ = toFloat64(args[1])
	}
	ratio := math.Pow(10, precision)
	return math.Round(v*ratio) / ratio
}

// Between(value, min, max) é verdadeiro quando min <= value <= max.
func Between(args ...any) any {
	if len(args) < 3 {
		return false
	}
	v, ok1 := toFloat64(args[0])
	lo, ok2 := toFloat64(args[1])
	hi, ok3 := toFloat64(args[2])
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return v >= lo && v <= hi
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	return 0, false
}
