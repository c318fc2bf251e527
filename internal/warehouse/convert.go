package warehouse

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// lookup returns the value of col, matching the column name case-insensitively
// when there is no exact match.
func lookup(r Row, col string) (any, error) {
	if v, ok := r[col]; ok {
		return v, nil
	}
	for k, v := range r {
		if strings.EqualFold(k, col) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", col, ErrMissingColumn)
}

// floatValue converts a warehouse value to float64. ok is false for NULL.
func floatValue(r Row, col string) (f float64, ok bool, err error) {
	v, err := lookup(r, col)
	if err != nil {
		return 0, false, err
	}
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, false, nil
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case *big.Rat:
		if x == nil {
			return 0, false, nil
		}
		f, _ = x.Float64()
	default:
		return 0, false, fmt.Errorf("%s=%v (%T): %w", col, v, v, ErrMalformedValue)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%s=%v: %w", col, v, ErrMalformedValue)
	}
	return f, true, nil
}

// intValue converts a warehouse value to int. Years stored as strings ('1991')
// and integral floats are accepted. ok is false for NULL.
func intValue(r Row, col string) (n int, ok bool, err error) {
	v, err := lookup(r, col)
	if err != nil {
		return 0, false, err
	}
	switch x := v.(type) {
	case int64:
		return int(x), true, nil
	case int:
		return x, true, nil
	case int32:
		return int(x), true, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true, nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, true, nil
		}
	}
	f, ok, err := floatValue(r, col)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) {
		return 0, false, fmt.Errorf("%s=%v is not an integer: %w", col, v, ErrMalformedValue)
	}
	return int(f), true, nil
}

// stringValue converts a warehouse value to string. Integer station ids are
// formatted without decimals. ok is false for NULL.
func stringValue(r Row, col string) (s string, ok bool, err error) {
	v, err := lookup(r, col)
	if err != nil {
		return "", false, err
	}
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case json.Number:
		return x.String(), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'f', 0, 64), true, nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("%s=%v (%T): %w", col, v, v, ErrMalformedValue)
	}
}
