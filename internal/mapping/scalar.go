package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"eventbritesync/internal/domain"
)

// Scalar converters turn a decoded JSON value (or an already coerced one) into the
// Go type of a local field. A JSON null yields the zero value.

func toString(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(s), nil
	}
	return "", fmt.Errorf("want string, got %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case string:
		if n == "" {
			return 0, nil
		}
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("want integer, got %T", v)
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("want integer, got %v", f)
	}
	return int(f), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	return false, fmt.Errorf("want bool, got %T", v)
}

func toMoney(v any) (domain.Money, error) {
	switch m := v.(type) {
	case nil:
		return domain.Money{}, nil
	case domain.Money:
		return m, nil
	}
	return domain.Money{}, fmt.Errorf("want money, got %T", v)
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339, t)
	}
	return time.Time{}, fmt.Errorf("want timestamp, got %T", v)
}

func toEventStatus(v any) (domain.EventStatus, error) {
	s, err := toString(v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", nil
	}
	return domain.ParseEventStatus(s)
}
