package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"eventbritesync/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrUnknownShape is returned for structured values no coercion rule recognizes.
var ErrUnknownShape = errors.New("unknown complex value type")

// Eventbrite's naive local timestamps.
const localLayout = "2006-01-02T15:04:05"

// utcLayout is the UTC form Eventbrite accepts on writes.
const utcLayout = "2006-01-02T15:04:05Z"

// CoerceStructured converts an external structured value into a local value.
// Rules are tried in order; the first match wins:
//
//	{currency, value}  -> domain.Money (value is in minor units)
//	{html}             -> string
//	{timezone, local}  -> time.Time in that zone
func CoerceStructured(v map[string]any) (any, error) {
	if cur, ok := v["currency"]; ok {
		if raw, ok := v["value"]; ok {
			return coerceMoney(raw, cur)
		}
	}
	if html, ok := v["html"]; ok {
		if html == nil {
			return "", nil
		}
		s, ok := html.(string)
		if !ok {
			return nil, fmt.Errorf("html value: want string, got %T", html)
		}
		return s, nil
	}
	if tz, ok := v["timezone"]; ok {
		if local, ok := v["local"]; ok {
			return coerceLocalTime(tz, local)
		}
	}
	return nil, ErrUnknownShape
}

func coerceMoney(raw, cur any) (domain.Money, error) {
	code, ok := cur.(string)
	if !ok {
		return domain.Money{}, fmt.Errorf("currency: want string, got %T", cur)
	}
	minor, err := toDecimal(raw)
	if err != nil {
		return domain.Money{}, fmt.Errorf("money value: %w", err)
	}
	return domain.NewMoney(minor.Shift(-2), code), nil
}

func coerceLocalTime(tz, local any) (time.Time, error) {
	name, ok := tz.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("timezone: want string, got %T", tz)
	}
	s, ok := local.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("local time: want string, got %T", local)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone %q: %w", name, err)
	}
	t, err := time.ParseInLocation(localLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local time %q: %w", s, err)
	}
	return t, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	}
	return decimal.Decimal{}, fmt.Errorf("want number, got %T", v)
}

// EncodeRichText wraps text the way the external API expects rich text.
func EncodeRichText(text string) map[string]any {
	return map[string]any{"html": text}
}

// EncodeInstant renders t as an external timezone-qualified UTC timestamp.
func EncodeInstant(t time.Time) map[string]any {
	return map[string]any{
		"timezone": t.Location().String(),
		"utc":      t.UTC().Format(utcLayout),
	}
}

// EncodeMoney renders m in integer minor units.
func EncodeMoney(m domain.Money) map[string]any {
	cur := m.Currency
	if cur == "" {
		cur = domain.DefaultCurrency
	}
	return map[string]any{
		"value":    m.Amount.Shift(2).Round(0).IntPart(),
		"currency": cur,
	}
}

// ExternalIDOf normalizes an external identifier to a string.
func ExternalIDOf(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	}
	return "", false
}
