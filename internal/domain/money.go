package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for money columns that have never been set.
const DefaultCurrency = "USD"

// Money is a currency amount in major units (15.00 USD, not 1500).
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney returns a Money value; an empty currency falls back to DefaultCurrency.
func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

func (m Money) String() string {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), cur)
}

// Add sums two amounts of the same currency. The receiver's currency wins when one side is unset.
func (m Money) Add(o Money) (Money, error) {
	cur := m.Currency
	switch {
	case cur == "":
		cur = o.Currency
	case o.Currency != "" && o.Currency != cur:
		return Money{}, fmt.Errorf("cannot add %s to %s", o.Currency, cur)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: cur}, nil
}
