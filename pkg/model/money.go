package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount of money in euro cents. The membership API speaks euros,
// conversion happens once when decoding or encoding JSON.
type Cents int64

func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

func ParseEuros(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("can't parse amount %q: %w", s, err)
	}
	return CentsFromDecimal(d), nil
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) Times(quantity int) Cents {
	return c * Cents(quantity)
}

func (c Cents) String() string {
	return "€" + c.Decimal().StringFixed(2)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts euros both as a JSON number and as a quoted string.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*c = 0
		return nil
	}

	v, err := ParseEuros(s)
	if err != nil {
		return err
	}

	*c = v
	return nil
}
