// ABOUTME: Arbitrary-precision non-negative Amount backed by math/big
// ABOUTME: Parse rejects anything that is not a plain run of decimal digits

package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount indicates user input that is not a plain decimal-digit string.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a non-negative integer quantity of ledger units. Ledger
// quantities routinely exceed 64-bit range, so the value is arbitrary
// precision. The zero value is the amount 0.
type Amount struct {
	n *big.Int
}

// Parse converts user-supplied text into an Amount. The input must be one
// or more decimal digits after trimming surrounding whitespace; signs,
// decimal points, separators and letters all fail with ErrInvalidAmount.
// There is no upper bound.
func Parse(text string) (Amount, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("%w: %q is not a whole number", ErrInvalidAmount, text)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return Amount{n: n}, nil
}

// MustParse is Parse for trusted constants. It panics on invalid input.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero returns the amount 0.
func Zero() Amount {
	return Amount{}
}

// String formats the amount as its canonical decimal representation.
// Parse(a.String()) always returns a value equal to a.
func (a Amount) String() string {
	if a.n == nil {
		return "0"
	}
	return a.n.String()
}

// IsZero reports whether the amount is 0.
func (a Amount) IsZero() bool {
	return a.n == nil || a.n.Sign() == 0
}

// Cmp compares a and b, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// Equal reports whether a and b denote the same integer.
func (a Amount) Equal(b Amount) bool {
	return a.Cmp(b) == 0
}

// MarshalJSON encodes the amount as a decimal string, the shape the
// ledger wire format uses for quantities beyond float precision.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal string produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: expected string, got %s", ErrInvalidAmount, s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a Amount) big() *big.Int {
	if a.n == nil {
		return new(big.Int)
	}
	return a.n
}
