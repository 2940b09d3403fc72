// Package rational provides the exact rational value type used for musical
// time: note start positions, durations, stretch factors, and quantization
// grids. Values are immutable; every operation returns a fresh value and no
// operation mutates its receiver or its operands. The zero value is 0.
package rational

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrZeroDivisor is returned by Div when the divisor is zero.
var ErrZeroDivisor = errors.New("rational: division by zero")

// ErrZeroStep is returned by RoundToNearest when the step is zero.
var ErrZeroStep = errors.New("rational: zero rounding step")

// Rational is an immutable exact rational number.
type Rational struct {
	r *big.Rat
}

// zero backs the zero value of Rational. It is read-only: all operations
// treat their operands as immutable.
var zero = new(big.Rat)

// ref returns the backing big.Rat, substituting a shared zero for the
// uninitialized value.
func (x Rational) ref() *big.Rat {
	if x.r == nil {
		return zero
	}
	return x.r
}

// New returns the rational num/den. It panics if den is zero; use Div for
// runtime division.
func New(num, den int64) Rational {
	return Rational{r: big.NewRat(num, den)}
}

// FromInt returns the rational n/1.
func FromInt(n int64) Rational {
	return Rational{r: big.NewRat(n, 1)}
}

// FromBigRat returns a Rational backed by a fresh copy of r.
func FromBigRat(r *big.Rat) Rational {
	return Rational{r: new(big.Rat).Set(r)}
}

// Parse converts a string such as "3/16", "2", or "0.25" into a Rational.
func Parse(s string) (Rational, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Rational{}, fmt.Errorf("rational: cannot parse %q", s)
	}
	return Rational{r: r}, nil
}

// MustParse is like Parse but panics on error. It is intended for constants
// and test fixtures.
func MustParse(s string) Rational {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String renders the value as "num/den", or as "num" when the denominator
// is one.
func (x Rational) String() string {
	return x.ref().RatString()
}

// MarshalText implements encoding.TextMarshaler using the String form.
func (x Rational) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Rational) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	x.r = parsed.r
	return nil
}

// Clone returns a Rational backed by fresh storage. Operations never mutate
// existing values, so Clone exists to guarantee that two Patterns never
// share a backing big.Rat.
func (x Rational) Clone() Rational {
	return Rational{r: new(big.Rat).Set(x.ref())}
}

// Cmp compares x and y, returning -1, 0, or +1.
func (x Rational) Cmp(y Rational) int {
	return x.ref().Cmp(y.ref())
}

// Equal reports whether x and y represent the same value.
func (x Rational) Equal(y Rational) bool {
	return x.Cmp(y) == 0
}

// Sign returns -1, 0, or +1 depending on the sign of x.
func (x Rational) Sign() int {
	return x.ref().Sign()
}

// IsZero reports whether x is zero.
func (x Rational) IsZero() bool {
	return x.ref().Sign() == 0
}

// Add returns x + y.
func (x Rational) Add(y Rational) Rational {
	return Rational{r: new(big.Rat).Add(x.ref(), y.ref())}
}

// Sub returns x - y.
func (x Rational) Sub(y Rational) Rational {
	return Rational{r: new(big.Rat).Sub(x.ref(), y.ref())}
}

// Mul returns x * y.
func (x Rational) Mul(y Rational) Rational {
	return Rational{r: new(big.Rat).Mul(x.ref(), y.ref())}
}

// Div returns x / y, or ErrZeroDivisor when y is zero.
func (x Rational) Div(y Rational) (Rational, error) {
	if y.IsZero() {
		return Rational{}, ErrZeroDivisor
	}
	return Rational{r: new(big.Rat).Quo(x.ref(), y.ref())}, nil
}

// Neg returns -x.
func (x Rational) Neg() Rational {
	return Rational{r: new(big.Rat).Neg(x.ref())}
}

// Float64 returns the nearest float64 approximation of x. It is meant for
// rendering and velocity math, not for exact time arithmetic.
func (x Rational) Float64() float64 {
	f, _ := x.ref().Float64()
	return f
}

// Min returns the smaller of x and y.
func Min(x, y Rational) Rational {
	if x.Cmp(y) <= 0 {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func Max(x, y Rational) Rational {
	if x.Cmp(y) >= 0 {
		return x
	}
	return y
}
