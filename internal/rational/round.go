package rational

import "math/big"

// half is read-only shared storage for the rounding offset.
var half = big.NewRat(1, 2)

// roundHalfUp returns the integer nearest to r, with exact halves rounded
// toward positive infinity: 1/2 rounds to 1 and -1/2 rounds to 0. It is
// computed as floor(r + 1/2); big.Int.Div floors because the denominator of
// a big.Rat is always positive.
func roundHalfUp(r *big.Rat) *big.Int {
	shifted := new(big.Rat).Add(r, half)
	return new(big.Int).Div(shifted.Num(), shifted.Denom())
}

// RoundToInt returns the integer nearest to x, ties toward positive
// infinity.
func (x Rational) RoundToInt() int64 {
	return roundHalfUp(x.ref()).Int64()
}

// RoundToNearest snaps x to the nearest integer multiple of step, ties
// toward positive infinity. A zero step returns ErrZeroStep.
func (x Rational) RoundToNearest(step Rational) (Rational, error) {
	if step.IsZero() {
		return Rational{}, ErrZeroStep
	}
	quot := new(big.Rat).Quo(x.ref(), step.ref())
	k := roundHalfUp(quot)
	snapped := new(big.Rat).Mul(new(big.Rat).SetInt(k), step.ref())
	return Rational{r: snapped}, nil
}
