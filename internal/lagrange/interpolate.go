package lagrange

import (
	"fmt"
	"math/big"

	"shard-go/internal/poly"
)

// Interpolation is the interpolating polynomial written as an integer
// polynomial over a positive common denominator, reduced to lowest terms.
type Interpolation struct {
	numerator   *poly.Polynomial
	denominator *big.Int
}

// Interpolate builds the full polynomial of degree < len(points) passing
// through every point.
func Interpolate(points []poly.Point) (*Interpolation, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("got %d: %w", len(points), ErrInsufficientPoints)
	}

	nums := make([]*poly.Polynomial, len(points))
	dens := make([]*big.Int, len(points))
	common := big.NewInt(1)
	for i := range points {
		num, den, err := Basis(points, i)
		if err != nil {
			return nil, err
		}
		nums[i], dens[i] = num, den
		common = lcm(common, den)
	}

	sum := poly.Simplify()
	for i, p := range points {
		k := new(big.Int).Quo(common, dens[i])
		k.Mul(k, p.Y)
		sum = sum.Add(nums[i].Scale(k))
	}

	g := new(big.Int).Set(common)
	for _, t := range sum.Terms() {
		g.GCD(nil, nil, g, new(big.Int).Abs(t.Coefficient))
	}

	terms := sum.Terms()
	for i := range terms {
		terms[i].Coefficient.Quo(terms[i].Coefficient, g)
	}
	return &Interpolation{
		numerator:   poly.Simplify(terms...),
		denominator: new(big.Int).Quo(common, g),
	}, nil
}

// Numerator returns the integer polynomial N with P = N / Denominator().
func (in *Interpolation) Numerator() *poly.Polynomial {
	return poly.Simplify(in.numerator.Terms()...)
}

// Denominator returns the positive common denominator.
func (in *Interpolation) Denominator() *big.Int {
	return new(big.Int).Set(in.denominator)
}

// Exact reports whether every coefficient is an integer.
func (in *Interpolation) Exact() bool {
	return in.denominator.Cmp(big.NewInt(1)) == 0
}

// Polynomial returns the interpolating polynomial when its coefficients are
// all integers.
func (in *Interpolation) Polynomial() (*poly.Polynomial, error) {
	if !in.Exact() {
		return nil, fmt.Errorf("denominator %s: %w", in.denominator, ErrNotIntegral)
	}
	return in.Numerator(), nil
}

// Evaluate returns P(x) exactly.
func (in *Interpolation) Evaluate(x *big.Int) (*big.Rat, error) {
	v, err := in.numerator.Evaluate(x)
	if err != nil {
		return nil, err
	}
	return v.Quo(v, new(big.Rat).SetInt(in.denominator)), nil
}

func (in *Interpolation) String() string {
	if in.Exact() {
		return in.numerator.String()
	}
	return fmt.Sprintf("(%s) / %s", in.numerator, in.denominator)
}

func lcm(a, b *big.Int) *big.Int {
	a = new(big.Int).Abs(a)
	b = new(big.Int).Abs(b)
	g := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Quo(a, g)
	return out.Mul(out, b)
}
