// Package lagrange recovers polynomial values from points by Lagrange
// interpolation. All arithmetic is exact over the rationals.
package lagrange

import (
	"errors"
	"fmt"
	"math/big"

	"shard-go/internal/poly"
)

var (
	ErrInsufficientPoints = errors.New("at least two points are required")
	ErrDuplicateAbscissa  = errors.New("duplicate abscissa")
	ErrIndexOutOfRange    = errors.New("basis index out of range")
	ErrNotIntegral        = errors.New("interpolating polynomial has non-integer coefficients")
)

// Basis returns the i-th Lagrange basis polynomial as a numerator polynomial
// Π_{j≠i}(X - xj) and its scalar denominator Π_{j≠i}(xi - xj).
func Basis(points []poly.Point, i int) (*poly.Polynomial, *big.Int, error) {
	if i < 0 || i >= len(points) {
		return nil, nil, fmt.Errorf("index %d of %d points: %w", i, len(points), ErrIndexOutOfRange)
	}
	if err := checkDistinct(points); err != nil {
		return nil, nil, err
	}

	num := poly.Simplify(poly.NewTermInt64(1, 0))
	den := big.NewInt(1)
	xi := points[i].X
	for j, p := range points {
		if j == i {
			continue
		}
		factor := poly.Simplify(poly.NewTermInt64(1, 1), poly.NewTerm(new(big.Int).Neg(p.X), 0))
		num = num.Mul(factor)
		den.Mul(den, new(big.Int).Sub(xi, p.X))
	}
	return num, den, nil
}

// BasisAt returns Li(x) exactly.
func BasisAt(points []poly.Point, i int, x *big.Int) (*big.Rat, error) {
	if i < 0 || i >= len(points) {
		return nil, fmt.Errorf("index %d of %d points: %w", i, len(points), ErrIndexOutOfRange)
	}
	if err := checkDistinct(points); err != nil {
		return nil, err
	}
	return basisAt(points, i, x), nil
}

// Evaluate returns Σ yi·Li(x), the value at x of the unique polynomial of
// degree < len(points) through the points.
func Evaluate(points []poly.Point, x *big.Int) (*big.Rat, error) {
	if err := checkDistinct(points); err != nil {
		return nil, err
	}

	sum := new(big.Rat)
	for i, p := range points {
		term := basisAt(points, i, x)
		sum.Add(sum, term.Mul(term, new(big.Rat).SetInt(p.Y)))
	}
	return sum, nil
}

// Reconstruct returns the constant term of the interpolating polynomial,
// rounded half away from zero.
func Reconstruct(points []poly.Point) (*big.Int, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("got %d: %w", len(points), ErrInsufficientPoints)
	}
	v, err := Evaluate(points, new(big.Int))
	if err != nil {
		return nil, err
	}
	return round(v), nil
}

func basisAt(points []poly.Point, i int, x *big.Int) *big.Rat {
	num := big.NewInt(1)
	den := big.NewInt(1)
	xi := points[i].X
	for j, p := range points {
		if j == i {
			continue
		}
		num.Mul(num, new(big.Int).Sub(x, p.X))
		den.Mul(den, new(big.Int).Sub(xi, p.X))
	}
	return new(big.Rat).SetFrac(num, den)
}

func checkDistinct(points []poly.Point) error {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		key := p.X.String()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("x=%s: %w", key, ErrDuplicateAbscissa)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// round returns the integer nearest to r, halves away from zero.
func round(r *big.Rat) *big.Int {
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()

	// floor((2|n| + d) / 2d)
	q := new(big.Int).Lsh(num, 1)
	q.Add(q, den)
	q.Quo(q, new(big.Int).Lsh(den, 1))
	if r.Sign() < 0 {
		q.Neg(q)
	}
	return q
}
