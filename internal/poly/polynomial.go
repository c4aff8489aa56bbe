// Package poly implements polynomials in one variable with arbitrary-precision
// integer coefficients. A Polynomial is always kept simplified: one
// coefficient per exponent and no zero coefficients.
package poly

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

var (
	// ErrDivisionByZero is returned when zero is raised to a negative exponent.
	ErrDivisionByZero = errors.New("zero raised to a negative exponent")

	// ErrNotIntegral is returned by EvaluateInt when the value is not an integer.
	ErrNotIntegral = errors.New("polynomial value is not an integer")
)

// Term is a single monomial coefficient·x^exponent.
type Term struct {
	Coefficient *big.Int
	Exponent    int
}

// NewTerm creates a Term holding a copy of coef.
// A nil coefficient is a programming error and panics.
func NewTerm(coef *big.Int, exp int) Term {
	if coef == nil {
		panic("poly: term coefficient must not be nil")
	}
	return Term{Coefficient: new(big.Int).Set(coef), Exponent: exp}
}

// NewTermInt64 is NewTerm for small coefficients.
func NewTermInt64(coef int64, exp int) Term {
	return Term{Coefficient: big.NewInt(coef), Exponent: exp}
}

// Polynomial maps exponents to non-zero coefficients.
// The zero value is the zero polynomial.
type Polynomial struct {
	coeffs map[int]*big.Int
}

// Simplify builds a Polynomial from terms, summing coefficients that share an
// exponent and dropping the ones that cancel out. No terms yields the zero
// polynomial.
func Simplify(terms ...Term) *Polynomial {
	p := &Polynomial{coeffs: make(map[int]*big.Int, len(terms))}
	for _, t := range terms {
		if t.Coefficient == nil {
			panic("poly: term coefficient must not be nil")
		}
		c, ok := p.coeffs[t.Exponent]
		if !ok {
			c = new(big.Int)
			p.coeffs[t.Exponent] = c
		}
		c.Add(c, t.Coefficient)
	}
	for exp, c := range p.coeffs {
		if c.Sign() == 0 {
			delete(p.coeffs, exp)
		}
	}
	return p
}

// Multiply returns the distributive product of two term lists, simplified.
func Multiply(a, b []Term) *Polynomial {
	product := make([]Term, 0, len(a)*len(b))
	for _, ta := range a {
		for _, tb := range b {
			product = append(product, Term{
				Coefficient: new(big.Int).Mul(ta.Coefficient, tb.Coefficient),
				Exponent:    ta.Exponent + tb.Exponent,
			})
		}
	}
	return Simplify(product...)
}

// Mul returns p·q.
func (p *Polynomial) Mul(q *Polynomial) *Polynomial {
	return Multiply(p.Terms(), q.Terms())
}

// Add returns p+q.
func (p *Polynomial) Add(q *Polynomial) *Polynomial {
	return Simplify(append(p.Terms(), q.Terms()...)...)
}

// Scale returns k·p.
func (p *Polynomial) Scale(k *big.Int) *Polynomial {
	return Multiply(p.Terms(), []Term{NewTerm(k, 0)})
}

// Terms returns copies of the terms of p ordered by ascending exponent.
func (p *Polynomial) Terms() []Term {
	terms := make([]Term, 0, len(p.coeffs))
	for _, exp := range p.exponents() {
		terms = append(terms, NewTerm(p.coeffs[exp], exp))
	}
	return terms
}

// Coefficient returns the coefficient of x^exp, zero if absent.
func (p *Polynomial) Coefficient(exp int) *big.Int {
	if c, ok := p.coeffs[exp]; ok {
		return new(big.Int).Set(c)
	}
	return new(big.Int)
}

// Degree returns the highest exponent present. ok is false for the zero
// polynomial, whose degree is undefined.
func (p *Polynomial) Degree() (deg int, ok bool) {
	exps := p.exponents()
	if len(exps) == 0 {
		return 0, false
	}
	return exps[len(exps)-1], true
}

// Len returns the number of non-zero terms.
func (p *Polynomial) Len() int {
	return len(p.coeffs)
}

// IsZero reports whether p is the zero polynomial.
func (p *Polynomial) IsZero() bool {
	return len(p.coeffs) == 0
}

// Equal reports whether p and q have the same terms.
func (p *Polynomial) Equal(q *Polynomial) bool {
	if len(p.coeffs) != len(q.coeffs) {
		return false
	}
	for exp, c := range p.coeffs {
		d, ok := q.coeffs[exp]
		if !ok || c.Cmp(d) != 0 {
			return false
		}
	}
	return true
}

// Evaluate returns Σ coefficient·x^exponent as an exact rational.
// Negative exponents are allowed as long as x is not zero.
func (p *Polynomial) Evaluate(x *big.Int) (*big.Rat, error) {
	sum := new(big.Rat)
	for exp, c := range p.coeffs {
		if exp >= 0 {
			pow := new(big.Int).Exp(x, big.NewInt(int64(exp)), nil)
			sum.Add(sum, new(big.Rat).SetInt(pow.Mul(pow, c)))
			continue
		}
		if x.Sign() == 0 {
			return nil, fmt.Errorf("evaluating x^%d at 0: %w", exp, ErrDivisionByZero)
		}
		pow := new(big.Int).Exp(x, big.NewInt(int64(-exp)), nil)
		sum.Add(sum, new(big.Rat).SetFrac(c, pow))
	}
	return sum, nil
}

// EvaluateInt evaluates p at x and requires the result to be an integer.
func (p *Polynomial) EvaluateInt(x *big.Int) (*big.Int, error) {
	r, err := p.Evaluate(x)
	if err != nil {
		return nil, err
	}
	if !r.IsInt() {
		return nil, fmt.Errorf("value at %s is %s: %w", x, r.RatString(), ErrNotIntegral)
	}
	return new(big.Int).Set(r.Num()), nil
}

// Wipe zeroes every coefficient in place and empties p.
func (p *Polynomial) Wipe() {
	for exp, c := range p.coeffs {
		WipeInt(c)
		delete(p.coeffs, exp)
	}
}

// String renders p with descending exponents, e.g. "x^3 - 2x^2 + x + 3".
func (p *Polynomial) String() string {
	exps := p.exponents()
	if len(exps) == 0 {
		return "0"
	}

	var b strings.Builder
	for i := len(exps) - 1; i >= 0; i-- {
		exp := exps[i]
		c := p.coeffs[exp]
		abs := new(big.Int).Abs(c)

		switch {
		case i == len(exps)-1 && c.Sign() < 0:
			b.WriteString("-")
		case i != len(exps)-1 && c.Sign() < 0:
			b.WriteString(" - ")
		case i != len(exps)-1:
			b.WriteString(" + ")
		}

		if exp == 0 || abs.Cmp(big.NewInt(1)) != 0 {
			b.WriteString(abs.String())
		}
		switch exp {
		case 0:
		case 1:
			b.WriteString("x")
		default:
			fmt.Fprintf(&b, "x^%d", exp)
		}
	}
	return b.String()
}

func (p *Polynomial) exponents() []int {
	exps := make([]int, 0, len(p.coeffs))
	for exp := range p.coeffs {
		exps = append(exps, exp)
	}
	sort.Ints(exps)
	return exps
}

// WipeInt overwrites the words backing x with zeros and sets x to 0.
func WipeInt(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
