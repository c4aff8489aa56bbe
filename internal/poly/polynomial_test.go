package poly

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTerm_NilCoefficientPanics(t *testing.T) {
	assert.Panics(t, func() { NewTerm(nil, 1) })
}

func TestNewTerm_CopiesCoefficient(t *testing.T) {
	c := big.NewInt(7)
	term := NewTerm(c, 2)
	c.SetInt64(9)
	assert.Equal(t, int64(7), term.Coefficient.Int64())
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name  string
		terms []Term
		want  string
		len   int
	}{
		{"empty", nil, "0", 0},
		{"merges exponents", []Term{NewTermInt64(2, 1), NewTermInt64(3, 1), NewTermInt64(1, 0)}, "5x + 1", 2},
		{"drops cancelled", []Term{NewTermInt64(4, 2), NewTermInt64(-4, 2), NewTermInt64(1, 0)}, "1", 1},
		{"drops zero", []Term{NewTermInt64(0, 3)}, "0", 0},
		{"orders descending", []Term{NewTermInt64(3, 0), NewTermInt64(1, 1), NewTermInt64(-2, 2), NewTermInt64(1, 3)}, "x^3 - 2x^2 + x + 3", 4},
		{"leading negative", []Term{NewTermInt64(-1, 2), NewTermInt64(-5, 0)}, "-x^2 - 5", 2},
		{"negative exponent", []Term{NewTermInt64(2, -1)}, "2x^-1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Simplify(tt.terms...)
			assert.Equal(t, tt.want, p.String())
			assert.Equal(t, tt.len, p.Len())
		})
	}
}

func TestSimplify_NilCoefficientPanics(t *testing.T) {
	assert.Panics(t, func() { Simplify(Term{Exponent: 1}) })
}

func TestDegree(t *testing.T) {
	_, ok := Simplify().Degree()
	assert.False(t, ok)

	deg, ok := Simplify(NewTermInt64(1, 0), NewTermInt64(4, 5)).Degree()
	require.True(t, ok)
	assert.Equal(t, 5, deg)
}

func TestMultiply(t *testing.T) {
	// (x - 1)(x + 1) = x^2 - 1
	a := []Term{NewTermInt64(1, 1), NewTermInt64(-1, 0)}
	b := []Term{NewTermInt64(1, 1), NewTermInt64(1, 0)}
	p := Multiply(a, b)
	assert.Equal(t, "x^2 - 1", p.String())
	assert.True(t, p.Equal(Simplify(NewTermInt64(1, 2), NewTermInt64(-1, 0))))

	assert.True(t, Multiply(a, nil).IsZero())
}

func TestAddAndScale(t *testing.T) {
	p := Simplify(NewTermInt64(1, 2), NewTermInt64(1, 0))
	q := Simplify(NewTermInt64(-1, 2), NewTermInt64(3, 1))
	assert.Equal(t, "3x + 1", p.Add(q).String())
	assert.Equal(t, "-3x^2 - 3", p.Scale(big.NewInt(-3)).String())
	assert.True(t, p.Scale(big.NewInt(0)).IsZero())
}

func TestEvaluate(t *testing.T) {
	p := Simplify(NewTermInt64(1, 3), NewTermInt64(-2, 2), NewTermInt64(1, 1), NewTermInt64(3, 0))

	tests := []struct {
		x    int64
		want int64
	}{
		{0, 3},
		{1, 3},
		{2, 5},
		{3, 15},
		{4, 39},
		{-1, -1},
	}
	for _, tt := range tests {
		got, err := p.EvaluateInt(big.NewInt(tt.x))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Int64(), "p(%d)", tt.x)
	}
}

func TestEvaluate_NegativeExponent(t *testing.T) {
	p := Simplify(NewTermInt64(3, -1), NewTermInt64(1, 0))

	r, err := p.Evaluate(big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, "5/2", r.RatString())

	_, err = p.EvaluateInt(big.NewInt(2))
	assert.ErrorIs(t, err, ErrNotIntegral)

	_, err = p.Evaluate(big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvaluate_ZeroPolynomial(t *testing.T) {
	r, err := Simplify().Evaluate(big.NewInt(12))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Sign())
}

func TestEvaluate_Linearity(t *testing.T) {
	big1, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	p := Simplify(NewTerm(big1, 0), NewTermInt64(17, 1), NewTermInt64(-4, 2))
	q := Simplify(NewTermInt64(9, 0), NewTermInt64(-17, 1), NewTermInt64(2, 5))
	sum := p.Add(q)

	for _, x := range []int64{-3, 0, 1, 7, 1000} {
		px, err := p.Evaluate(big.NewInt(x))
		require.NoError(t, err)
		qx, err := q.Evaluate(big.NewInt(x))
		require.NoError(t, err)
		sx, err := sum.Evaluate(big.NewInt(x))
		require.NoError(t, err)
		assert.Zero(t, new(big.Rat).Add(px, qx).Cmp(sx), "x=%d", x)
	}
}

func TestTerms_AscendingCopies(t *testing.T) {
	p := Simplify(NewTermInt64(5, 2), NewTermInt64(1, 0))
	terms := p.Terms()
	require.Len(t, terms, 2)
	assert.Equal(t, 0, terms[0].Exponent)
	assert.Equal(t, 2, terms[1].Exponent)

	terms[1].Coefficient.SetInt64(100)
	assert.Equal(t, int64(5), p.Coefficient(2).Int64())
	assert.Equal(t, int64(0), p.Coefficient(7).Int64())
}

func TestWipe(t *testing.T) {
	c := big.NewInt(123456789)
	p := Simplify(NewTerm(c, 0), NewTermInt64(4, 1))
	p.Wipe()
	assert.True(t, p.IsZero())
	assert.Equal(t, "0", p.String())
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "(3,-15)", NewPoint(3, -15).String())
}
