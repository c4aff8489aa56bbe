// Package sss splits a 256-bit key into threshold shares by evaluating a
// random polynomial whose constant term is the key.
package sss

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"shard-go/internal/poly"
)

const (
	MinThreshold = 2
	MaxThreshold = 20

	coefficientBytes = 32
	maxDrawAttempts  = 8
)

// Splitter builds share polynomials. Rand defaults to crypto/rand.Reader.
type Splitter struct {
	Rand io.Reader
}

func NewSplitter() *Splitter {
	return &Splitter{Rand: rand.Reader}
}

// BuildPolynomial returns a polynomial of degree threshold-1 whose constant
// term is the key and whose other coefficients are uniform in [1, 2^256-1].
func (s *Splitter) BuildPolynomial(key *Key, threshold int) (*poly.Polynomial, error) {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return nil, fmt.Errorf("got %d: %w", threshold, ErrInvalidThreshold)
	}

	terms := make([]poly.Term, 0, threshold)
	terms = append(terms, poly.Term{Coefficient: key.Int(), Exponent: 0})
	defer func() {
		for _, t := range terms {
			poly.WipeInt(t.Coefficient)
		}
	}()

	for exp := 1; exp < threshold; exp++ {
		c, err := s.drawCoefficient()
		if err != nil {
			return nil, err
		}
		terms = append(terms, poly.Term{Coefficient: c, Exponent: exp})
	}
	return poly.Simplify(terms...), nil
}

// drawCoefficient reads 256 bits and rejects zero.
func (s *Splitter) drawCoefficient() (*big.Int, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, coefficientBytes)
	defer clear(buf)

	for range maxDrawAttempts {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read random coefficient: %w", err)
		}
		c := new(big.Int).SetBytes(buf)
		if c.Sign() != 0 {
			return c, nil
		}
	}
	return nil, ErrRandomness
}

// GeneratePoints evaluates p at x = 1..n.
func GeneratePoints(p *poly.Polynomial, n int) ([]poly.Point, error) {
	if n <= 0 {
		return nil, fmt.Errorf("got %d: %w", n, ErrInvalidCount)
	}

	points := make([]poly.Point, 0, n)
	for i := 1; i <= n; i++ {
		x := big.NewInt(int64(i))
		y, err := p.EvaluateInt(x)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate share %d: %w", i, err)
		}
		points = append(points, poly.Point{X: x, Y: y})
	}
	return points, nil
}

// Split produces n shares of key, any threshold of which recover it.
// The intermediate polynomial is wiped before returning.
func (s *Splitter) Split(key *Key, n, threshold int) ([]poly.Point, error) {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return nil, fmt.Errorf("got %d: %w", threshold, ErrInvalidThreshold)
	}
	if n < threshold {
		return nil, fmt.Errorf("%d shares for threshold %d: %w", n, threshold, ErrInvalidCount)
	}
	p, err := s.BuildPolynomial(key, threshold)
	if err != nil {
		return nil, err
	}
	defer p.Wipe()

	return GeneratePoints(p, n)
}
