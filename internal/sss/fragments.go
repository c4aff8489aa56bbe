package sss

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"shard-go/internal/poly"
)

const maxFragmentLine = 1 << 20

// WriteFragments writes one "(x,y)" line per point in order.
func WriteFragments(w io.Writer, points []poly.Point) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := bw.WriteString(p.String() + "\n"); err != nil {
			return fmt.Errorf("failed to write fragment: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write fragments: %w", err)
	}
	return nil
}

// ReadFragments parses the output of WriteFragments. Blank lines and
// surrounding whitespace are ignored.
func ReadFragments(r io.Reader) ([]poly.Point, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFragmentLine)

	var points []poly.Point
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		p, err := parsePoint(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fragments: %w", err)
	}
	return points, nil
}

// ParsePoint parses a single "(x,y)" fragment.
func ParsePoint(s string) (poly.Point, error) {
	return parsePoint(strings.TrimSpace(s))
}

func parsePoint(s string) (poly.Point, error) {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return poly.Point{}, fmt.Errorf("%w: missing parentheses", ErrMalformedFragment)
	}
	xs, ys, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return poly.Point{}, fmt.Errorf("%w: missing comma", ErrMalformedFragment)
	}
	x, ok := new(big.Int).SetString(strings.TrimSpace(xs), 10)
	if !ok {
		return poly.Point{}, fmt.Errorf("%w: bad abscissa", ErrMalformedFragment)
	}
	y, ok := new(big.Int).SetString(strings.TrimSpace(ys), 10)
	if !ok {
		return poly.Point{}, fmt.Errorf("%w: bad ordinate", ErrMalformedFragment)
	}
	return poly.Point{X: x, Y: y}, nil
}
