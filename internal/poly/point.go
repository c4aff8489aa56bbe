package poly

import (
	"fmt"
	"math/big"
)

// Point is a share: the value Y of a polynomial at abscissa X.
type Point struct {
	X *big.Int
	Y *big.Int
}

// NewPoint creates a Point from small integers.
func NewPoint(x, y int64) Point {
	return Point{X: big.NewInt(x), Y: big.NewInt(y)}
}

// String renders the point as "(x,y)" in decimal.
func (p Point) String() string {
	return fmt.Sprintf("(%s,%s)", p.X, p.Y)
}
