package scrollplot

import (
	St "github.com/maroda/scrollplot/types"
)

// Number covers the two axis domains: int64 milliseconds for time,
// float64 for values.
type Number interface {
	~int64 | ~float64
}

// Axis holds the logical bounds of one axis.
// Min is always the logical minimum; Inverted only changes
// which of them is drawn first.
type Axis[T Number] struct {
	Pinnable
	Min      T
	Max      T
	Inverted bool
	Zoomed   bool
}

func NewAxis[T Number](min, max T, inverted bool) *Axis[T] {
	return &Axis[T]{Min: min, Max: max, Inverted: inverted}
}

// Start is the bound drawn at the origin side of the axis
func (a *Axis[T]) Start() T {
	if a.Inverted {
		return a.Max
	}
	return a.Min
}

// End is the bound drawn at the far side of the axis
func (a *Axis[T]) End() T {
	if a.Inverted {
		return a.Min
	}
	return a.Max
}

func (a *Axis[T]) Span() T { return a.Max - a.Min }

func (a *Axis[T]) SetBounds(min, max T) {
	a.Min = min
	a.Max = max
}

// Contains is inclusive on both ends
func (a *Axis[T]) Contains(v T) bool {
	return v >= a.Min && v <= a.Max
}

// Bound returns the logical bound for an edge
func (a *Axis[T]) Bound(e St.Edge) T {
	if e == St.EdgeMax {
		return a.Max
	}
	return a.Min
}

func (a *Axis[T]) setBound(e St.Edge, v T) {
	if e == St.EdgeMax {
		a.Max = v
		return
	}
	a.Min = v
}
