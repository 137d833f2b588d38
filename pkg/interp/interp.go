// Package interp provides linear interpolation on sorted grids, including a
// monotone variant that caches the bracketing position across queries issued
// in non-decreasing order.
package interp

// Bracket returns the index j of the grid segment [xs[j], xs[j+1]] that
// brackets x, clamped to [0, len(xs)-2]. Queries outside the grid map to the
// first or last segment, which yields linear extrapolation in Lerp.
func Bracket(xs []float64, x float64) int {
	lo, hi := 0, len(xs)-2
	if x <= xs[1] {
		return 0
	}
	if x >= xs[hi] {
		return hi
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// Lerp evaluates the line through (xs[j], ys[j]) and (xs[j+1], ys[j+1]) at x.
func Lerp(xs, ys []float64, j int, x float64) float64 {
	return ys[j] + (ys[j+1]-ys[j])*(x-xs[j])/(xs[j+1]-xs[j])
}

// At interpolates ys on the sorted grid xs at a single point, extrapolating
// linearly outside the grid.
func At(xs, ys []float64, x float64) float64 {
	return Lerp(xs, ys, Bracket(xs, x), x)
}

// Prep caches the last bracketing index so that a sweep of queries in
// non-decreasing order advances through the grid in amortised constant time.
// Reset (or a fresh Prep) is required before starting a new sweep or a new
// grid.
type Prep struct {
	j int
}

// Reset rewinds the cached position to the start of the grid.
func (p *Prep) Reset() { p.j = 0 }

// Bracket returns the bracketing segment for x, advancing from the cached
// position. x values must be visited in non-decreasing order between resets.
func (p *Prep) Bracket(xs []float64, x float64) int {
	last := len(xs) - 2
	if p.j > last {
		p.j = last
	}
	for p.j < last && xs[p.j+1] <= x {
		p.j++
	}
	return p.j
}

// At interpolates ys at x using the cached position.
func (p *Prep) At(xs, ys []float64, x float64) float64 {
	return Lerp(xs, ys, p.Bracket(xs, x), x)
}
