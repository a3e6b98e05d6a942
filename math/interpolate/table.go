// Package interpolate implements bounds-checked regular-grid lookup
// tables for the precomputed curves and surfaces this core evaluates
// repeatedly per cell: frequency integrals, conditional ionizing
// efficiency and SFRD, and the Fcoll(delta) curves.
package interpolate

// Table1D is a regular-grid 1D lookup table with bounds-checked linear
// interpolation, used by the mass-function and frequency-integral tables.
// Out-of-bounds queries return an error instead of panicking.
type Table1D struct {
	xs   searcher
	vals []float64
}

// NewTable1D builds a Table1D over a uniformly spaced grid starting at x0
// with spacing dx.
func NewTable1D(x0, dx float64, vals []float64) *Table1D {
	t := &Table1D{vals: vals}
	t.xs.unifInit(x0, dx, len(vals))
	return t
}

// NewTable1DIrregular builds a Table1D over an arbitrary strictly
// monotonic grid.
func NewTable1DIrregular(xs, vals []float64) *Table1D {
	t := &Table1D{vals: vals}
	t.xs.init(xs)
	return t
}

// Eval linearly interpolates the table at x, returning an
// errs.TableEvaluation error wrapping an *ErrOutOfBounds if x lies outside
// the table's domain.
func (t *Table1D) Eval(x float64) (float64, error) {
	i1, err := t.xs.searchChecked(x)
	if err != nil {
		return 0, err
	}
	i2 := i1 + 1
	x1, x2 := t.xs.val(i1), t.xs.val(i2)
	v1, v2 := t.vals[i1], t.vals[i2]
	return ((v2-v1)/(x2-x1))*(x-x1) + v1, nil
}

// Bounds returns the table's declared domain.
func (t *Table1D) Bounds() (lo, hi float64) {
	return t.xs.x0, t.xs.lim
}

// Values exposes the underlying value slice, used for NaN/Inf validation
// immediately after construction.
func (t *Table1D) Values() []float64 { return t.vals }

// Table2D is a regular-grid 2D lookup table with bounds-checked bilinear
// interpolation, used for the conditional mass-function tables that are
// indexed by (delta, log10 M_turn).
type Table2D struct {
	xs, ys searcher
	vals   []float64
	nx     int
}

// NewTable2D builds a Table2D over a uniform grid in both dimensions.
// vals is indexed vals[ix + iy*nx].
func NewTable2D(x0, dx float64, nx int, y0, dy float64, ny int, vals []float64) *Table2D {
	t := &Table2D{vals: vals, nx: nx}
	t.xs.unifInit(x0, dx, nx)
	t.ys.unifInit(y0, dy, ny)
	return t
}

// Eval bilinearly interpolates the table at (x, y).
func (t *Table2D) Eval(x, y float64) (float64, error) {
	ix1, err := t.xs.searchChecked(x)
	if err != nil {
		return 0, err
	}
	iy1, err := t.ys.searchChecked(y)
	if err != nil {
		return 0, err
	}
	ix2, iy2 := ix1+1, iy1+1
	if ix2 == t.xs.n {
		ix1--
		ix2--
	}
	if iy2 == t.ys.n {
		iy1--
		iy2--
	}

	x1, x2 := t.xs.val(ix1), t.xs.val(ix2)
	y1, y2 := t.ys.val(iy1), t.ys.val(iy2)

	i11, i12 := ix1+t.nx*iy1, ix1+t.nx*iy2
	i21, i22 := ix2+t.nx*iy1, ix2+t.nx*iy2

	v11, v12 := t.vals[i11], t.vals[i12]
	v21, v22 := t.vals[i21], t.vals[i22]

	dx, dy := x2-x1, y2-y1
	dx1, dx2 := x-x1, x2-x
	dy1, dy2 := y-y1, y2-y

	return (v11*dx2*dy2 + v12*dx2*dy1 +
		v21*dx1*dy2 + v22*dx1*dy1) / (dx * dy), nil
}

// BoundsX and BoundsY return the table's declared domain in each dimension.
func (t *Table2D) BoundsX() (lo, hi float64) { return t.xs.x0, t.xs.lim }
func (t *Table2D) BoundsY() (lo, hi float64) { return t.ys.x0, t.ys.lim }

// Values exposes the underlying value slice, used for NaN/Inf validation.
func (t *Table2D) Values() []float64 { return t.vals }
