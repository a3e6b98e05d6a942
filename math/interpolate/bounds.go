package interpolate

import (
	"fmt"

	"github.com/cosmicgrid/reionheat/errs"
)

// ErrOutOfBounds describes a query point that falls outside a table's
// declared domain. searchChecked returns it wrapped in an
// errs.TableEvaluation error, so every Table1D/Table2D lookup outside the
// domain surfaces as that kind.
type ErrOutOfBounds struct {
	Value  float64
	Lo, Hi float64
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("value %g out of range bounds [%g, %g]", e.Value, e.Lo, e.Hi)
}

// searchChecked behaves like search but returns an error instead of
// panicking when x falls outside [x0, lim]. Table1D/Table2D use this path
// exclusively, since their query points come from cell state that can
// legitimately stray outside a table's declared domain (e.g. a filtered
// turnover mass after smoothing).
func (s *searcher) searchChecked(x float64) (int, error) {
	if x > s.lim || x < s.x0 {
		return 0, errs.Wrap(errs.TableEvaluation, "interpolate",
			&ErrOutOfBounds{Value: x, Lo: s.x0, Hi: s.lim}, "table lookup outside declared domain")
	}
	return s.search(x), nil
}
