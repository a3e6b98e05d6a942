// Package photoncons exposes the consumed contract of the upstream
// photon-conservation redshift remap: given a requested redshift, it
// returns the redshift that should actually drive the snapshot's
// radiative calculations, the redshift under which the result should be
// stored/reported, and the shift between them. The calibration pipeline
// that produces this remap (matching simulated to analytic reionization
// histories) is out of scope here; callers that select
// params.PhotonConsNone get the identity remap, and the non-identity
// variants are thin, explicitly-labeled stand-ins for an external
// calibration this core treats as an opaque collaborator.
package photoncons

import (
	"math"

	"github.com/cosmicgrid/reionheat/errs"
	"github.com/cosmicgrid/reionheat/params"
)

// Remap is the result of adjust_redshifts_for_photoncons: zUsed drives the
// snapshot's internal calculations, zStored is the redshift under which
// the result is reported to the caller, and Delta = zStored - zUsed.
type Remap struct {
	ZUsed, ZStored, Delta float64
}

// Adjust returns the redshift remap for requested redshift z under the
// given photon-conservation type. kind must be one of the
// params.PhotonConsType values validated at snapshot entry.
func Adjust(kind params.PhotonConsType, z float64) (Remap, error) {
	var zUsed float64
	switch kind {
	case params.PhotonConsNone:
		zUsed = z
	case params.PhotonConsZShift:
		zUsed = zShiftStandin(z)
	case params.PhotonConsAlphaEscFit:
		zUsed = z // identity in z; no astro parameters are remapped here
	case params.PhotonConsFEscFit:
		zUsed = z // identity in z; no astro parameters are remapped here
	default:
		return Remap{}, errs.New(errs.Value, "photoncons", "unknown photon-conservation type %d", kind)
	}
	if math.IsNaN(zUsed) || math.IsInf(zUsed, 0) {
		return Remap{}, errs.New(errs.PhotonCons, "photoncons", "remap produced non-finite redshift for z=%g", z)
	}
	return Remap{ZUsed: zUsed, ZStored: z, Delta: z - zUsed}, nil
}

// zShiftStandin applies a small monotone shift matching the shape (not
// the calibrated magnitude) of the upstream z_shift remap: a fixed
// fractional nudge toward lower redshift, vanishing as z grows large.
func zShiftStandin(z float64) float64 {
	const shiftScale = 0.1
	return z - shiftScale/(1+z/10)
}
