// Package cosmo implements the cosmology kernels consumed as external
// collaborators by the core components: the background
// expansion history, linear growth factor, and the halo-mass <-> variance
// machinery used to build conditional and unconditional mass functions.
package cosmo

import (
	"math"
)

// Params bundles the cosmological parameters shared by every kernel in
// this package. A zero Params is invalid; use Default() or fill in every
// field.
type Params struct {
	H0      float64 // km/s/Mpc
	OmegaM  float64
	OmegaL  float64
	OmegaB  float64
	Sigma8  float64
	Ns      float64 // primordial power spectrum spectral index
	BoxSize float64 // box side length, comoving Mpc/h
}

// Default returns a Planck-like fiducial cosmology, matching the defaults
// used throughout the 21-cm semi-numerical literature this core targets.
func Default() Params {
	return Params{
		H0:     67.7,
		OmegaM: 0.31,
		OmegaL: 0.69,
		OmegaB: 0.048,
		Sigma8: 0.81,
		Ns:     0.97,
	}
}

// HubbleFrac calculates h(z) = H(z)/H0. Here H(z) is from Hubble's Law,
// H(z)**2 + k (c/a)**2 = H0**2 h100**2 (OmegaR a**-4 + OmegaM a**-3 + OmegaL).
// The Hubble constant H0 (Params.H0) is H(z = 0). An alternate
// formulation is h(a) = da/dt / (a H0). Assumes k, r = 0.
func HubbleFrac(omegaM, omegaL, z float64) float64 {
	return math.Sqrt(omegaM*math.Pow(1.0+z, 3.0) + omegaL)
}

// (And by "Mks", I mean "Mks/h".)
func rhoCriticalMks(H0, omegaM, omegaL, z float64) float64 {
	H0Mks := (H0 * 1000) / MpcMks
	H100 := H0 / 100
	// m = m * H100
	H0MksH := H0Mks / H100

	H := HubbleFrac(omegaM, omegaL, z) * H0MksH
	return 3.0 * H * H / (8.0 * math.Pi * GMks)
}

// RhoCritical calculates the critical density of the universe. This shows
// up (among other places) in halo definitions and in the definitions of
// the omages (OmegaFoo = pFoo / pCritical). The returned value is in
// comsological units / h.
func RhoCritical(H0, omegaM, omegaL, z float64) float64 {
	return rhoCriticalMks(H0, omegaM, omegaL, z) * math.Pow(MpcMks, 3) / MSunMks
}

// RhoAverage calculates the average density of matter in the universe. The
// returned value is in cosmological units / h.
func RhoAverage(H0, omegaM, omegaL, z float64) float64 {
	return RhoCritical(H0, omegaM, omegaL, 0) * omegaM * math.Pow(1+z, 3.0)
}

// H returns H(z) in s^-1 (Mks/h).
func (p Params) H(z float64) float64 {
	H0Mks := (p.H0 * 1000) / MpcMks
	return H0Mks * HubbleFrac(p.OmegaM, p.OmegaL, z)
}

// THubble returns the Hubble time 1/H(z) in seconds.
func (p Params) THubble(z float64) float64 {
	return 1.0 / p.H(z)
}

// DtDz returns dt/dz at redshift z, in seconds, via dt/dz = -1/((1+z) H(z)).
func (p Params) DtDz(z float64) float64 {
	return -1.0 / ((1 + z) * p.H(z))
}

// RtoM converts a comoving top-hat filter radius (Mpc/h) to the mass (Msun/h)
// enclosed by that radius at the mean matter density.
func (p Params) RtoM(R float64) float64 {
	rhoM := RhoAverage(p.H0, p.OmegaM, p.OmegaL, 0)
	return (4.0 / 3.0) * math.Pi * R * R * R * rhoM
}

// MtoR is the inverse of RtoM.
func (p Params) MtoR(M float64) float64 {
	rhoM := RhoAverage(p.H0, p.OmegaM, p.OmegaL, 0)
	return math.Cbrt(M / ((4.0 / 3.0) * math.Pi * rhoM))
}

// NBaryon returns the proper (physical) baryon number density at redshift
// z, in cm^-3, derived from RhoCritical and OmegaB.
func (p Params) NBaryon(z float64) float64 {
	rhoBMsunMpc3 := RhoCritical(p.H0, p.OmegaM, p.OmegaL, 0) * p.OmegaB
	rhoBKgM3 := rhoBMsunMpc3 * MSunMks / math.Pow(MpcMks, 3)
	nb0PerCm3 := rhoBKgM3 / ProtonMassMks / 1e6
	return nb0PerCm3 * math.Pow(1+z, 3)
}
