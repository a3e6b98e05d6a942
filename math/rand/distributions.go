// Package rand wraps gonum's statistical distributions (stat/distuv) in
// the small set of streams the stochastic halo-property model and the
// ionisation solver's partial-ionization rounding actually draw from.
package rand

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalStream wraps a distuv.Normal, used (through HaloStreams) by the
// stochastic halo-property model for the log-normal scatter terms
// (sigma_*, sigma_sfr, sigma_x).
type NormalStream struct {
	dist distuv.Normal
}

// NewNormalStream builds a standard-normal (mu=0, sigma=1) stream. Callers
// scale and shift the result to whatever sigma the model calls for; the
// stochastic model's "r * sigma" terms apply the scale directly.
func NewNormalStream() *NormalStream {
	return &NormalStream{dist: distuv.Normal{Mu: 0, Sigma: 1}}
}

// Next draws one standard-normal deviate.
func (n *NormalStream) Next() float64 {
	return n.dist.Rand()
}

// PoissonStream wraps a distuv.Poisson, used for the partial-ionization
// halo-count rounding (N_halos_cell ~ Poisson(N_POISSON)).
type PoissonStream struct{}

// NewPoissonStream builds a Poisson stream.
func NewPoissonStream() *PoissonStream {
	return &PoissonStream{}
}

// Next draws a Poisson deviate with the given mean.
func (p *PoissonStream) Next(lambda float64) float64 {
	d := distuv.Poisson{Lambda: lambda}
	return d.Rand()
}

// HaloTriple is the correlated (rng_star, rng_sfr, rng_xray) triple drawn
// per halo and carried alongside its catalogue record into the
// stochastic halo-property model.
type HaloTriple struct {
	Star, SFR, XRay float64
}

// HaloStreams draws independent per-halo triples from three decorrelated
// normal streams, one generator per logical quantity rather than reusing
// a single stream, so that per-halo parallel loops over star/SFR/X-ray
// properties don't share state across goroutines.
type HaloStreams struct {
	star, sfr, xray *NormalStream
}

// NewHaloStreams builds three decorrelated streams.
func NewHaloStreams() *HaloStreams {
	return &HaloStreams{
		star: NewNormalStream(),
		sfr:  NewNormalStream(),
		xray: NewNormalStream(),
	}
}

// Next draws one HaloTriple.
func (h *HaloStreams) Next() HaloTriple {
	return HaloTriple{Star: h.star.Next(), SFR: h.sfr.Next(), XRay: h.xray.Next()}
}
