package main

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Density is an unnormalized, non-negative target density over walker
// configurations
type Density func(x []float64) float64

// Interval is an axis-aligned box on the first three coordinates of a
// walker. Bounds are exclusive.
type Interval struct {
	Lo, Hi [3]float64
}

// Contains reports whether the first three coordinates of x lie
// strictly inside i
func (i *Interval) Contains(x []float64) bool {
	for j := 0; j < 3; j++ {
		if !(i.Lo[j] < x[j] && x[j] < i.Hi[j]) {
			return false
		}
	}
	return true
}

// Metropolis is a random-walk sampler with a symmetric uniform
// proposal. Trial moves displace every coordinate by (u-0.5)*MaxStep
// with u uniform on [0, 1).
type Metropolis struct {
	Density Density
	MaxStep float64
	// BurnIn steps are taken before the first sample is recorded. A
	// negative value is treated as zero.
	BurnIn int
	// Interval is optional; trial moves leaving it have zero density
	Interval *Interval
	Src      rand.Source
}

// Samples holds the recorded walker positions, one per row, along with
// acceptance bookkeeping over the whole walk including burn-in
type Samples struct {
	Points   *mat.Dense
	Accepted int
	Proposed int
}

// AcceptanceRate is the fraction of proposals that were accepted
func (s *Samples) AcceptanceRate() float64 {
	if s.Proposed == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Proposed)
}

// Sample walks from start for m.BurnIn+n steps and returns the last n
// walker positions. Each position is recorded before the move of its
// step is proposed, so with no burn-in the first sample is start.
func (m Metropolis) Sample(start []float64, n int) *Samples {
	dim := len(start)
	ret := &Samples{Points: &mat.Dense{}}
	if n > 0 {
		ret.Points = mat.NewDense(n, dim, nil)
	}
	step := distuv.Uniform{Min: -0.5 * m.MaxStep, Max: 0.5 * m.MaxStep, Src: m.Src}
	draw := distuv.Uniform{Min: 0, Max: 1, Src: m.Src}
	walker := make([]float64, dim)
	copy(walker, start)
	trial := make([]float64, dim)
	dens := m.Density(walker)
	burn := m.BurnIn
	if burn < 0 {
		burn = 0
	}
	for i := 0; i < burn+n; i++ {
		if i >= burn {
			ret.Points.SetRow(i-burn, walker)
		}
		for k := range trial {
			trial[k] = walker[k] + step.Rand()
		}
		td := m.Density(trial)
		if m.Interval != nil && !m.Interval.Contains(trial) {
			td = 0
		}
		ret.Proposed++
		if accept(td/dens, draw.Rand()) {
			walker, trial = trial, walker
			dens = td
			ret.Accepted++
		}
	}
	return ret
}

// accept is the Metropolis rule for a symmetric proposal. A ratio of
// zero is never accepted since u is drawn from [0, 1).
func accept(ratio, u float64) bool {
	return ratio > u
}
