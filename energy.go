package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// from https://physics.nist.gov/cgi-bin/cuu/Value?hrev
	htToEv = 27.211386
	// step for the second-order central difference in the Laplacian.
	// Truncation error goes as h^2 and roundoff as eps/h^2, which
	// balance near 1e-4; larger is kinder to the smeared features
	LAPSTEP = 1e-3
)

// Field is a scalar function of a walker configuration
type Field interface {
	Psi(x []float64) float64
}

// FieldFunc adapts a plain function to a Field
type FieldFunc func(x []float64) float64

func (f FieldFunc) Psi(x []float64) float64 {
	return f(x)
}

// GradField evaluates psi and its coordinate gradient on the tape
type GradField interface {
	PsiGrad(x []float64) (psi *Value, grad []*Value)
}

// EnergyLoss returns the Rayleigh quotient
//
//	sum_i (1/2 |grad psi_i|^2 + psi_i^2 V_i) / sum_i psi_i^2
//
// over the rows of batch. It estimates the energy of f when the rows
// are drawn uniformly, and it is unchanged by scaling f.
func EnergyLoss(f GradField, batch mat.Matrix, pot Potential) *Value {
	r, c := batch.Dims()
	num := make([]*Value, 0, r)
	den := make([]*Value, 0, r)
	x := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(x, i, batch)
		psi, grad := f.PsiGrad(x)
		psi2 := Mul(psi, psi)
		kin := make([]*Value, len(grad))
		for k, g := range grad {
			kin[k] = Mul(g, g)
		}
		num = append(num, Add(
			Scale(0.5, Sum(kin...)),
			Scale(pot.At(x), psi2),
		))
		den = append(den, psi2)
	}
	return Div(Sum(num...), Sum(den...))
}

// LapField evaluates psi and its exact Laplacian
type LapField interface {
	PsiLaplacian(x []float64) (psi, lap float64)
}

// Laplacian returns the sum of the unmixed second derivatives of f at
// x, given psi = f(x)
func Laplacian(f Field, x []float64, psi float64) float64 {
	return fd.Laplacian(f.Psi, x, &fd.Settings{
		Formula:     fd.Central2nd,
		Step:        LAPSTEP,
		OriginKnown: true,
		OriginValue: psi,
	})
}

// LocalEnergies returns -1/2 lap(psi)/psi + V at each row of points.
// Fields implementing LapField supply their own Laplacian; the rest are
// differenced. Nothing guards against psi vanishing; points sampled
// from psi^2 keep away from its nodes.
func LocalEnergies(f Field, pot Potential, points mat.Matrix) []float64 {
	r, c := points.Dims()
	ret := make([]float64, r)
	lf, exact := f.(LapField)
	for i := 0; i < r; i++ {
		x := make([]float64, c)
		mat.Row(x, i, points)
		var psi, lap float64
		if exact {
			psi, lap = lf.PsiLaplacian(x)
		} else {
			psi = f.Psi(x)
			lap = Laplacian(f, x, psi)
		}
		ret[i] = -0.5*lap/psi + pot.At(x)
	}
	return ret
}

// Estimate is a Monte Carlo average with its naive standard error.
// Serial correlation along the walk is ignored.
type Estimate struct {
	Mean     float64
	Variance float64
	StdErr   float64
	N        int
}

// NewEstimate summarizes xs
func NewEstimate(xs []float64) Estimate {
	if len(xs) == 0 {
		return Estimate{Mean: math.NaN(), Variance: math.NaN(),
			StdErr: math.NaN()}
	}
	mean, variance := stat.MeanVariance(xs, nil)
	if len(xs) == 1 {
		variance = 0
	}
	return Estimate{
		Mean:     mean,
		Variance: variance,
		StdErr:   math.Sqrt(variance / float64(len(xs))),
		N:        len(xs),
	}
}

// In converts e from Hartree by multiplying by unit
func (e Estimate) In(unit float64) Estimate {
	return Estimate{
		Mean:     e.Mean * unit,
		Variance: e.Variance * unit * unit,
		StdErr:   e.StdErr * unit,
		N:        e.N,
	}
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.6f +/- %.6f", e.Mean, e.StdErr)
}

// EstimateEnergy averages the local energies of the Molecule at
// points and adds the proton repulsion, giving the total energy in
// Hartree
func EstimateEnergy(f Field, mol Molecule, points mat.Matrix) Estimate {
	el := LocalEnergies(f, mol, points)
	rep := mol.Repulsion()
	for i := range el {
		el[i] += rep
	}
	return NewEstimate(el)
}
