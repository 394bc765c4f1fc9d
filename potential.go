package main

import (
	"gonum.org/v1/gonum/floats"
)

// Potential evaluates the potential energy of a walker configuration
// in Hartree
type Potential interface {
	At(x []float64) float64
}

// Molecule is the H2 system: two protons clamped at C1 and C2 and two
// electrons whose positions make up the 6 coordinates of a walker.
type Molecule struct {
	C1, C2 [3]float64
}

// NewMolecule places the protons at r1 and r2, which must each have
// three components
func NewMolecule(r1, r2 []float64) (m Molecule) {
	copy(m.C1[:], r1)
	copy(m.C2[:], r2)
	return
}

// At returns the electron-proton attraction plus the electron-electron
// repulsion. The proton-proton term is the constant Repulsion.
func (m Molecule) At(x []float64) float64 {
	p1, p2 := x[:3], x[3:6]
	return -1/Dist(p1, m.C1[:]) - 1/Dist(p1, m.C2[:]) -
		1/Dist(p2, m.C1[:]) - 1/Dist(p2, m.C2[:]) +
		1/Dist(p1, p2)
}

// Bond returns the internuclear distance R
func (m Molecule) Bond() float64 {
	return Dist(m.C1[:], m.C2[:])
}

// Repulsion is the classical 1/R proton repulsion
func (m Molecule) Repulsion() float64 {
	return 1 / m.Bond()
}

// Dist is the Euclidean distance between a and b
func Dist(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
