package main

import "math"

// Adam is the Adam optimizer with bias correction. The learning rate
// decays by Gamma after every epoch.
type Adam struct {
	LR    float64
	Gamma float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	params []*Value
	m, v   []float64
	t      int
}

// NewAdam returns an optimizer over params with the usual moment
// coefficients
func NewAdam(params []*Value, lr, gamma float64) *Adam {
	return &Adam{
		LR:     lr,
		Gamma:  gamma,
		Beta1:  0.9,
		Beta2:  0.999,
		Eps:    1e-8,
		params: params,
		m:      make([]float64, len(params)),
		v:      make([]float64, len(params)),
	}
}

// Rate returns the learning rate used during epoch
func (a *Adam) Rate(epoch int) float64 {
	return a.LR * math.Pow(a.Gamma, float64(epoch))
}

// Step updates every parameter from its accumulated Grad
func (a *Adam) Step(epoch int) {
	a.t++
	lr := a.Rate(epoch)
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	for i, p := range a.params {
		g := p.Grad
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		p.Data -= lr * mHat / (math.Sqrt(vHat) + a.Eps)
	}
}
