package main

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// number of pair-distance features fed to the network
	NFEAT = 5
	// walker dimension: two electrons in three dimensions
	NDIM = 6
)

// Layer is a fully connected layer, W[out][in]
type Layer struct {
	W [][]*Value
	B []*Value
}

func newLayer(in, out int, src rand.Source) Layer {
	bound := 1 / math.Sqrt(float64(in))
	u := distuv.Uniform{Min: -bound, Max: bound, Src: src}
	l := Layer{
		W: make([][]*Value, out),
		B: make([]*Value, out),
	}
	for o := range l.W {
		l.W[o] = make([]*Value, in)
		for i := range l.W[o] {
			l.W[o][i] = Const(u.Rand())
		}
		l.B[o] = Const(u.Rand())
	}
	return l
}

// Net is a trial wavefunction for the Molecule. The pair distances of
// a configuration are smeared as erf(d/Smear)/d and fed to an ELU
// perceptron; the result is summed with the same perceptron applied
// to the configuration with its electrons exchanged.
type Net struct {
	Mol    Molecule
	Smear  float64
	Layers []Layer
}

// NewNet returns a randomly initialized network with the given hidden
// layer widths
func NewNet(mol Molecule, hidden []int, smear float64, src rand.Source) *Net {
	net := &Net{
		Mol:   mol,
		Smear: smear,
	}
	in := NFEAT
	for _, h := range hidden {
		net.Layers = append(net.Layers, newLayer(in, h, src))
		in = h
	}
	net.Layers = append(net.Layers, newLayer(in, 1, src))
	return net
}

// Parameters returns every weight and bias of the network in a fixed
// order
func (n *Net) Parameters() (ret []*Value) {
	for _, l := range n.Layers {
		for o := range l.W {
			ret = append(ret, l.W[o]...)
		}
		ret = append(ret, l.B...)
	}
	return
}

func (n *Net) ZeroGrad() {
	for _, p := range n.Parameters() {
		p.Grad = 0
	}
}

// Swap exchanges the two electrons of x
func Swap(x []float64) []float64 {
	ret := make([]float64, NDIM)
	copy(ret[:3], x[3:6])
	copy(ret[3:], x[:3])
	return ret
}

// pairs returns the endpoints of the five distances used as features
func (n *Net) pairs(x []float64) [NFEAT][2][]float64 {
	p1, p2 := x[:3], x[3:6]
	c1, c2 := n.Mol.C1[:], n.Mol.C2[:]
	return [NFEAT][2][]float64{
		{p1, c1}, {p1, c2}, {p2, c1}, {p2, c2}, {p1, p2},
	}
}

// smear returns erf(d/a)/d and its first two derivatives with respect
// to d. The closed forms cancel badly as d -> 0, where the limit is
// finite with zero slope, so short distances use the Taylor series.
func smear(d, a float64) (f, df, d2f float64) {
	c := 2 / (a * math.SqrtPi)
	u := d / a
	if u < 0.2 {
		// erf(u)/d = c sum_n (-1)^n u^2n / (n! (2n+1))
		f = c
		q := 1.0 // (-1)^n u^(2n-2) / n!
		for k := 1; k <= 6; k++ {
			n := float64(k)
			q *= -1 / n
			if k > 1 {
				q *= u * u
			}
			f += c * q * u * u / (2*n + 1)
			df += c / a * q * u * 2 * n / (2*n + 1)
			d2f += c / (a * a) * q * 2 * n * (2*n - 1) / (2*n + 1)
		}
		return
	}
	e := math.Erf(u)
	g := c * math.Exp(-u*u)
	dg := -2 * u / a * g
	return e / d, g/d - e/(d*d), dg/d - 2*g/(d*d) + 2*e/(d*d*d)
}

// Features returns the smeared distances of x and, in jac[j][k], the
// derivative of feature j with respect to coordinate k
func (n *Net) Features(x []float64) (feat [NFEAT]float64, jac [NFEAT][NDIM]float64) {
	for j, pq := range n.pairs(x) {
		p, q := pq[0], pq[1]
		d := Dist(p, q)
		f, df, _ := smear(d, n.Smear)
		feat[j] = f
		if d < 1e-12 {
			continue
		}
		// p is always an electron; q is a proton except for j == 4
		for k := 0; k < 3; k++ {
			g := df * (p[k] - q[k]) / d
			if j == 0 || j == 1 || j == 4 {
				jac[j][k] += g
			} else {
				jac[j][k+3] += g
			}
			if j == 4 {
				jac[j][k+3] -= g
			}
		}
	}
	return
}

// featureCurvature returns, in curv[j][k], the second derivative of
// feature j with respect to coordinate k
func (n *Net) featureCurvature(x []float64) (curv [NFEAT][NDIM]float64) {
	for j, pq := range n.pairs(x) {
		p, q := pq[0], pq[1]
		d := Dist(p, q)
		_, df, d2f := smear(d, n.Smear)
		for k := 0; k < 3; k++ {
			// a radial function with zero slope at the origin has
			// curvature f'' along every axis there
			h := d2f
			if d >= 1e-12 {
				u := (p[k] - q[k]) / d
				h = d2f*u*u + df*(1-u*u)/d
			}
			if j == 0 || j == 1 || j == 4 {
				curv[j][k] += h
			} else {
				curv[j][k+3] += h
			}
			if j == 4 {
				curv[j][k+3] += h
			}
		}
	}
	return
}

// forward evaluates the perceptron on one feature vector
func (n *Net) forward(feat []float64) float64 {
	act := feat
	for i, l := range n.Layers {
		next := make([]float64, len(l.W))
		w := make([]float64, len(act))
		for o := range l.W {
			for k, v := range l.W[o] {
				w[k] = v.Data
			}
			next[o] = floats.Dot(w, act) + l.B[o].Data
			if i < len(n.Layers)-1 {
				next[o] = elu(next[o])
			}
		}
		act = next
	}
	return act[0]
}

// Psi evaluates the wavefunction without recording a tape
func (n *Net) Psi(x []float64) float64 {
	f1, _ := n.Features(x)
	f2, _ := n.Features(Swap(x))
	return n.forward(f1[:]) + n.forward(f2[:])
}

// Density returns psi^2 for use as a sampling target
func (n *Net) Density() Density {
	return func(x []float64) float64 {
		psi := n.Psi(x)
		return psi * psi
	}
}

// curvForward evaluates the perceptron at x along with the sum over
// coordinates of its second derivatives. The first and second
// derivatives along each coordinate are carried through the layers
// beside the activations.
func (n *Net) curvForward(x []float64) (psi, lap float64) {
	feat, jac := n.Features(x)
	curv := n.featureCurvature(x)
	act := feat[:]
	var tans, curvs [NDIM][]float64
	for k := range tans {
		tans[k] = make([]float64, NFEAT)
		curvs[k] = make([]float64, NFEAT)
		for j := 0; j < NFEAT; j++ {
			tans[k][j] = jac[j][k]
			curvs[k][j] = curv[j][k]
		}
	}
	for i, l := range n.Layers {
		next := make([]float64, len(l.W))
		var nextTans, nextCurvs [NDIM][]float64
		for k := range nextTans {
			nextTans[k] = make([]float64, len(l.W))
			nextCurvs[k] = make([]float64, len(l.W))
		}
		w := make([]float64, len(act))
		for o := range l.W {
			for k, v := range l.W[o] {
				w[k] = v.Data
			}
			z := floats.Dot(w, act) + l.B[o].Data
			for k := range nextTans {
				t := floats.Dot(w, tans[k])
				s := floats.Dot(w, curvs[k])
				if i < len(n.Layers)-1 {
					d1 := eluPrime(z)
					s = eluSecond(z)*t*t + d1*s
					t *= d1
				}
				nextTans[k][o] = t
				nextCurvs[k][o] = s
			}
			if i < len(n.Layers)-1 {
				z = elu(z)
			}
			next[o] = z
		}
		act, tans, curvs = next, nextTans, nextCurvs
	}
	for k := range curvs {
		lap += curvs[k][0]
	}
	return act[0], lap
}

// PsiLaplacian evaluates psi and its Laplacian with respect to the
// walker coordinates without recording a tape. The Laplacian is
// unchanged by permuting coordinates, so the exchanged pass needs no
// relabeling.
func (n *Net) PsiLaplacian(x []float64) (psi, lap float64) {
	for _, y := range [][]float64{x, Swap(x)} {
		p, l := n.curvForward(y)
		psi += p
		lap += l
	}
	return
}

// tangentForward evaluates the perceptron on the tape along with the
// derivative of its output with respect to each walker coordinate,
// given the feature jacobian
func (n *Net) tangentForward(feat [NFEAT]float64, jac [NFEAT][NDIM]float64) (
	*Value, [NDIM]*Value) {
	var (
		act  []*Value
		tans [NDIM][]*Value
	)
	// the first layer consumes constant features and tangents
	l := n.Layers[0]
	act = make([]*Value, len(l.W))
	for k := range tans {
		tans[k] = make([]*Value, len(l.W))
	}
	for o := range l.W {
		act[o] = Add(DotConst(l.W[o], feat[:]), l.B[o])
		for k := range tans {
			col := make([]float64, NFEAT)
			for j := range col {
				col[j] = jac[j][k]
			}
			tans[k][o] = DotConst(l.W[o], col)
		}
	}
	for i := 1; i < len(n.Layers); i++ {
		// activation of the previous layer
		for o := range act {
			d := ELUPrime(act[o])
			act[o] = ELU(act[o])
			for k := range tans {
				tans[k][o] = Mul(d, tans[k][o])
			}
		}
		l := n.Layers[i]
		next := make([]*Value, len(l.W))
		var nextTans [NDIM][]*Value
		for k := range nextTans {
			nextTans[k] = make([]*Value, len(l.W))
		}
		for o := range l.W {
			next[o] = Add(Dot(l.W[o], act), l.B[o])
			for k := range nextTans {
				nextTans[k][o] = Dot(l.W[o], tans[k])
			}
		}
		act, tans = next, nextTans
	}
	var grad [NDIM]*Value
	for k := range grad {
		grad[k] = tans[k][0]
	}
	return act[0], grad
}

// PsiGrad evaluates psi and its gradient with respect to the walker
// coordinates on the tape, so both can be differentiated with respect
// to the network parameters
func (n *Net) PsiGrad(x []float64) (*Value, []*Value) {
	f1, j1 := n.Features(x)
	f2, j2 := n.Features(Swap(x))
	psi1, g1 := n.tangentForward(f1, j1)
	psi2, g2 := n.tangentForward(f2, j2)
	grad := make([]*Value, NDIM)
	for k := range grad {
		// the exchanged pass is differentiated with respect to the
		// exchanged coordinates
		grad[k] = Add(g1[k], g2[(k+3)%NDIM])
	}
	return Add(psi1, psi2), grad
}
