package main

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// helium without electron repulsion: two hydrogen-like electrons
// bound to one proton at the origin
type bareAtom struct{}

func (bareAtom) At(x []float64) float64 {
	return -1/floats.Norm(x[:3], 2) - 1/floats.Norm(x[3:6], 2)
}

// product of hydrogen 1s orbitals, an exact eigenfunction of bareAtom
// with eigenvalue -1
func bareGround(x []float64) float64 {
	return math.Exp(-floats.Norm(x[:3], 2) - floats.Norm(x[3:6], 2))
}

// scaled multiplies psi and its gradient by C
type scaled struct {
	f GradField
	C float64
}

func (s scaled) PsiGrad(x []float64) (*Value, []*Value) {
	psi, grad := s.f.PsiGrad(x)
	ret := make([]*Value, len(grad))
	for i, g := range grad {
		ret[i] = Scale(s.C, g)
	}
	return Scale(s.C, psi), ret
}

func TestMoleculePotential(t *testing.T) {
	mol := NewMolecule([]float64{1, 0, 0}, []float64{-1, 0, 0})
	got := mol.At([]float64{0, 1, 0, 0, -1, 0})
	want := 0.5 - 2*math.Sqrt2
	if !scalar.EqualWithinAbsOrRel(got, want, 1e-14, 1e-14) {
		t.Errorf("got %v, wanted %v\n", got, want)
	}
	if got := mol.Repulsion(); got != 0.5 {
		t.Errorf("got %v, wanted %v\n", got, 0.5)
	}
}

func TestLocalEnergyEigenfunction(t *testing.T) {
	points := Metropolis{
		Density: func(x []float64) float64 {
			psi := bareGround(x)
			return psi * psi
		},
		MaxStep: 1,
		BurnIn:  500,
		Src:     rand.NewSource(1),
	}.Sample([]float64{1, 0, 0, -1, 0, 0}, 500).Points
	got := LocalEnergies(FieldFunc(bareGround), bareAtom{}, points)
	var kept []float64
	for i, e := range got {
		x := points.RawRowView(i)
		// the cusp at the proton defeats the difference stencil
		if floats.Norm(x[:3], 2) < 0.2 || floats.Norm(x[3:], 2) < 0.2 {
			continue
		}
		if math.Abs(e+1) > 1e-4 {
			t.Errorf("point %v: got %v, wanted -1\n", x, e)
		}
		kept = append(kept, e)
	}
	if len(kept) < 100 {
		t.Fatalf("only %d points away from the proton\n", len(kept))
	}
	est := NewEstimate(kept)
	if math.Abs(est.Mean+1) > 1e-3 {
		t.Errorf("mean: got %v, wanted -1\n", est)
	}
}

func TestLocalEnergiesNet(t *testing.T) {
	mol := testMol()
	net := NewNet(mol, []int{6, 4}, 0.5, rand.NewSource(1))
	points := mat.NewDense(len(testPoints), NDIM, nil)
	for i, x := range testPoints {
		points.SetRow(i, x)
	}
	got := LocalEnergies(net, mol, points)
	// the same field seen only through Psi is differenced instead
	want := LocalEnergies(FieldFunc(net.Psi), mol, points)
	for i := range got {
		if !scalar.EqualWithinAbsOrRel(got[i], want[i], 1e-4, 1e-4) {
			t.Errorf("point %d: got %v, wanted %v\n", i, got[i], want[i])
		}
	}
}

func TestEnergyLossScale(t *testing.T) {
	mol := testMol()
	net := NewNet(mol, []int{4}, 0.5, rand.NewSource(1))
	batch := mat.NewDense(len(testPoints), NDIM, nil)
	for i, x := range testPoints {
		batch.SetRow(i, x)
	}
	want := EnergyLoss(net, batch, mol).Data
	for _, c := range []float64{-1, 1e-3, 7.5} {
		got := EnergyLoss(scaled{net, c}, batch, mol).Data
		if !scalar.EqualWithinAbsOrRel(got, want, 1e-12, 1e-10) {
			t.Errorf("scale %v: got %v, wanted %v\n", c, got, want)
		}
	}
}

func TestEnergyLossGradient(t *testing.T) {
	mol := testMol()
	net := NewNet(mol, []int{3}, 0.5, rand.NewSource(2))
	batch := mat.NewDense(len(testPoints), NDIM, nil)
	for i, x := range testPoints {
		batch.SetRow(i, x)
	}
	params := net.Parameters()
	net.ZeroGrad()
	Backward(EnergyLoss(net, batch, mol))
	got := make([]float64, len(params))
	for i, p := range params {
		got[i] = p.Grad
	}
	p0 := ParamValues(net)
	want := fd.Gradient(nil, func(p []float64) float64 {
		for i, v := range p {
			params[i].Data = v
		}
		return EnergyLoss(net, batch, mol).Data
	}, p0, &fd.Settings{Formula: fd.Central})
	for i := range got {
		if !scalar.EqualWithinAbsOrRel(got[i], want[i], 1e-6, 1e-5) {
			t.Errorf("param %d: got %v, wanted %v\n", i, got[i], want[i])
		}
	}
}

func TestEnergyStepLowersLoss(t *testing.T) {
	mol := testMol()
	net := NewNet(mol, []int{4}, 0.5, rand.NewSource(3))
	batch := mat.NewDense(len(testPoints), NDIM, nil)
	for i, x := range testPoints {
		batch.SetRow(i, x)
	}
	opt := NewAdam(net.Parameters(), 1e-5, 1)
	before := EnergyLoss(net, batch, mol)
	net.ZeroGrad()
	Backward(before)
	opt.Step(0)
	after := EnergyLoss(net, batch, mol).Data
	if after >= before.Data {
		t.Errorf("got %v after one step, wanted less than %v\n",
			after, before.Data)
	}
}

func TestEstimateEnergy(t *testing.T) {
	mol := testMol()
	f := FieldFunc(func(x []float64) float64 {
		return math.Exp(-Dist(x[:3], mol.C1[:]) - Dist(x[3:], mol.C2[:]))
	})
	points := mat.NewDense(len(testPoints), NDIM, nil)
	for i, x := range testPoints {
		points.SetRow(i, x)
	}
	el := LocalEnergies(f, mol, points)
	got := EstimateEnergy(f, mol, points)
	want := NewEstimate(el).Mean + 1/1.4
	if !scalar.EqualWithinAbsOrRel(got.Mean, want, 1e-12, 1e-12) {
		t.Errorf("got %v, wanted %v\n", got.Mean, want)
	}
	if got.N != len(testPoints) {
		t.Errorf("got %v points, wanted %v\n", got.N, len(testPoints))
	}
}

func TestNewEstimate(t *testing.T) {
	got := NewEstimate([]float64{1, 2, 3})
	want := Estimate{Mean: 2, Variance: 1, StdErr: math.Sqrt(1.0 / 3), N: 3}
	if got != want {
		t.Errorf("got %+v, wanted %+v\n", got, want)
	}
	if got := got.In(2); got.Mean != 4 || got.Variance != 4 {
		t.Errorf("got %+v in units of 2\n", got)
	}
	if got := NewEstimate(nil); !math.IsNaN(got.Mean) {
		t.Errorf("got %v for no samples, wanted NaN\n", got.Mean)
	}
}

func TestUnknownLossWrapped(t *testing.T) {
	conf, err := DefaultRawConf().ToConfig()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	conf.Losses = []string{"variance"}
	conf.BatchSize, conf.Steps = 2, 1
	trainer := NewTrainer(conf, NewNet(conf.Mol, []int{2}, 0.5,
		rand.NewSource(1)), rand.NewSource(1))
	if _, err := trainer.TrainEpoch(0); errors.Cause(err) != ErrUnknownLoss {
		t.Errorf("got %v, wanted %v\n", err, ErrUnknownLoss)
	}
}
