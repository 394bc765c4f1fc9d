package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// points along the profile line written after every epoch
const NPROFILE = 100

// EpochResult is one row of the training table
type EpochResult struct {
	Epoch  int
	Mode   string
	LR     float64
	Loss   float64
	Energy Estimate
	Accept float64
	Time   time.Duration
}

// Trainer drives the optimization of a Net. Every random draw comes
// from Src, so a run is reproducible from its seed.
type Trainer struct {
	Conf Config
	Net  *Net
	Opt  *Adam
	Src  rand.Source
	// Out receives the per-evaluation lines, ParamLog and Profile the
	// per-epoch parameter and profile dumps. Any of them may be nil.
	Out      io.Writer
	ParamLog io.Writer
	Profile  io.Writer
	Debug    bool

	rng  *rand.Rand
	best []float64
	// BestEnergy is the lowest estimate seen by Run, in Hartree
	BestEnergy Estimate
	BestEpoch  int
}

// Row formats r as a line of the results table in eV. The loss includes
// the proton repulsion so it compares with the energy column.
func (r EpochResult) Row(mol Molecule) string {
	note := ""
	if math.IsNaN(r.Energy.Mean) {
		note = " NaN"
	}
	return fmt.Sprintf("%5d%10s%12.2e%16.6f%30s%10.4f%10.1f%s",
		r.Epoch, r.Mode, r.LR, (r.Loss+mol.Repulsion())*htToEv,
		r.Energy.In(htToEv), r.Accept, r.Time.Seconds(), note)
}

func NewTrainer(conf Config, net *Net, src rand.Source) *Trainer {
	return &Trainer{
		Conf:       conf,
		Net:        net,
		Opt:        NewAdam(net.Parameters(), conf.LR, conf.Gamma),
		Src:        src,
		rng:        rand.New(src),
		BestEnergy: Estimate{Mean: math.Inf(1)},
		BestEpoch:  -1,
	}
}

// Batch draws BatchSize*Steps configurations with every coordinate
// normal about the origin with a width of three bond lengths
func (t *Trainer) Batch() *mat.Dense {
	n := t.Conf.BatchSize * t.Conf.Steps
	norm := distuv.Normal{Mu: 0, Sigma: 3 * t.Conf.Mol.Bond(), Src: t.Src}
	data := make([]float64, n*NDIM)
	for i := range data {
		data[i] = norm.Rand()
	}
	return mat.NewDense(n, NDIM, data)
}

// Mode returns the loss used during epoch
func (t *Trainer) Mode(epoch int) string {
	return t.Conf.Losses[epoch%len(t.Conf.Losses)]
}

// TrainEpoch runs Steps optimizer steps over a fresh shuffled batch
// and returns the mean loss
func (t *Trainer) TrainEpoch(epoch int) (float64, error) {
	mode := t.Mode(epoch)
	all := t.Batch()
	index := t.rng.Perm(t.Conf.BatchSize * t.Conf.Steps)
	batch := mat.NewDense(t.Conf.BatchSize, NDIM, nil)
	var sum float64
	for step := 0; step < t.Conf.Steps; step++ {
		for i := 0; i < t.Conf.BatchSize; i++ {
			batch.SetRow(i, all.RawRowView(index[step*t.Conf.BatchSize+i]))
		}
		var loss *Value
		switch mode {
		case LossEnergy:
			loss = EnergyLoss(t.Net, batch, t.Conf.Mol)
		default:
			return 0, errors.Wrapf(ErrUnknownLoss, "epoch %d: %q",
				epoch, mode)
		}
		t.Net.ZeroGrad()
		Backward(loss)
		t.Opt.Step(epoch)
		sum += loss.Data
		if t.Debug {
			log.Printf("epoch %d step %d: loss = %.8f\n",
				epoch, step, loss.Data)
		}
	}
	return sum / float64(t.Conf.Steps), nil
}

// Evaluate samples psi^2 m times from the configured start and returns
// the total energy estimate in Hartree
func (t *Trainer) Evaluate(m int) (Estimate, *Samples) {
	sampler := Metropolis{
		Density: t.Net.Density(),
		MaxStep: t.Conf.EvalStep,
		BurnIn:  t.Conf.EvalBurnIn,
		Src:     t.Src,
	}
	samples := sampler.Sample(t.Conf.EvalStart, m)
	if m == 0 {
		return NewEstimate(nil), samples
	}
	return EstimateEnergy(t.Net, t.Conf.Mol, samples.Points), samples
}

// EvaluateAll runs Evaluate for every entry of EvalSamples, writing one
// line per run to Out, and returns the last estimate
func (t *Trainer) EvaluateAll() (est Estimate, accept float64) {
	est = NewEstimate(nil)
	for _, m := range t.Conf.EvalSamples {
		start := time.Now()
		var samples *Samples
		est, samples = t.Evaluate(m)
		accept = samples.AcceptanceRate()
		if t.Out != nil {
			fmt.Fprintf(t.Out, "%10d%30s%10.4f%10.1f\n",
				m, est.In(htToEv), accept,
				time.Since(start).Seconds())
		}
		if t.Debug && m > 0 {
			mean, _ := Moments(samples.Points)
			log.Printf("walker mean: %8.4f\n", mean)
			log.Printf("x1 histogram on [-6, 6): %.3f\n",
				Histogram(samples.Points, 0, -6, 6, 12))
		}
	}
	return
}

// Run trains for Epochs epochs and returns one result per epoch
func (t *Trainer) Run() ([]EpochResult, error) {
	ret := make([]EpochResult, 0, t.Conf.Epochs)
	for epoch := 0; epoch < t.Conf.Epochs; epoch++ {
		start := time.Now()
		res := EpochResult{
			Epoch: epoch + 1,
			Mode:  t.Mode(epoch),
			LR:    t.Opt.Rate(epoch),
		}
		log.Printf("epoch %d of %d: minimize %s, lr = %g\n",
			epoch+1, t.Conf.Epochs, res.Mode, res.LR)
		loss, err := t.TrainEpoch(epoch)
		if err != nil {
			return ret, err
		}
		res.Loss = loss
		res.Energy, res.Accept = t.EvaluateAll()
		res.Time = time.Since(start)
		if res.Energy.Mean < t.BestEnergy.Mean {
			t.BestEnergy = res.Energy
			t.BestEpoch = res.Epoch
			t.best = ParamValues(t.Net)
		}
		if t.ParamLog != nil {
			if err := LogParams(t.ParamLog, t.Net, res.Epoch); err != nil {
				return ret, err
			}
		}
		if t.Profile != nil {
			WriteProfile(t.Profile, t.Net, res.Epoch)
		}
		ret = append(ret, res)
	}
	return ret, nil
}

// RestoreBest loads the parameters of the lowest-energy epoch back into
// the network. It reports false if no epoch produced a finite energy.
func (t *Trainer) RestoreBest() bool {
	if t.best == nil {
		return false
	}
	for i, p := range t.Net.Parameters() {
		p.Data = t.best[i]
	}
	return true
}

// ParamValues copies the current parameter values of net
func ParamValues(net *Net) []float64 {
	params := net.Parameters()
	ret := make([]float64, len(params))
	for i, p := range params {
		ret[i] = p.Data
	}
	return ret
}

// WriteProfile writes psi^2, normalized to a maximum of one, along the
// bond axis for the first electron with the second held at (3, 0, 0)
func WriteProfile(w io.Writer, net *Net, epoch int) {
	line := Line(
		[]float64{-6, 0, 0, 3, 0, 0},
		[]float64{6, 0, 0, 3, 0, 0},
		NPROFILE,
	)
	psi := make([]float64, NPROFILE)
	var peak float64
	for i := range psi {
		psi[i] = net.Psi(line.RawRowView(i))
		if math.Abs(psi[i]) > math.Abs(peak) {
			peak = psi[i]
		}
	}
	if Equal(peak, 0) {
		log.Println("Psi vanishes along the profile")
		peak = 1
	} else if peak < 0 {
		log.Println("negative Psi")
	}
	fmt.Fprintf(w, "# epoch %d\n", epoch)
	for i := range psi {
		fmt.Fprintf(w, "%12.6f%20.12f\n",
			line.At(i, 0), (psi[i]/peak)*(psi[i]/peak))
	}
	fmt.Fprint(w, "\n")
}
