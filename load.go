package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Errors
var (
	ErrUnknownLoss = errors.New("unknown loss")
	ErrBadDim      = errors.New("wrong number of coordinates")
	ErrEmptyConfig = errors.New("invalid value in config")
)

// Loss names accepted in Losses. Only the Rayleigh quotient is
// implemented.
const (
	LossEnergy = "energy"
)

type RawConf struct {
	BatchSize   int
	Steps       int
	Epochs      int
	R1          []float64
	R2          []float64
	Losses      []string
	LR          float64
	Gamma       float64
	Hidden      []int
	Smear       float64
	Seed        uint64
	EvalSamples []int
	EvalStart   []float64
	EvalStep    float64
	EvalBurnIn  int
	Params      string
	Profile     string
	Points      string
}

type Config struct {
	BatchSize   int
	Steps       int
	Epochs      int
	Mol         Molecule
	Losses      []string
	LR          float64
	Gamma       float64
	Hidden      []int
	Smear       float64
	Seed        uint64
	EvalSamples []int
	EvalStart   []float64
	EvalStep    float64
	EvalBurnIn  int
	// Params, if set, names a parameter file to start from
	Params  string
	Profile string
	Points  *mat.Dense
}

// DefaultRawConf returns the defaults that LoadConfig overlays with the
// contents of the input file
func DefaultRawConf() RawConf {
	return RawConf{
		BatchSize:   128,
		Steps:       50,
		Epochs:      5,
		R1:          []float64{0.9, 0, 0},
		R2:          []float64{-0.9, 0, 0},
		Losses:      []string{LossEnergy},
		LR:          2e-3,
		Gamma:       0.5,
		Hidden:      []int{16, 16},
		Smear:       0.5,
		Seed:        1,
		EvalSamples: []int{2000},
		EvalStart:   []float64{1, 0, 0, -1, 0, 0},
		EvalStep:    2,
		EvalBurnIn:  500,
		Profile:     "profile.dat",
	}
}

func (rc RawConf) ToConfig() (conf Config, err error) {
	if len(rc.R1) != 3 || len(rc.R2) != 3 {
		return conf, errors.Wrapf(ErrBadDim, "R1 = %v, R2 = %v",
			rc.R1, rc.R2)
	}
	if len(rc.EvalStart) != NDIM {
		return conf, errors.Wrapf(ErrBadDim, "EvalStart = %v",
			rc.EvalStart)
	}
	if len(rc.Losses) == 0 {
		return conf, errors.Wrap(ErrEmptyConfig, "Losses")
	}
	for _, l := range rc.Losses {
		if l != LossEnergy {
			return conf, errors.Wrapf(ErrUnknownLoss, "%q", l)
		}
	}
	switch {
	case rc.BatchSize < 1:
		return conf, errors.Wrap(ErrEmptyConfig, "BatchSize")
	case rc.Steps < 1:
		return conf, errors.Wrap(ErrEmptyConfig, "Steps")
	case rc.Smear <= 0:
		return conf, errors.Wrap(ErrEmptyConfig, "Smear")
	case rc.EvalBurnIn < 0:
		return conf, errors.Wrapf(ErrEmptyConfig, "EvalBurnIn = %d",
			rc.EvalBurnIn)
	}
	for _, h := range rc.Hidden {
		if h < 1 {
			return conf, errors.Wrapf(ErrEmptyConfig, "Hidden = %v",
				rc.Hidden)
		}
	}
	for _, m := range rc.EvalSamples {
		if m < 0 {
			return conf, errors.Wrapf(ErrEmptyConfig, "EvalSamples = %v",
				rc.EvalSamples)
		}
	}
	conf.Mol = NewMolecule(rc.R1, rc.R2)
	if conf.Mol.Bond() == 0 {
		return conf, errors.Wrap(ErrEmptyConfig, "R1 and R2 coincide")
	}
	conf.BatchSize = rc.BatchSize
	conf.Steps = rc.Steps
	conf.Epochs = rc.Epochs
	conf.Losses = rc.Losses
	conf.LR = rc.LR
	conf.Gamma = rc.Gamma
	conf.Hidden = rc.Hidden
	conf.Smear = rc.Smear
	conf.Seed = rc.Seed
	conf.EvalSamples = rc.EvalSamples
	conf.EvalStart = rc.EvalStart
	conf.EvalStep = rc.EvalStep
	conf.EvalBurnIn = rc.EvalBurnIn
	conf.Params = rc.Params
	conf.Profile = rc.Profile
	if rc.Points != "" {
		conf.Points, err = LoadPoints(rc.Points)
		if err != nil {
			return conf, err
		}
	}
	return
}

func LoadConfig(filename string) (Config, error) {
	cont, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrap(err, "loading config")
	}
	rc := DefaultRawConf()
	if _, err := toml.Decode(string(cont), &rc); err != nil {
		return Config{}, errors.Wrapf(err, "parsing %s", filename)
	}
	return rc.ToConfig()
}

// LoadPoints reads walker configurations, one per line with NDIM
// fields, skipping blank lines and lines starting with #
func LoadPoints(filename string) (*mat.Dense, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "loading points")
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var (
		data  []float64
		lines int
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		row, err := toFloat(strings.Fields(line))
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", filename, lines+1)
		}
		if len(row) != NDIM {
			return nil, errors.Wrapf(ErrBadDim, "%s: %q", filename, line)
		}
		data = append(data, row...)
		lines++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, filename)
	}
	if lines == 0 {
		return nil, errors.Wrapf(ErrEmptyConfig, "no points in %s", filename)
	}
	return mat.NewDense(lines, NDIM, data), nil
}
